// Command flow-counter counts pulses from contact flow meters on GPIO
// inputs and serves the counts to a host over a serial text protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/flow-counter/internal/command"
	"github.com/sweeney/flow-counter/internal/counter"
	"github.com/sweeney/flow-counter/internal/gpio"
	"github.com/sweeney/flow-counter/internal/mqtt"
	"github.com/sweeney/flow-counter/internal/serial"
	"github.com/sweeney/flow-counter/internal/status"
	"github.com/sweeney/flow-counter/internal/web"
)

// serialReadTimeout bounds the per-tick serial read. Must stay well under
// the poll interval so the loop cadence is set by the ticker, not the port.
const serialReadTimeout = 10 * time.Millisecond

func main() {
	poll := flag.Duration("poll", 50*time.Millisecond, "GPIO polling interval")
	device := flag.String("serial", "/dev/ttyAMA0", "serial device for the host link")
	baud := flag.Int("baud", serial.DefaultBaud, "serial baud rate")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable telemetry)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	indicatorPin := flag.Int("indicator-pin", gpio.DefaultIndicatorPin, "BCM pin for the edge indicator LED")
	printLevels := flag.Bool("print-levels", false, "print current input levels and exit")

	flag.Parse()

	if err := run(*poll, *device, *baud, *broker, *heartbeat, *httpAddr, *indicatorPin, *printLevels); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, device string, baud int, broker string, heartbeat time.Duration, httpAddr string, indicatorPin int, printLevels bool) error {
	// Initialize GPIO inputs
	gpioReader, err := gpio.NewRealReader(gpio.InputPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print levels mode
	if printLevels {
		levels, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		for i, p := range counter.Pins() {
			fmt.Printf("pin %d: %s\n", p, levelString(levels[i]))
		}
		return nil
	}

	indicator, err := gpio.NewRealIndicator(indicatorPin)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	defer indicator.Close()

	// Open the host link
	port, err := serial.Open(device, baud, serialReadTimeout)
	if err != nil {
		return fmt.Errorf("open host link: %w", err)
	}
	defer port.Close()

	// Counter state starts from the instantaneous levels, so the first
	// poll does not count power-on levels as edges.
	levels, err := gpioReader.Read()
	if err != nil {
		return fmt.Errorf("read initial levels: %w", err)
	}
	bank := counter.NewBank(levels)

	// Telemetry is optional; the serial protocol is the real contract.
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if broker != "" {
		real, err := mqtt.NewRealPublisher(broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = real
		mqttStatus = real
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       poll.Milliseconds(),
		HeartbeatMs:  heartbeat.Milliseconds(),
		Broker:       broker,
		HTTPAddr:     httpAddr,
		SerialDevice: device,
		Baud:         baud,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v serial=%s baud=%d broker=%s heartbeat=%v", poll, device, baud, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lines := serial.NewLineReader(port)
	return runLoop(gpioReader, indicator, lines, port, bank, publisher, mqttStatus, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop is the device's single logical loop: every tick it polls the
// inputs, advances the counters, drives the indicator, and processes at
// most one pending host command. Polling and command handling share the
// bank without locking — only this loop touches it.
func runLoop(reader gpio.Reader, indicator gpio.Indicator, lines *serial.LineReader, host io.Writer, bank *counter.Bank, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	interp := command.NewInterpreter(bank)
	startTime := now()
	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.Update(bank.Snapshot())
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()
			levels, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			edges := bank.PollAll(levels)
			for _, e := range edges {
				if err := indicator.Set(e.Indicator); err != nil {
					log.Printf("indicator error: %v", err)
				}
				if err := publisher.Publish(mqtt.EdgeEvent{Timestamp: t, Pin: int(e.Pin), Count: e.Count}); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// At most one host command per iteration; the rest stay
			// buffered for later ticks.
			line, ok, err := lines.Next()
			if err != nil {
				log.Printf("serial read error: %v", err)
				if tracker != nil {
					tracker.SetSerialOK(false)
				}
			} else {
				if tracker != nil {
					tracker.SetSerialOK(true)
				}
				if ok {
					outcome := interp.Handle(line)
					switch outcome.Status {
					case command.StatusHandledReply:
						if _, err := host.Write([]byte(outcome.Reply)); err != nil {
							log.Printf("serial write error: %v", err)
							if tracker != nil {
								tracker.SetSerialOK(false)
							}
						}
					case command.StatusIgnored:
						// Silent on the wire; logged for diagnostics.
						log.Printf("ignored command %q: %s", line, outcome.Reason)
					}
				}
			}

			if tracker != nil {
				tracker.Update(bank.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: uptime=%v edges=%d", t.Sub(startTime), bank.Edges())

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
