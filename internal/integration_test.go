package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/flow-counter/internal/command"
	"github.com/sweeney/flow-counter/internal/counter"
	"github.com/sweeney/flow-counter/internal/gpio"
	"github.com/sweeney/flow-counter/internal/mqtt"
	"github.com/sweeney/flow-counter/internal/serial"
)

// TestIntegrationFullFlow drives the whole pipeline with fakes: level
// frames through the counter bank, host commands through the line reader
// and interpreter, and edge events out to the fake publisher.
func TestIntegrationFullFlow(t *testing.T) {
	// Pin 5 pulses twice, pin 12 once; pin 3 stays high throughout.
	frames := [][]bool{
		levels(3),        // t=0   baseline matches, no edges
		levels(3, 5),     // t=50ms  pin 5 rises (edge 1)
		levels(3),        // t=100ms pin 5 falls (edge 2)
		levels(3, 5, 12), // t=150ms pin 5 rises, pin 12 rises (edges 3,4)
		levels(3, 5, 12), // t=200ms steady
	}

	reader := gpio.NewFakeReader(frames)
	indicator := gpio.NewFakeIndicator()
	port := serial.NewFakePort()
	lines := serial.NewLineReader(port)
	publisher := mqtt.NewFakePublisher()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Host queues two commands mid-run; one is consumed per iteration.
	bank := counter.NewBank(levels(3))
	interp := command.NewInterpreter(bank)

	pollInterval := 50 * time.Millisecond

	for i := range frames {
		now := start.Add(time.Duration(i) * pollInterval)

		sample, err := reader.Read()
		if err != nil {
			t.Fatalf("frame %d: gpio read error: %v", i, err)
		}

		edges := bank.PollAll(sample)
		for _, e := range edges {
			if err := indicator.Set(e.Indicator); err != nil {
				t.Fatalf("frame %d: indicator error: %v", i, err)
			}
			if err := publisher.Publish(mqtt.EdgeEvent{Timestamp: now, Pin: int(e.Pin), Count: e.Count}); err != nil {
				t.Fatalf("frame %d: publish error: %v", i, err)
			}
		}

		if i == 2 {
			port.Feed("r5\nc5\n")
		}

		line, ok, err := lines.Next()
		if err != nil {
			t.Fatalf("frame %d: serial error: %v", i, err)
		}
		if ok {
			outcome := interp.Handle(line)
			if outcome.Status == command.StatusHandledReply {
				if _, err := port.Write([]byte(outcome.Reply)); err != nil {
					t.Fatalf("frame %d: write error: %v", i, err)
				}
			}
		}
	}

	// Counters: pin 5 saw 2 edges before the clear on iteration 3 and a
	// third after; pin 12 saw one; pin 3 none.
	if got := bank.Read(12); got != 1 {
		t.Errorf("pin 12 count: got %d, want 1", got)
	}
	if got := bank.Read(3); got != 0 {
		t.Errorf("pin 3 count: got %d, want 0", got)
	}

	// The read answered before the clear was processed.
	if got := port.Written(); got != "2\n" {
		t.Errorf("reply: got %q, want %q", got, "2\n")
	}
	// The poll on iteration 3 ran before the clear, so the clear wiped
	// count 3; the steady final frame adds nothing.
	if got := bank.Read(5); got != 0 {
		t.Errorf("pin 5 count after clear: got %d, want 0", got)
	}

	// Four edges, four indicator toggles, alternating from true.
	if len(indicator.States) != 4 {
		t.Fatalf("indicator sets: got %d, want 4", len(indicator.States))
	}
	want := []bool{true, false, true, false}
	for i := range want {
		if indicator.States[i] != want[i] {
			t.Errorf("indicator set %d: got %v, want %v", i, indicator.States[i], want[i])
		}
	}

	// Edge telemetry went out once per edge with the post-edge count.
	if len(publisher.Events) != 4 {
		t.Fatalf("expected 4 edge events, got %d", len(publisher.Events))
	}
	if publisher.Events[0].Pin != 5 || publisher.Events[0].Count != 1 {
		t.Errorf("event 0: got pin=%d count=%d", publisher.Events[0].Pin, publisher.Events[0].Count)
	}
	last := publisher.Events[3]
	if last.Pin != 12 || last.Count != 1 {
		t.Errorf("event 3: got pin=%d count=%d, want pin=12 count=1", last.Pin, last.Count)
	}

	// Payloads are well-formed JSON with the flow envelope.
	var p mqtt.Payload
	if err := json.Unmarshal(publisher.Payloads[0], &p); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if p.Flow.Pin != 5 {
		t.Errorf("payload pin: got %d, want 5", p.Flow.Pin)
	}
}

// levels builds one frame with the given pins high.
func levels(high ...counter.Pin) []bool {
	l := make([]bool, counter.NumPins)
	for _, p := range high {
		l[p.Index()] = true
	}
	return l
}
