package serial

import (
	"fmt"
	"time"

	tarm "github.com/tarm/serial"
)

// Open opens the serial device the host is wired to. The read timeout
// keeps the polling loop from blocking on a quiet link; it should be well
// under the poll interval.
func Open(device string, baud int, readTimeout time.Duration) (Port, error) {
	c := &tarm.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}
	port, err := tarm.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return port, nil
}
