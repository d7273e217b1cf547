// Package gpio provides GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "github.com/sweeney/flow-counter/internal/counter"

// Reader reads the counted input lines.
type Reader interface {
	// Read returns one level per monitored pin, in pin order
	// (counter.MinPin first). true = high.
	Read() ([]bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Indicator drives the diagnostic output line that is toggled once per
// detected edge. Purely observational; not part of the host protocol.
type Indicator interface {
	Set(on bool) error
	Close() error
}

// DefaultIndicatorPin is the BCM pin for the diagnostic LED.
const DefaultIndicatorPin = 13

// InputPins returns the BCM numbers of the monitored lines, in pin order.
func InputPins() []int {
	pins := make([]int, 0, counter.NumPins)
	for _, p := range counter.Pins() {
		pins = append(pins, int(p))
	}
	return pins
}
