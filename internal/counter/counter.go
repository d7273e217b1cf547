// Package counter contains the pure edge-counting core for the flow meter
// lines. This package has NO external dependencies (no GPIO, serial, OS, or
// time.Sleep). Level samples are always passed in by the caller.
package counter

import (
	"errors"
	"fmt"
)

// Monitored pin range. Pins 0 and 1 are reserved for the serial link and
// anything above MaxPin is not wired to a meter.
const (
	MinPin = 2
	MaxPin = 12

	// NumPins is the number of monitored lines.
	NumPins = MaxPin - MinPin + 1
)

// ErrPinOutOfRange is returned when a pin number falls outside [MinPin, MaxPin].
var ErrPinOutOfRange = errors.New("pin out of range")

// Pin identifies one monitored input line. A Pin obtained from ParsePin is
// always within the valid range.
type Pin int

// ParsePin validates a raw pin number.
func ParsePin(n int) (Pin, error) {
	if n < MinPin || n > MaxPin {
		return 0, fmt.Errorf("%w: %d (valid %d-%d)", ErrPinOutOfRange, n, MinPin, MaxPin)
	}
	return Pin(n), nil
}

// Index returns the zero-based slot of the pin in a levels or counts slice.
func (p Pin) Index() int {
	return int(p) - MinPin
}

// Pins returns all monitored pins in polling order (MinPin..MaxPin).
func Pins() []Pin {
	pins := make([]Pin, NumPins)
	for i := range pins {
		pins[i] = Pin(MinPin + i)
	}
	return pins
}

// Edge describes one detected level transition.
type Edge struct {
	Pin   Pin
	Count uint64 // count after this edge
	// Indicator is the diagnostic indicator state after this edge's toggle.
	Indicator bool
}

// lineState is the per-pin counter state.
type lineState struct {
	lastLevel bool
	count     uint64
}

// Bank owns the counter state for all monitored pins plus the diagnostic
// indicator bit. It is the only place this state lives: PollAll and Clear
// are its only mutators. Not safe for concurrent use — the polling loop is
// strictly sequential.
type Bank struct {
	lines     [NumPins]lineState
	indicator bool
	edges     uint64
}

// NewBank creates a Bank from one initial level sample, so that the first
// poll does not count the startup levels as transitions. Counts start at 0.
// levels[i] is the level of pin MinPin+i; missing trailing levels default
// to low.
func NewBank(levels []bool) *Bank {
	b := &Bank{}
	for i := range b.lines {
		if i < len(levels) {
			b.lines[i].lastLevel = levels[i]
		}
	}
	return b
}

// PollAll compares one level sample against the stored levels in pin order
// MinPin→MaxPin. Every mismatch counts as exactly one edge: the count
// advances, the new level is stored, and the indicator toggles once. No
// debounce window or hysteresis is applied; raw level changes count.
// Returns the edges detected in this poll, in pin order.
func (b *Bank) PollAll(levels []bool) []Edge {
	var edges []Edge
	for i := range b.lines {
		if i >= len(levels) {
			break
		}
		if levels[i] == b.lines[i].lastLevel {
			continue
		}
		b.lines[i].lastLevel = levels[i]
		b.lines[i].count++
		b.edges++
		b.indicator = !b.indicator
		edges = append(edges, Edge{
			Pin:       Pin(MinPin + i),
			Count:     b.lines[i].count,
			Indicator: b.indicator,
		})
	}
	return edges
}

// Read returns the current count for a pin.
func (b *Bank) Read(p Pin) uint64 {
	return b.lines[p.Index()].count
}

// Clear resets a pin's count to 0. The stored level is untouched, so a
// level change across the clear still counts as one edge.
func (b *Bank) Clear(p Pin) {
	b.lines[p.Index()].count = 0
}

// Indicator returns the current indicator state: (total edges) mod 2.
func (b *Bank) Indicator() bool {
	return b.indicator
}

// Edges returns the total number of edges detected since startup, across
// all pins. Clear does not rewind it.
func (b *Bank) Edges() uint64 {
	return b.edges
}

// Snapshot is a value-type copy of the bank state, safe to hand to other
// goroutines (status tracker, telemetry).
type Snapshot struct {
	Counts    [NumPins]uint64
	Indicator bool
	Edges     uint64
}

// Count returns the snapshot count for a pin.
func (s Snapshot) Count(p Pin) uint64 {
	return s.Counts[p.Index()]
}

// Snapshot returns a point-in-time copy of all counts and the indicator.
func (b *Bank) Snapshot() Snapshot {
	var s Snapshot
	for i := range b.lines {
		s.Counts[i] = b.lines[i].count
	}
	s.Indicator = b.indicator
	s.Edges = b.edges
	return s
}
