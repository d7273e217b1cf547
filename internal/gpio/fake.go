package gpio

import "errors"

// FakeReader is a test double that returns scripted level frames.
type FakeReader struct {
	// Frames contains scripted level samples, one per Read call, each in
	// pin order. When frames run out the last one is returned repeatedly.
	Frames [][]bool

	// index tracks current position in Frames
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given frames.
func NewFakeReader(frames [][]bool) *FakeReader {
	return &FakeReader{Frames: frames}
}

// Read returns the next scripted frame.
// If frames are exhausted, returns the last frame repeatedly.
func (f *FakeReader) Read() ([]bool, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Frames) == 0 {
		return nil, errors.New("no frames configured")
	}

	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}

	// Copy so callers cannot mutate the script.
	out := make([]bool, len(frame))
	copy(out, frame)
	return out, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of the frames.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeIndicator records every Set call for test assertions.
type FakeIndicator struct {
	// States contains the value of every Set call in order.
	States []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records the requested state.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// Current returns the most recently set state (false if never set).
func (f *FakeIndicator) Current() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}
