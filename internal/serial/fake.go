package serial

import (
	"io"
	"sync"
)

// FakePort is a test double for the host side of the serial link. Bytes
// queued with Feed are returned by Read; everything the device writes is
// recorded in Writes. Safe for concurrent use, so tests can feed input
// while a loop goroutine is reading.
type FakePort struct {
	mu sync.Mutex

	// input holds bytes not yet consumed by Read.
	input []byte

	// writes contains one entry per Write call.
	writes [][]byte

	// closed tracks if Close was called.
	closed bool

	// readErr, if set, is returned by Read once and then cleared.
	readErr error

	// writeErr, if set, is returned by Write.
	writeErr error
}

// NewFakePort creates an empty FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Feed queues bytes for the device to read, as if the host had sent them.
func (f *FakePort) Feed(data string) {
	f.mu.Lock()
	f.input = append(f.input, data...)
	f.mu.Unlock()
}

// SetReadError makes the next Read fail once.
func (f *FakePort) SetReadError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// SetWriteError makes every Write fail.
func (f *FakePort) SetWriteError(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// Read drains queued input. An empty queue behaves like a timed-out port
// read and returns io.EOF.
func (f *FakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		err := f.readErr
		f.readErr = nil
		return 0, err
	}
	if len(f.input) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.input)
	f.input = f.input[n:]
	return n, nil
}

// Write records the written bytes.
func (f *FakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return 0, f.writeErr
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

// WriteCalls returns a copy of the recorded writes, one entry per Write.
func (f *FakePort) WriteCalls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// Written returns everything written so far as one string.
func (f *FakePort) Written() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return string(out)
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakePort) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
