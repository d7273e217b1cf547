// Package serial provides the host-facing serial transport and the line
// framing for the command protocol. The real port is a tty opened at a
// fixed baud rate; the fake allows testing the protocol without hardware.
package serial

import (
	"errors"
	"io"
)

// Port is a byte-stream serial connection to the host. Reads are expected
// to time out rather than block indefinitely, so the polling loop can
// check for input once per tick. A timed-out read surfaces as (0, nil) or
// io.EOF depending on platform; LineReader treats both as "no data yet".
type Port interface {
	io.ReadWriteCloser
}

// DefaultBaud matches the rate the host client opens the link with.
const DefaultBaud = 9600

// maxLineLen bounds how much garbage between newlines is buffered. A valid
// command is at most four bytes; anything this long is line noise.
const maxLineLen = 64

// readChunk is the per-tick read size.
const readChunk = 256

// LineReader frames newline-terminated lines from a Port. Lines are handed
// out strictly in arrival order, at most one per Next call, so the loop
// consumes one command per iteration even when the host has several
// buffered.
type LineReader struct {
	port    Port
	partial []byte
	pending []string
	scratch [readChunk]byte
	// oversize marks that the current partial line blew past maxLineLen
	// and is being discarded up to the next newline.
	oversize bool
}

// NewLineReader creates a LineReader on the given port.
func NewLineReader(port Port) *LineReader {
	return &LineReader{port: port}
}

// Next returns the oldest complete line, without its trailing newline.
// It performs at most one port read per call and never blocks beyond the
// port's own read timeout. ok is false when no complete line is pending.
// A transport error is returned alongside ok=false; io.EOF from a timed-out
// read is not an error.
func (lr *LineReader) Next() (line string, ok bool, err error) {
	if len(lr.pending) == 0 {
		if err := lr.fill(); err != nil {
			return "", false, err
		}
	}

	if len(lr.pending) == 0 {
		return "", false, nil
	}

	line = lr.pending[0]
	lr.pending = lr.pending[1:]
	return line, true, nil
}

// fill reads once from the port and moves any completed lines to pending.
func (lr *LineReader) fill() error {
	n, err := lr.port.Read(lr.scratch[:])
	if n > 0 {
		lr.ingest(lr.scratch[:n])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (lr *LineReader) ingest(data []byte) {
	for _, b := range data {
		if b == '\n' {
			if lr.oversize {
				// End of a discarded garbage run.
				lr.oversize = false
				lr.partial = lr.partial[:0]
				continue
			}
			lr.pending = append(lr.pending, string(lr.partial))
			lr.partial = lr.partial[:0]
			continue
		}
		if lr.oversize {
			continue
		}
		if len(lr.partial) >= maxLineLen {
			lr.oversize = true
			lr.partial = lr.partial[:0]
			continue
		}
		lr.partial = append(lr.partial, b)
	}
}

// Buffered reports how many complete lines are waiting. Mostly useful in
// tests asserting the one-command-per-tick policy.
func (lr *LineReader) Buffered() int {
	return len(lr.pending)
}
