package serial

import (
	"errors"
	"strings"
	"testing"
)

func TestLineReaderSingleLine(t *testing.T) {
	port := NewFakePort()
	port.Feed("r5\n")
	lr := NewLineReader(port)

	line, ok, err := lr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a line")
	}
	if line != "r5" {
		t.Errorf("line: got %q, want %q", line, "r5")
	}

	// Nothing else pending.
	_, ok, err = lr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no further line")
	}
}

func TestLineReaderOnePerCallFIFO(t *testing.T) {
	port := NewFakePort()
	port.Feed("r2\nc3\nr4\n")
	lr := NewLineReader(port)

	want := []string{"r2", "c3", "r4"}
	for i, w := range want {
		line, ok, err := lr.Next()
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if !ok {
			t.Fatalf("call %d: expected a line", i)
		}
		if line != w {
			t.Errorf("call %d: got %q, want %q", i, line, w)
		}
	}

	if _, ok, _ := lr.Next(); ok {
		t.Error("expected exhaustion after 3 lines")
	}
}

func TestLineReaderBufferedCount(t *testing.T) {
	port := NewFakePort()
	port.Feed("r2\nr3\nr4\n")
	lr := NewLineReader(port)

	// First Next consumes the whole port buffer but yields one line.
	_, ok, _ := lr.Next()
	if !ok {
		t.Fatal("expected a line")
	}
	if got := lr.Buffered(); got != 2 {
		t.Errorf("buffered: got %d, want 2", got)
	}
}

func TestLineReaderPartialLine(t *testing.T) {
	port := NewFakePort()
	port.Feed("r1")
	lr := NewLineReader(port)

	// Incomplete line: nothing yet.
	if _, ok, _ := lr.Next(); ok {
		t.Fatal("expected no line for partial input")
	}

	// Rest of the line arrives on a later tick.
	port.Feed("2\n")
	line, ok, err := lr.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected completed line")
	}
	if line != "r12" {
		t.Errorf("line: got %q, want %q", line, "r12")
	}
}

func TestLineReaderQuietPort(t *testing.T) {
	lr := NewLineReader(NewFakePort())

	// A timed-out read (io.EOF from the fake) is not an error.
	_, ok, err := lr.Next()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no line")
	}
}

func TestLineReaderTransportError(t *testing.T) {
	port := NewFakePort()
	port.SetReadError(errors.New("device unplugged"))
	lr := NewLineReader(port)

	_, ok, err := lr.Next()
	if err == nil {
		t.Fatal("expected transport error")
	}
	if ok {
		t.Error("expected no line alongside error")
	}

	// Error cleared; the reader keeps working afterwards.
	port.Feed("c7\n")
	line, ok, err := lr.Next()
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if !ok || line != "c7" {
		t.Errorf("after recovery: got %q ok=%v, want %q", line, ok, "c7")
	}
}

func TestLineReaderDiscardsOversizeGarbage(t *testing.T) {
	port := NewFakePort()
	port.Feed(strings.Repeat("x", 500) + "\nr5\n")
	lr := NewLineReader(port)

	// The garbage run spans several per-tick reads.
	var line string
	var ok bool
	var err error
	for i := 0; i < 10 && !ok; i++ {
		line, ok, err = lr.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !ok {
		t.Fatal("expected a line after garbage run")
	}
	if line != "r5" {
		t.Errorf("line: got %q, want %q", line, "r5")
	}
}

func TestLineReaderEmptyLine(t *testing.T) {
	port := NewFakePort()
	port.Feed("\nr5\n")
	lr := NewLineReader(port)

	// The empty line is still delivered; the interpreter decides to drop it.
	line, ok, _ := lr.Next()
	if !ok || line != "" {
		t.Errorf("first: got %q ok=%v, want empty line", line, ok)
	}
	line, ok, _ = lr.Next()
	if !ok || line != "r5" {
		t.Errorf("second: got %q ok=%v, want %q", line, ok, "r5")
	}
}

func TestFakePortWrites(t *testing.T) {
	port := NewFakePort()

	port.Write([]byte("7\n"))
	port.Write([]byte("0\n"))

	if calls := port.WriteCalls(); len(calls) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(calls))
	}
	if port.Written() != "7\n0\n" {
		t.Errorf("written: got %q, want %q", port.Written(), "7\n0\n")
	}
}

func TestFakePortClose(t *testing.T) {
	port := NewFakePort()
	if err := port.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !port.Closed() {
		t.Error("expected Closed()=true")
	}
}
