package mqtt

import (
	"testing"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2 := rb.drainAll()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	rb := newRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.push(queuedMsg{payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	// Items 0 and 1 were overwritten; 2, 3, 4 remain in order.
	for i, want := range []byte{2, 3, 4} {
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(4)
	if rb.len() != 0 {
		t.Errorf("empty len: got %d, want 0", rb.len())
	}
	rb.push(queuedMsg{})
	rb.push(queuedMsg{})
	if rb.len() != 2 {
		t.Errorf("len: got %d, want 2", rb.len())
	}
	for i := 0; i < 10; i++ {
		rb.push(queuedMsg{})
	}
	if rb.len() != 4 {
		t.Errorf("len at capacity: got %d, want 4", rb.len())
	}
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(queuedMsg{payload: []byte{1}})
	rb.drainAll()

	rb.push(queuedMsg{payload: []byte{9}})
	got := rb.drainAll()
	if len(got) != 1 || got[0].payload[0] != 9 {
		t.Errorf("reuse after drain failed: %v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(2)
	rb.push(queuedMsg{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %q", got[0].topic)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained flag lost")
	}
}
