// Package status provides a thread-safe status tracker for the flow-counter
// daemon. The polling loop writes to it; HTTP handlers and telemetry read
// point-in-time snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/flow-counter/internal/counter"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	HeartbeatMs  int64
	Broker       string
	HTTPAddr     string
	SerialDevice string
	Baud         int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Counts        counter.Snapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	SerialOK      bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			SerialOK:  true,
		},
	}
}

// Update sets the counter snapshot. Called from the loop on every tick.
func (t *Tracker) Update(counts counter.Snapshot) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetSerialOK records whether the last serial port read succeeded.
func (t *Tracker) SetSerialOK(ok bool) {
	t.mu.Lock()
	t.snap.SerialOK = ok
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
