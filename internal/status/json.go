package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/flow-counter/internal/counter"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Counters      []PinCount  `json:"counters"`
	Indicator     bool        `json:"indicator"`
	EdgesTotal    uint64      `json:"edges_total"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Serial        SerialState `json:"serial"`
	Config        ConfigJSON  `json:"config"`
}

// PinCount is one pin's running count.
type PinCount struct {
	Pin   int    `json:"pin"`
	Count uint64 `json:"count"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// SerialState reports the host link state.
type SerialState struct {
	Device string `json:"device"`
	Baud   int    `json:"baud"`
	OK     bool   `json:"ok"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	counters := make([]PinCount, 0, counter.NumPins)
	for _, p := range counter.Pins() {
		counters = append(counters, PinCount{Pin: int(p), Count: snap.Counts.Count(p)})
	}

	return StatusInner{
		Counters:      counters,
		Indicator:     snap.Counts.Indicator,
		EdgesTotal:    snap.Counts.Edges,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Serial: SerialState{
			Device: snap.Config.SerialDevice,
			Baud:   snap.Config.Baud,
			OK:     snap.SerialOK,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
