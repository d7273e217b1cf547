// Package mqtt provides telemetry publishing with abstraction for testing.
// The serial protocol is the device's contract; MQTT is a sidecar feed so
// counts and lifecycle events reach a broker without polling the link.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for flow edge events.
const Topic = "water/flow-counter/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "water/flow-counter/system"

// EdgeEvent reports one counter advance.
type EdgeEvent struct {
	Timestamp time.Time
	Pin       int
	Count     uint64 // count after the edge
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a flow edge event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event EdgeEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the edge event message structure.
type Payload struct {
	Flow FlowPayload `json:"flow"`
}

// FlowPayload contains the edge event details.
type FlowPayload struct {
	Timestamp string `json:"timestamp"`
	Pin       int    `json:"pin"`
	Count     uint64 `json:"count"`
}

// FormatPayload creates the JSON payload for an edge event.
func FormatPayload(event EdgeEvent) ([]byte, error) {
	payload := Payload{
		Flow: FlowPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Pin:       event.Pin,
			Count:     event.Count,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the message structure for simple system events that do
// not carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
