// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
)

// Topic is the MQTT topic for periodic thermostat status records.
const Topic = "home/thermostat/status"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/thermostat/system"

// Publisher publishes thermostat state to MQTT.
type Publisher interface {
	// Publish sends one status record to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(record Record) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Record is one report-cycle status sample.
type Record struct {
	Timestamp   time.Time
	State       logic.Snapshot
	SensorFault string // last sensor error, empty when the last read succeeded
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Thermostat ThermostatPayload `json:"thermostat"`
}

// ThermostatPayload contains the status record details.
type ThermostatPayload struct {
	Timestamp   string `json:"timestamp"`
	Temperature int16  `json:"temperature"`
	Setpoint    int16  `json:"setpoint"`
	Heat        bool   `json:"heat"`
	Seconds     uint32 `json:"seconds"`
	SensorFault string `json:"sensor_fault,omitempty"`
}

// FormatPayload creates the JSON payload for a status record.
func FormatPayload(record Record) ([]byte, error) {
	payload := Payload{
		Thermostat: ThermostatPayload{
			Timestamp:   record.Timestamp.UTC().Format(time.RFC3339),
			Temperature: record.State.Temperature,
			Setpoint:    record.State.Setpoint,
			Heat:        record.State.Heat,
			Seconds:     record.State.Seconds,
			SensorFault: record.SensorFault,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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

// WillEvent is the retained last-will message the broker publishes when the
// connection drops without a clean disconnect.
func WillEvent(at time.Time) SystemEvent {
	return SystemEvent{
		Timestamp: at,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
		Retained:  true,
	}
}
