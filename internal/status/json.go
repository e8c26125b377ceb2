package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Temperature   int16             `json:"temperature"`
	Setpoint      int16             `json:"setpoint"`
	Heat          string            `json:"heat"`
	Seconds       uint32            `json:"seconds"`
	Sensor        SensorJSON        `json:"sensor"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	TaskRuns      map[string]uint64 `json:"task_runs,omitempty"`
	Network       *NetworkJSON      `json:"network,omitempty"`
	Config        ConfigJSON        `json:"config"`
}

// SensorJSON reports the temperature sensor state.
type SensorJSON struct {
	Device    string `json:"device"`
	Faults    int    `json:"faults"`
	LastFault string `json:"last_fault,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	BaseMs        int64  `json:"base_ms"`
	ButtonMs      int64  `json:"button_ms"`
	TemperatureMs int64  `json:"temperature_ms"`
	ReportMs      int64  `json:"report_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Sensor        string `json:"sensor"`
	Serial        string `json:"serial,omitempty"`
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
}

// HeatString renders the heat flag the way the page and JSON show it.
func HeatString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	device := snap.Sensor
	if device == "" {
		device = "UNKNOWN"
	}

	return StatusInner{
		Temperature: snap.Thermostat.Temperature,
		Setpoint:    snap.Thermostat.Setpoint,
		Heat:        HeatString(snap.Thermostat.Heat),
		Seconds:     snap.Thermostat.Seconds,
		Sensor: SensorJSON{
			Device:    device,
			Faults:    snap.SensorFaults,
			LastFault: snap.LastFault,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		TaskRuns:      snap.TaskRuns,
		Config: ConfigJSON{
			BaseMs:        snap.Config.BaseMs,
			ButtonMs:      snap.Config.ButtonMs,
			TemperatureMs: snap.Config.TemperatureMs,
			ReportMs:      snap.Config.ReportMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Sensor:        snap.Config.Sensor,
			Serial:        snap.Config.Serial,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
