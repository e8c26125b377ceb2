// Package status provides a thread-safe status tracker for the thermostat daemon.
// It is read by the HTTP handlers and the metrics collector.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	BaseMs        int64
	ButtonMs      int64
	TemperatureMs int64
	ReportMs      int64
	HeartbeatMs   int64
	Sensor        string // sensor backend: i2c, modbus, fake
	Serial        string // report sink port; empty means stdout
	Broker        string
	HTTPPort      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Thermostat    logic.Snapshot
	Sensor        string // identified sensor, empty until found
	SensorFaults  int
	LastFault     string
	TaskRuns      map[string]uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
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
		},
	}
}

// Update sets the control state and task run counts.
// Called from the report task once per report cycle.
func (t *Tracker) Update(snap logic.Snapshot, taskRuns map[string]uint64) {
	runs := make(map[string]uint64, len(taskRuns))
	for k, v := range taskRuns {
		runs[k] = v
	}
	t.mu.Lock()
	t.snap.Thermostat = snap
	t.snap.TaskRuns = runs
	t.mu.Unlock()
}

// SetSensor records the identified sensor.
func (t *Tracker) SetSensor(desc string) {
	t.mu.Lock()
	t.snap.Sensor = desc
	t.mu.Unlock()
}

// SetSensorFault counts a failed sensor read. A nil error clears the last
// fault without counting.
func (t *Tracker) SetSensorFault(err error) {
	t.mu.Lock()
	if err == nil {
		t.snap.LastFault = ""
	} else {
		t.snap.SensorFaults++
		t.snap.LastFault = err.Error()
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.TaskRuns != nil {
		runs := make(map[string]uint64, len(s.TaskRuns))
		for k, v := range s.TaskRuns {
			runs[k] = v
		}
		s.TaskRuns = runs
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
