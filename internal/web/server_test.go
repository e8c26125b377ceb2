package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
	"github.com/sweeney/thermostat/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		BaseMs:        100,
		ButtonMs:      200,
		TemperatureMs: 500,
		ReportMs:      1000,
		HeartbeatMs:   900000,
		Sensor:        "i2c",
		Broker:        "tcp://192.168.1.200:1883",
		HTTPPort:      ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Snapshot{Temperature: 25, Setpoint: 30, Heat: true, Seconds: 17},
		map[string]uint64{"button": 85, "temperature": 34, "report": 17})
	tr.SetSensor("i2c TMP116@0x49")
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Temperature != 25 {
		t.Errorf("Temperature: got %d, want 25", sj.Status.Temperature)
	}
	if sj.Status.Setpoint != 30 {
		t.Errorf("Setpoint: got %d, want 30", sj.Status.Setpoint)
	}
	if sj.Status.Heat != "ON" {
		t.Errorf("Heat: got %q, want ON", sj.Status.Heat)
	}
	if sj.Status.Seconds != 17 {
		t.Errorf("Seconds: got %d, want 17", sj.Status.Seconds)
	}
	if sj.Status.Sensor.Device != "i2c TMP116@0x49" {
		t.Errorf("Sensor.Device: got %q", sj.Status.Sensor.Device)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.TaskRuns["button"] != 85 {
		t.Errorf("TaskRuns[button]: got %d, want 85", sj.Status.TaskRuns["button"])
	}
	if sj.Status.Config.ReportMs != 1000 {
		t.Errorf("Config.ReportMs: got %d, want 1000", sj.Status.Config.ReportMs)
	}
}

func TestJSONUnknownSensorBeforeIdentify(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	json.Unmarshal([]byte(body), &sj)

	if sj.Status.Sensor.Device != "UNKNOWN" {
		t.Errorf("Sensor.Device: got %q, want UNKNOWN", sj.Status.Sensor.Device)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	json.Unmarshal([]byte(body), &sj)

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Snapshot{Temperature: 21, Setpoint: 22, Heat: true}, map[string]uint64{"report": 3})
	tr.SetSensorFault(errors.New("sensor transaction failed: nack"))

	resp, body := get(t, ts.URL+"/")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	for _, want := range []string{
		"<title>Thermostat</title>",
		`<td id="temperature">21 &deg;C</td>`,
		`<td id="setpoint">22 &deg;C</td>`,
		`class="on">ON</td>`,
		"sensor transaction failed: nack",
		"every 1000ms, 3 runs",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/index.html")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "UNKNOWN") {
		t.Error("unidentified sensor should render as UNKNOWN")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := get(t, ts.URL+"/nonexistent")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	_, body1 := get(t, ts.URL+"/index.json")
	var sj1 status.StatusJSON
	json.Unmarshal([]byte(body1), &sj1)
	if sj1.Status.Heat != "OFF" {
		t.Errorf("expected Heat=OFF initially, got %q", sj1.Status.Heat)
	}

	tr.Update(logic.Snapshot{Temperature: 19, Setpoint: 20, Heat: true}, nil)
	tr.SetMQTTConnected(true)

	_, body2 := get(t, ts.URL+"/index.json")
	var sj2 status.StatusJSON
	json.Unmarshal([]byte(body2), &sj2)

	if sj2.Status.Heat != "ON" {
		t.Errorf("Heat: got %q, want ON", sj2.Status.Heat)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Snapshot{Temperature: -3, Setpoint: 30, Heat: true, Seconds: 42},
		map[string]uint64{"button": 210, "temperature": 84, "report": 42})
	tr.SetSensorFault(errors.New("nack"))
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	for _, want := range []string{
		"thermostat_temperature_celsius -3",
		"thermostat_setpoint_celsius 30",
		"thermostat_heat_active 1",
		"thermostat_elapsed_seconds 42",
		"thermostat_mqtt_connected 1",
		"thermostat_sensor_faults_total 1",
		`thermostat_scheduler_task_runs_total{task="button"} 210`,
		`thermostat_scheduler_task_runs_total{task="report"} 42`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsBeforeFirstReport(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/metrics")
	if !strings.Contains(body, "thermostat_heat_active 0") {
		t.Error("expected heat_active 0 before first report")
	}
	if strings.Contains(body, "thermostat_scheduler_task_runs_total{") {
		t.Error("no task series expected before first report")
	}
}
