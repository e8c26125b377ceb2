package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sweeney/thermostat/internal/logic"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		snap logic.Snapshot
		want string
	}{
		{logic.Snapshot{Temperature: 25, Setpoint: 30, Heat: true, Seconds: 7}, "<25,30,1,0007>\n\r"},
		{logic.Snapshot{Temperature: 5, Setpoint: 9, Heat: false, Seconds: 0}, "<05,09,0,0000>\n\r"},
		{logic.Snapshot{Temperature: 31, Setpoint: 30, Heat: false, Seconds: 12345}, "<31,30,0,12345>\n\r"},
		{logic.Snapshot{Temperature: -1, Setpoint: 30, Heat: true, Seconds: 42}, "<-1,30,1,0042>\n\r"},
	}

	for _, tt := range tests {
		if got := string(FormatStatus(tt.snap)); got != tt.want {
			t.Errorf("FormatStatus(%+v): got %q, want %q", tt.snap, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	got := string(FormatError(errors.New("nack")))
	if got != "Error reading temperature sensor (nack)\n\r" {
		t.Errorf("FormatError: got %q", got)
	}
}

func TestReporterWrites(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Printf("Initializing I2C Driver - ")
	r.Printf("Passed%s", LineEnd)
	if err := r.Status(logic.Snapshot{Temperature: 21, Setpoint: 22, Heat: true, Seconds: 3}); err != nil {
		t.Fatalf("Status: %v", err)
	}
	r.ReportFault(errors.New("bus timeout"))

	want := "Initializing I2C Driver - Passed\n\r" +
		"<21,22,1,0003>\n\r" +
		"Error reading temperature sensor (bus timeout)\n\r" +
		"Please power cycle your board by unplugging USB and plugging back in.\n\r"
	if buf.String() != want {
		t.Errorf("sink: got %q, want %q", buf.String(), want)
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("port gone") }

func TestReporterSinkError(t *testing.T) {
	r := New(failWriter{})

	err := r.Status(logic.Snapshot{})
	if err == nil || !strings.Contains(err.Error(), "port gone") {
		t.Errorf("Status: got %v", err)
	}

	// Must not panic
	r.ReportFault(errors.New("x"))
	r.Printf("hello")

	if n, err := r.Write([]byte("abc")); err == nil || n != 0 {
		t.Errorf("Write: got (%d, %v)", n, err)
	}
}

func TestReporterAsWriter(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	n, err := r.Write([]byte("Is this 116? "))
	if err != nil || n != 13 {
		t.Fatalf("Write: got (%d, %v)", n, err)
	}
	if buf.String() != "Is this 116? " {
		t.Errorf("sink: got %q", buf.String())
	}
}
