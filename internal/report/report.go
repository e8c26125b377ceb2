// Package report formats the serial status records and writes them to the
// report sink.
package report

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/sweeney/thermostat/internal/logic"
)

// LineEnd terminates every record. Downstream log consumers expect "\n\r".
const LineEnd = "\n\r"

// FormatStatus returns the fixed-pattern status record <TT,SS,H,NNNN>.
func FormatStatus(snap logic.Snapshot) []byte {
	heat := 0
	if snap.Heat {
		heat = 1
	}
	return []byte(fmt.Sprintf("<%02d,%02d,%d,%04d>%s", snap.Temperature, snap.Setpoint, heat, snap.Seconds, LineEnd))
}

// PowerCycleHint follows every error record on the sink.
const PowerCycleHint = "Please power cycle your board by unplugging USB and plugging back in." + LineEnd

// FormatError returns the record written when a sensor read fails.
func FormatError(err error) []byte {
	return []byte(fmt.Sprintf("Error reading temperature sensor (%v)%s", err, LineEnd))
}

// Reporter writes records to a sink. Writes are serialized so startup
// narration and loop output never interleave.
type Reporter struct {
	mu   sync.Mutex
	sink io.Writer
}

// New creates a Reporter writing to sink.
func New(sink io.Writer) *Reporter {
	return &Reporter{sink: sink}
}

// Status writes one status record.
func (r *Reporter) Status(snap logic.Snapshot) error {
	return r.write(FormatStatus(snap))
}

// ReportFault writes an error record and the power-cycle hint in one write.
// It satisfies logic.FaultReporter.
func (r *Reporter) ReportFault(err error) {
	rec := append(FormatError(err), PowerCycleHint...)
	if werr := r.write(rec); werr != nil {
		log.Printf("report fault: %v", werr)
	}
}

// Printf writes free-form narration (startup messages).
func (r *Reporter) Printf(format string, args ...interface{}) {
	if err := r.write([]byte(fmt.Sprintf(format, args...))); err != nil {
		log.Printf("report: %v", err)
	}
}

// Write lets the Reporter be used as an io.Writer (probe traces).
func (r *Reporter) Write(p []byte) (int, error) {
	if err := r.write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (r *Reporter) write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.sink.Write(p); err != nil {
		return fmt.Errorf("write report sink: %w", err)
	}
	return nil
}
