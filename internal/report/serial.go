package report

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the board's UART configuration.
const DefaultBaudRate = 115200

// listPorts is swapped out in tests.
var listPorts = serial.GetPortsList

// OpenSerial opens a serial port as the report sink (8N1, binary). When the
// port cannot be opened the error names the ports that do exist.
func OpenSerial(port string, baud int) (serial.Port, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s (available: %s): %w", port, availablePorts(), err)
	}
	return p, nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

func availablePorts() string {
	ports, err := Ports()
	if err != nil {
		return "unknown"
	}
	if len(ports) == 0 {
		return "none"
	}
	return strings.Join(ports, ", ")
}
