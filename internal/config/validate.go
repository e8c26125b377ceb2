package config

import (
	"fmt"
	"math"
	"time"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	s := cfg.Schedule
	if s.Base <= 0 {
		return fmt.Errorf("schedule.base must be > 0, got %v", s.Base)
	}
	for _, p := range []struct {
		name   string
		period time.Duration
	}{
		{"button", s.Button},
		{"temperature", s.Temperature},
		{"report", s.Report},
	} {
		if p.period <= 0 {
			return fmt.Errorf("schedule.%s must be > 0, got %v", p.name, p.period)
		}
		if p.period%s.Base != 0 {
			return fmt.Errorf("schedule.%s %v is not a multiple of base %v", p.name, p.period, s.Base)
		}
	}

	if cfg.Setpoint < math.MinInt16 || cfg.Setpoint > math.MaxInt16 {
		return fmt.Errorf("setpoint %d out of range", cfg.Setpoint)
	}

	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be > 0, got %d", cfg.Serial.Baud)
	}

	pins := map[string]int{
		"pin_up":   cfg.GPIO.PinUp,
		"pin_down": cfg.GPIO.PinDown,
		"pin_heat": cfg.GPIO.PinHeat,
	}
	owner := make(map[int]string)
	for _, name := range []string{"pin_up", "pin_down", "pin_heat"} {
		pin := pins[name]
		if pin < 0 {
			return fmt.Errorf("gpio.%s must be >= 0, got %d", name, pin)
		}
		if prev, ok := owner[pin]; ok {
			return fmt.Errorf("gpio.%s and gpio.%s share line %d", prev, name, pin)
		}
		owner[pin] = name
	}

	switch cfg.Sensor.Kind {
	case SensorI2C:
	case SensorFake:
		if len(cfg.Sensor.Fake) == 0 {
			return fmt.Errorf("sensor.fake requires at least one reading")
		}
	case SensorModbus:
		m := cfg.Sensor.Modbus
		if m.Endpoint == "" {
			return fmt.Errorf("sensor.modbus.endpoint is required")
		}
		if len(m.Units) == 0 {
			return fmt.Errorf("sensor.modbus.units requires at least one unit id")
		}
		for _, u := range m.Units {
			if u < 0 || u > 247 {
				return fmt.Errorf("sensor.modbus.units: unit id %d out of range 0-247", u)
			}
		}
	default:
		return fmt.Errorf("sensor.kind %q is not one of i2c, modbus, fake", cfg.Sensor.Kind)
	}

	if cfg.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt.heartbeat must be >= 0, got %v", cfg.MQTT.Heartbeat)
	}

	return nil
}
