// Package config loads the thermostat configuration from YAML. Command-line
// flags are layered on top by the caller.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sensor kinds.
const (
	SensorI2C    = "i2c"
	SensorModbus = "modbus"
	SensorFake   = "fake"
)

// Config represents the application configuration.
type Config struct {
	Setpoint int            `yaml:"setpoint"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Serial   SerialConfig   `yaml:"serial"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Sensor   SensorConfig   `yaml:"sensor"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// ScheduleConfig holds the base tick and task cadences.
type ScheduleConfig struct {
	Base        time.Duration `yaml:"base"`
	Button      time.Duration `yaml:"button"`
	Temperature time.Duration `yaml:"temperature"`
	Report      time.Duration `yaml:"report"`
}

// SerialConfig contains the report sink configuration. An empty port writes
// records to stdout.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	Echo bool   `yaml:"echo"` // also copy records to stdout
}

// GPIOConfig contains the button and heat indicator lines.
type GPIOConfig struct {
	Chip     string        `yaml:"chip"`
	PinUp    int           `yaml:"pin_up"`
	PinDown  int           `yaml:"pin_down"`
	PinHeat  int           `yaml:"pin_heat"`
	Debounce time.Duration `yaml:"debounce"`
}

// SensorConfig selects the temperature sensor backend.
type SensorConfig struct {
	Kind   string       `yaml:"kind"`
	Fake   []int        `yaml:"fake"` // readings cycled by the fake sensor
	Modbus ModbusConfig `yaml:"modbus"`
}

// ModbusConfig contains the Modbus TCP sensor parameters.
type ModbusConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Units    []int         `yaml:"units"`
	Register uint16        `yaml:"register"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// HTTPConfig contains the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration the board ships with.
func Default() *Config {
	return &Config{
		Setpoint: 30,
		Schedule: ScheduleConfig{
			Base:        100 * time.Millisecond,
			Button:      200 * time.Millisecond,
			Temperature: 500 * time.Millisecond,
			Report:      1000 * time.Millisecond,
		},
		Serial: SerialConfig{
			Baud: 115200,
		},
		GPIO: GPIOConfig{
			Chip:     "gpiochip0",
			PinUp:    17,
			PinDown:  27,
			PinHeat:  22,
			Debounce: 50 * time.Millisecond,
		},
		Sensor: SensorConfig{
			Kind: SensorI2C,
			Fake: []int{25},
			Modbus: ModbusConfig{
				Endpoint: "127.0.0.1:502",
				Units:    []int{1},
				Register: 0,
				Timeout:  time.Second,
			},
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://192.168.1.200:1883",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills zero values left by a partial file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Schedule.Base == 0 {
		c.Schedule.Base = def.Schedule.Base
	}
	if c.Schedule.Button == 0 {
		c.Schedule.Button = def.Schedule.Button
	}
	if c.Schedule.Temperature == 0 {
		c.Schedule.Temperature = def.Schedule.Temperature
	}
	if c.Schedule.Report == 0 {
		c.Schedule.Report = def.Schedule.Report
	}

	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.Debounce == 0 {
		c.GPIO.Debounce = def.GPIO.Debounce
	}

	if c.Sensor.Kind == "" {
		c.Sensor.Kind = def.Sensor.Kind
	}
	if len(c.Sensor.Fake) == 0 {
		c.Sensor.Fake = def.Sensor.Fake
	}
	if c.Sensor.Modbus.Endpoint == "" {
		c.Sensor.Modbus.Endpoint = def.Sensor.Modbus.Endpoint
	}
	if len(c.Sensor.Modbus.Units) == 0 {
		c.Sensor.Modbus.Units = def.Sensor.Modbus.Units
	}
	if c.Sensor.Modbus.Timeout == 0 {
		c.Sensor.Modbus.Timeout = def.Sensor.Modbus.Timeout
	}
}

// ModbusUnits returns the configured unit IDs as bytes. Validate has already
// checked their range.
func (c *Config) ModbusUnits() []byte {
	out := make([]byte, 0, len(c.Sensor.Modbus.Units))
	for _, u := range c.Sensor.Modbus.Units {
		out = append(out, byte(u))
	}
	return out
}

// FakeReadings returns the fake sensor script in degrees Celsius.
func (c *Config) FakeReadings() []int16 {
	out := make([]int16, 0, len(c.Sensor.Fake))
	for _, v := range c.Sensor.Fake {
		out = append(out, int16(v))
	}
	return out
}
