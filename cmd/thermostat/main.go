// Command thermostat runs the setpoint and heat control loop, reports status
// records over a serial link and publishes state to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/thermostat/internal/config"
	"github.com/sweeney/thermostat/internal/gpio"
	"github.com/sweeney/thermostat/internal/logic"
	"github.com/sweeney/thermostat/internal/mqtt"
	"github.com/sweeney/thermostat/internal/report"
	"github.com/sweeney/thermostat/internal/sensor"
	"github.com/sweeney/thermostat/internal/status"
	"github.com/sweeney/thermostat/internal/tick"
	"github.com/sweeney/thermostat/internal/web"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", "/etc/thermostat/config.yaml", "YAML config file (missing file uses defaults)")
	serialPort := flag.String("serial", def.Serial.Port, "Serial port for status records (empty for stdout)")
	baud := flag.Int("baud", def.Serial.Baud, "Serial baud rate")
	echo := flag.Bool("echo", def.Serial.Echo, "Also copy status records to stdout")
	sensorKind := flag.String("sensor", def.Sensor.Kind, "Temperature sensor backend: i2c, modbus or fake")
	modbusAddr := flag.String("modbus", def.Sensor.Modbus.Endpoint, "Modbus TCP sensor endpoint (host:port)")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", def.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	pinUp := flag.Int("pin-up", gpio.DefaultPinUp, "BCM pin number for the setpoint increase button")
	pinDown := flag.Int("pin-down", gpio.DefaultPinDown, "BCM pin number for the setpoint decrease button")
	pinHeat := flag.Int("pin-heat", gpio.DefaultPinHeat, "BCM pin number for the heat indicator")
	setpoint := flag.Int("setpoint", def.Setpoint, "Initial setpoint in degrees Celsius")
	printState := flag.Bool("print-state", false, "Print current temperature and setpoint and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Flags given on the command line override the file.
	overrides := map[string]func(){
		"serial":    func() { cfg.Serial.Port = *serialPort },
		"baud":      func() { cfg.Serial.Baud = *baud },
		"echo":      func() { cfg.Serial.Echo = *echo },
		"sensor":    func() { cfg.Sensor.Kind = *sensorKind },
		"modbus":    func() { cfg.Sensor.Modbus.Endpoint = *modbusAddr },
		"broker":    func() { cfg.MQTT.Broker = *broker },
		"http":      func() { cfg.HTTP.Addr = *httpAddr },
		"heartbeat": func() { cfg.MQTT.Heartbeat = *heartbeat },
		"pin-up":    func() { cfg.GPIO.PinUp = *pinUp },
		"pin-down":  func() { cfg.GPIO.PinDown = *pinDown },
		"pin-heat":  func() { cfg.GPIO.PinHeat = *pinHeat },
		"setpoint":  func() { cfg.Setpoint = *setpoint },
	}
	flag.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	// Report sink
	var sink io.Writer = os.Stdout
	if cfg.Serial.Port != "" {
		port, err := report.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		defer port.Close()
		sink = port
		if cfg.Serial.Echo {
			sink = io.MultiWriter(port, os.Stdout)
		}
	}
	reporter := report.New(sink)

	// Temperature sensor
	sens, closeSensor, err := openSensor(cfg, reporter)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer closeSensor()

	desc, err := sens.Identify()
	if err != nil && !errors.Is(err, sensor.ErrNotFound) {
		return fmt.Errorf("identify sensor: %w", err)
	}
	found := err == nil
	if found {
		log.Printf("sensor: %s", desc)
	} else {
		log.Printf("sensor: %v", err)
	}
	therm := sensor.NewThermometer(sens)

	// Print state mode
	if printState {
		t, err := therm.ReadCelsius()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("Temperature: %d, Setpoint: %d\n", t, cfg.Setpoint)
		return nil
	}

	// GPIO
	heatOut, err := gpio.NewRealOutput(cfg.GPIO.Chip, cfg.GPIO.PinHeat)
	if err != nil {
		return fmt.Errorf("init gpio output: %w", err)
	}
	defer heatOut.Close()
	indicateStartup(heatOut)

	state := logic.NewState(int16(cfg.Setpoint))

	buttons := gpio.NewRealInterrupts(cfg.GPIO.Chip, cfg.GPIO.Debounce)
	defer buttons.Close()
	if err := enableButtons(buttons, state, cfg.GPIO.PinUp, cfg.GPIO.PinDown); err != nil {
		return fmt.Errorf("init gpio buttons: %w", err)
	}

	// Status tracker
	tracker := status.NewTracker(time.Now(), status.Config{
		BaseMs:        cfg.Schedule.Base.Milliseconds(),
		ButtonMs:      cfg.Schedule.Button.Milliseconds(),
		TemperatureMs: cfg.Schedule.Temperature.Milliseconds(),
		ReportMs:      cfg.Schedule.Report.Milliseconds(),
		HeartbeatMs:   cfg.MQTT.Heartbeat.Milliseconds(),
		Sensor:        cfg.Sensor.Kind,
		Serial:        cfg.Serial.Port,
		Broker:        cfg.MQTT.Broker,
		HTTPPort:      cfg.HTTP.Addr,
	})
	if found {
		tracker.SetSensor(desc.String())
	}
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// MQTT
	var publisher *mqtt.Async
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewAsync(mqtt.NewRealPublisher(cfg.MQTT.Broker, mqtt.BufferCapacity(cfg.Schedule.Report)), 64)
		defer publisher.Close()

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		publisher.PublishSystem(startup)
		log.Printf("queued startup event")
	}

	// HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	deps := controllerDeps{
		State:     state,
		Therm:     therm,
		Heat:      heatOut,
		Reporter:  reporter,
		Tracker:   tracker,
		Heartbeat: cfg.MQTT.Heartbeat,
	}
	if publisher != nil {
		deps.Publisher = publisher
		deps.MQTTStatus = publisher
	}
	ctl, err := newController(cadences{
		Base:        cfg.Schedule.Base,
		Button:      cfg.Schedule.Button,
		Temperature: cfg.Schedule.Temperature,
		Report:      cfg.Schedule.Report,
	}, deps)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ticker := tick.NewTicker()
	if err := ticker.Start(cfg.Schedule.Base, state.TickElapsed); err != nil {
		return fmt.Errorf("init tick source: %w", err)
	}
	defer ticker.Stop()

	log.Printf("started: base=%v button=%v temperature=%v report=%v setpoint=%d sensor=%s broker=%s heartbeat=%v",
		cfg.Schedule.Base, cfg.Schedule.Button, cfg.Schedule.Temperature, cfg.Schedule.Report,
		cfg.Setpoint, cfg.Sensor.Kind, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctl, sigCh)
}

// openSensor builds the configured sensor backend. Startup narration goes to
// the report sink.
func openSensor(cfg *config.Config, reporter *report.Reporter) (sensor.Sensor, func(), error) {
	switch cfg.Sensor.Kind {
	case config.SensorI2C:
		reporter.Printf("Initializing I2C Driver - ")
		bus, err := sensor.OpenI2CBus()
		if err != nil {
			reporter.Printf("Failed%s", report.LineEnd)
			return nil, nil, err
		}
		reporter.Printf("Passed%s", report.LineEnd)
		s := sensor.NewI2CSensor(bus, sensor.DefaultCandidates)
		s.Trace = reporter
		return s, func() { bus.Close() }, nil

	case config.SensorModbus:
		m := cfg.Sensor.Modbus
		s, err := sensor.DialModbus(sensor.ModbusConfig{
			Endpoint: m.Endpoint,
			Units:    cfg.ModbusUnits(),
			Register: m.Register,
			Timeout:  m.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		s.Trace = reporter
		return s, func() { s.Close() }, nil

	case config.SensorFake:
		return sensor.NewFakeSensor(cfg.FakeReadings()...), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown sensor kind %q", cfg.Sensor.Kind)
}

// indicateStartup lights the heat indicator until the first temperature check
// drives it.
func indicateStartup(out logic.Actuator) {
	if err := out.Set(true); err != nil {
		log.Printf("heat indicator: %v", err)
	}
}

// enableButtons wires the button lines to the edge flags. The callbacks only
// raise a flag; the setpoint machine does the adjustment.
func enableButtons(irq gpio.Interrupts, state *logic.State, pinUp, pinDown int) error {
	if err := irq.RegisterCallback(pinUp, func(int) { state.RequestIncrease() }); err != nil {
		return fmt.Errorf("register increase button: %w", err)
	}
	if err := irq.RegisterCallback(pinDown, func(int) { state.RequestDecrease() }); err != nil {
		return fmt.Errorf("register decrease button: %w", err)
	}
	if err := irq.Enable(pinUp); err != nil {
		return fmt.Errorf("enable increase button: %w", err)
	}
	if err := irq.Enable(pinDown); err != nil {
		return fmt.Errorf("enable decrease button: %w", err)
	}
	return nil
}

// runLoop runs the scheduler until a signal arrives, then publishes the
// SHUTDOWN event.
func runLoop(ctl *controller, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan os.Signal, 1)
	go func() {
		select {
		case s := <-sig:
			received <- s
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := ctl.sched.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}

	s := <-received
	log.Printf("received %v, shutting down", s)
	ctl.shutdown(signalName(s))
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// shutdown publishes the retained SHUTDOWN event with a final snapshot.
func (c *controller) shutdown(reason string) {
	if c.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: c.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if c.tracker != nil {
		if c.mqttStatus != nil {
			c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
		}
		c.tracker.Update(c.state.Snapshot(), c.sched.FiredCounts())
		event.RawPayload = status.FormatStatusEvent(c.tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := c.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
