package main

import (
	"log"
	"time"

	"github.com/sweeney/thermostat/internal/logic"
	"github.com/sweeney/thermostat/internal/mqtt"
	"github.com/sweeney/thermostat/internal/report"
	"github.com/sweeney/thermostat/internal/scheduler"
	"github.com/sweeney/thermostat/internal/status"
)

// Task names, in intra-cycle order.
const (
	taskButton      = "button"
	taskTemperature = "temperature"
	taskReport      = "report"
)

// cadences are the task periods on top of the base tick.
type cadences struct {
	Base        time.Duration
	Button      time.Duration
	Temperature time.Duration
	Report      time.Duration
}

// controller owns the shared state, both machines and the scheduler, and
// implements the three periodic tasks.
type controller struct {
	state    *logic.State
	setpoint *logic.SetpointMachine
	heat     *logic.HeatMachine
	sched    *scheduler.Scheduler

	reporter   *report.Reporter
	publisher  mqtt.Publisher        // may be nil
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil

	heartbeat     time.Duration
	now           func() time.Time
	lastHeartbeat time.Time
	lastFault     string
}

type controllerDeps struct {
	State      *logic.State
	Therm      logic.Thermometer
	Heat       logic.Actuator
	Reporter   *report.Reporter
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Heartbeat  time.Duration
	Now        func() time.Time
}

func newController(c cadences, d controllerDeps) (*controller, error) {
	ctl := &controller{
		state:      d.State,
		reporter:   d.Reporter,
		publisher:  d.Publisher,
		mqttStatus: d.MQTTStatus,
		tracker:    d.Tracker,
		heartbeat:  d.Heartbeat,
		now:        d.Now,
	}
	if ctl.now == nil {
		ctl.now = time.Now
	}
	ctl.lastHeartbeat = ctl.now()
	ctl.setpoint = logic.NewSetpointMachine(d.State)
	ctl.heat = logic.NewHeatMachine(d.State, d.Therm, d.Heat, ctl)

	sched, err := scheduler.New(c.Base, d.State,
		scheduler.Task{Name: taskButton, Period: c.Button, Run: ctl.buttonTask},
		scheduler.Task{Name: taskTemperature, Period: c.Temperature, Run: ctl.temperatureTask},
		scheduler.Task{Name: taskReport, Period: c.Report, Run: ctl.reportTask},
	)
	if err != nil {
		return nil, err
	}
	ctl.sched = sched
	return ctl, nil
}

func (c *controller) buttonTask() {
	before := c.state.Setpoint()
	phase := c.setpoint.Step()
	if after := c.state.Setpoint(); after != before {
		log.Printf("setpoint: %d -> %d (%s)", before, after, phase)
	}
}

func (c *controller) temperatureTask() {
	if _, err := c.heat.Step(); err != nil {
		log.Printf("heat control error: %v", err)
	}
	if c.lastFault != "" && !c.heat.LastSampleFailed() {
		log.Printf("sensor recovered")
		c.lastFault = ""
		if c.tracker != nil {
			c.tracker.SetSensorFault(nil)
		}
	}
}

func (c *controller) reportTask() {
	snap := c.state.Snapshot()
	if err := c.reporter.Status(snap); err != nil {
		log.Printf("status report error: %v", err)
	}

	if c.tracker != nil {
		c.tracker.Update(snap, c.sched.FiredCounts())
		if c.mqttStatus != nil {
			c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
		}
	}

	if c.publisher == nil {
		return
	}
	t := c.now()
	rec := mqtt.Record{Timestamp: t, State: snap, SensorFault: c.lastFault}
	if err := c.publisher.Publish(rec); err != nil {
		log.Printf("publish error: %v", err)
	}

	if c.heartbeat > 0 && t.Sub(c.lastHeartbeat) >= c.heartbeat {
		c.lastHeartbeat = t
		c.publishHeartbeat(t)
	}
}

func (c *controller) publishHeartbeat(t time.Time) {
	hb := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
	if c.tracker != nil {
		if net := readNetworkInfo(); net != nil {
			c.tracker.SetNetwork(net)
		}
		hb.RawPayload = status.FormatStatusEvent(c.tracker.Snapshot(), "HEARTBEAT", "")
	}
	log.Printf("heartbeat: seconds=%d temperature=%d setpoint=%d heat=%v",
		c.state.ElapsedSeconds(), c.state.Temperature(), c.state.Setpoint(), c.state.HeatActive())
	if err := c.publisher.PublishSystem(hb); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// ReportFault implements logic.FaultReporter: the error record goes to the
// report sink, the tracker and the next MQTT record.
func (c *controller) ReportFault(err error) {
	c.reporter.ReportFault(err)
	c.lastFault = err.Error()
	if c.tracker != nil {
		c.tracker.SetSensorFault(err)
	}
}
