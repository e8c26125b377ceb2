package web

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/thermostat/internal/status"
)

const namespace = "thermostat"

// collector exposes the tracker snapshot as Prometheus metrics. Values are
// read at scrape time, so nothing on the control loop touches Prometheus.
type collector struct {
	tracker *status.Tracker

	temperature   *prometheus.Desc
	setpoint      *prometheus.Desc
	heat          *prometheus.Desc
	elapsed       *prometheus.Desc
	mqttConnected *prometheus.Desc
	taskRuns      *prometheus.Desc
	sensorFaults  *prometheus.Desc
}

func newCollector(tracker *status.Tracker) *collector {
	return &collector{
		tracker: tracker,
		temperature: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "temperature_celsius"),
			"Last sensor reading in whole degrees Celsius.", nil, nil),
		setpoint: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "setpoint_celsius"),
			"Current setpoint in degrees Celsius.", nil, nil),
		heat: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "heat_active"),
			"1 when the heating output is requested on.", nil, nil),
		elapsed: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "elapsed_seconds"),
			"Seconds of control loop time since start.", nil, nil),
		mqttConnected: prometheus.NewDesc(prometheus.BuildFQName(namespace, "mqtt", "connected"),
			"1 when the MQTT connection is open.", nil, nil),
		taskRuns: prometheus.NewDesc(prometheus.BuildFQName(namespace, "scheduler", "task_runs_total"),
			"Number of times each scheduled task has run.", []string{"task"}, nil),
		sensorFaults: prometheus.NewDesc(prometheus.BuildFQName(namespace, "sensor", "faults_total"),
			"Number of failed temperature reads.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.temperature
	ch <- c.setpoint
	ch <- c.heat
	ch <- c.elapsed
	ch <- c.mqttConnected
	ch <- c.taskRuns
	ch <- c.sensorFaults
}

// Collect implements prometheus.Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()
	th := snap.Thermostat

	ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, float64(th.Temperature))
	ch <- prometheus.MustNewConstMetric(c.setpoint, prometheus.GaugeValue, float64(th.Setpoint))
	ch <- prometheus.MustNewConstMetric(c.heat, prometheus.GaugeValue, boolValue(th.Heat))
	ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.GaugeValue, float64(th.Seconds))
	ch <- prometheus.MustNewConstMetric(c.mqttConnected, prometheus.GaugeValue, boolValue(snap.MQTTConnected))
	ch <- prometheus.MustNewConstMetric(c.sensorFaults, prometheus.CounterValue, float64(snap.SensorFaults))

	tasks := make([]string, 0, len(snap.TaskRuns))
	for name := range snap.TaskRuns {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)
	for _, name := range tasks {
		ch <- prometheus.MustNewConstMetric(c.taskRuns, prometheus.CounterValue, float64(snap.TaskRuns[name]), name)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
