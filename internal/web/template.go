package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/thermostat/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"sensorOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"heat": status.HeatString,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Thermostat</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: #c40; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Thermostat</h1>

<h2>State</h2>
<table>
<tr><th>Temperature</th><td id="temperature">{{.Thermostat.Temperature}} &deg;C</td></tr>
<tr><th>Setpoint</th><td id="setpoint">{{.Thermostat.Setpoint}} &deg;C</td></tr>
<tr><th>Heat</th><td id="heat" class="{{if .Thermostat.Heat}}on{{else}}off{{end}}">{{heat .Thermostat.Heat}}</td></tr>
<tr><th>Elapsed</th><td id="seconds">{{.Thermostat.Seconds}}s</td></tr>
</table>

<h2>Sensor</h2>
<table>
<tr><th>Device</th><td class="{{if .Sensor}}connected{{else}}unknown{{end}}">{{sensorOrUnknown .Sensor}}</td></tr>
<tr><th>Faults</th><td>{{.SensorFaults}}</td></tr>
{{if .LastFault}}<tr><th>Last fault</th><td class="disconnected">{{.LastFault}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Scheduler</h2>
<table>
<tr><th>Base tick</th><td>{{.Config.BaseMs}}ms</td></tr>
<tr><th>Button</th><td>every {{.Config.ButtonMs}}ms{{with index .TaskRuns "button"}}, {{.}} runs{{end}}</td></tr>
<tr><th>Temperature</th><td>every {{.Config.TemperatureMs}}ms{{with index .TaskRuns "temperature"}}, {{.}} runs{{end}}</td></tr>
<tr><th>Report</th><td>every {{.Config.ReportMs}}ms{{with index .TaskRuns "report"}}, {{.}} runs{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sensor backend</th><td>{{.Config.Sensor}}</td></tr>
<tr><th>Serial</th><td>{{if .Config.Serial}}{{.Config.Serial}}{{else}}stdout{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
{{if .Config.ReportMs}}
<script>
(function() {
  var heatEl = document.getElementById("heat");
  setInterval(function() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(j) {
      var s = j.status;
      document.getElementById("temperature").textContent = s.temperature + " °C";
      document.getElementById("setpoint").textContent = s.setpoint + " °C";
      document.getElementById("seconds").textContent = s.seconds + "s";
      heatEl.textContent = s.heat;
      heatEl.className = s.heat === "ON" ? "on" : "off";
    }).catch(function() {});
  }, {{.Config.ReportMs}});
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("render status page: %v", err)
	}
}
