package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/flow-counter/internal/counter"
	"github.com/sweeney/flow-counter/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Flow Counter</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Flow Counter</h1>

<h2>Counters</h2>
<table>
<tr><th>Pin</th><th>Count</th></tr>
{{range .Counters}}<tr><td>{{.Pin}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>Activity</h2>
<table>
<tr><th>Indicator</th><td class="{{if .Indicator}}on{{else}}off{{end}}">{{if .Indicator}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Edges total</th><td>{{.EdgesTotal}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Serial</th><td class="{{if .SerialOK}}connected{{else}}disconnected{{end}}">{{.Config.SerialDevice}} @ {{.Config.Baud}} ({{if .SerialOK}}ok{{else}}error{{end}})</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

// pinCount pairs a pin with its count for the template range.
type pinCount struct {
	Pin   int
	Count uint64
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	counters := make([]pinCount, 0, counter.NumPins)
	for _, p := range counter.Pins() {
		counters = append(counters, pinCount{Pin: int(p), Count: snap.Counts.Count(p)})
	}

	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		Counters   []pinCount
		Indicator  bool
		EdgesTotal uint64
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		Counters:   counters,
		Indicator:  snap.Counts.Indicator,
		EdgesTotal: snap.Counts.Edges,
	}
	indexTmpl.Execute(w, data)
}
