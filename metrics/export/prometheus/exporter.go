package prometheus

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() rentalAuth.MetricsSnapshot
	EventsDroppedByName() map[string]uint64
}

// PrometheusExporter renders engine metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from engine.
func NewPrometheusExporter(engine *rentalAuth.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter over any metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. A disabled engine with no dropped
// events renders nothing.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	snap := p.source.MetricsSnapshot()
	dropped := p.source.EventsDroppedByName()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && len(dropped) == 0 {
		return ""
	}

	var w exposition
	for _, fam := range internaldefs.Families {
		w.family(fam.Name, fam.Help, "counter")
		for _, s := range fam.Series {
			w.sample(fam.Name, fam.Label, s.Value, snap.Counters[s.ID])
		}
	}
	for _, def := range internaldefs.HistogramDefs {
		w.histogram(def, internaldefs.CumulativeBuckets(snap.Histograms[def.ID]))
	}

	w.family(internaldefs.EventsDroppedName, internaldefs.EventsDroppedHelp, "counter")
	names := make([]string, 0, len(dropped))
	for name := range dropped {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w.sample(internaldefs.EventsDroppedName, internaldefs.EventLabel, name, dropped[name])
	}
	return w.String()
}

// exposition accumulates text-format lines.
type exposition struct {
	strings.Builder
}

func (w *exposition) family(name, help, typ string) {
	w.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.WriteString("# TYPE " + name + " " + typ + "\n")
}

// sample writes one line; label is omitted when empty.
func (w *exposition) sample(name, label, value string, n uint64) {
	w.WriteString(name)
	if label != "" {
		w.WriteString("{" + label + "=\"" + escapeLabel(value) + "\"}")
	}
	w.WriteByte(' ')
	w.WriteString(strconv.FormatUint(n, 10))
	w.WriteByte('\n')
}

// histogram writes buckets and count. The engine does not track sums, so
// _sum is always zero.
func (w *exposition) histogram(def internaldefs.HistogramDef, cumulative []uint64) {
	w.family(def.Name, def.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(def.Name+"_bucket", "le", le, cumulative[i])
	}
	w.sample(def.Name+"_sum", "", "", 0)
	w.sample(def.Name+"_count", "", "", cumulative[len(cumulative)-1])
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}

func escapeLabel(v string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`).Replace(v)
}
