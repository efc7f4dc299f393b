package otel

import (
	"context"
	"errors"
	"fmt"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() rentalAuth.MetricsSnapshot
	EventsDroppedByName() map[string]uint64
}

// series binds one engine counter to its instrument and attribute set.
type series struct {
	id         rentalAuth.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.ObserveOption
}

// latency exposes one cumulative gauge per bucket bound, distinguished by an
// "le" attribute, plus a count gauge.
type latency struct {
	id      rentalAuth.MetricID
	buckets metric.Int64ObservableGauge
	bounds  []metric.ObserveOption
	count   metric.Int64ObservableGauge
}

type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	series       []series
	latencies    []latency
	dropped      metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *rentalAuth.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, fam := range internaldefs.Families {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", fam.Name, err)
		}
		observables = append(observables, ins)
		for _, s := range fam.Series {
			var attrs attribute.Set
			if fam.Label != "" {
				attrs = attribute.NewSet(attribute.String(fam.Label, s.Value))
			}
			e.series = append(e.series, series{id: s.ID, instrument: ins, attrs: metric.WithAttributeSet(attrs)})
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		l := latency{id: def.ID}
		var err error
		if l.buckets, err = meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription("Cumulative bucket counts of "+def.Name+".")); err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		if l.count, err = meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Sample count of "+def.Name+".")); err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}
		for _, le := range internaldefs.HistogramBounds {
			l.bounds = append(l.bounds, metric.WithAttributes(attribute.String("le", le)))
		}
		observables = append(observables, l.buckets, l.count)
		e.latencies = append(e.latencies, l)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.EventsDroppedName, metric.WithDescription(internaldefs.EventsDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", internaldefs.EventsDroppedName, err)
	}
	e.dropped = dropped
	observables = append(observables, dropped)

	if e.registration, err = meter.RegisterCallback(e.observe, observables...); err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, s := range e.series {
		o.ObserveInt64(s.instrument, int64(snap.Counters[s.id]), s.attrs)
	}
	for _, l := range e.latencies {
		cumulative := internaldefs.CumulativeBuckets(snap.Histograms[l.id])
		for i, n := range cumulative {
			o.ObserveInt64(l.buckets, int64(n), l.bounds[i])
		}
		o.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}
	for name, n := range e.source.EventsDroppedByName() {
		o.ObserveInt64(e.dropped, int64(n), metric.WithAttributes(attribute.String(internaldefs.EventLabel, name)))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
