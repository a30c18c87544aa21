// Package metrics exposes vector reallocation counters as Prometheus
// collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcodamonte/concurrency/growable-array/vector"
)

// Metrics groups the collectors of one registry. Each CLI run creates its
// own, so nothing is shared through package state.
type Metrics struct {
	Registry *prometheus.Registry

	// Allocations counts storage allocations, the first one of a vector included.
	Allocations prometheus.Counter
	// Growths counts reallocations that replaced non-empty storage.
	Growths prometheus.Counter
	// Copied counts elements moved by reallocations.
	Copied prometheus.Counter
	// Capacity observes the capacity each allocation produced.
	Capacity prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vector_allocations_total",
			Help: "Number of storage allocations made by vectors",
		}),
		Growths: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vector_growths_total",
			Help: "Number of reallocations that replaced existing storage",
		}),
		Copied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vector_copied_elements_total",
			Help: "Number of elements copied into new storage",
		}),
		Capacity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vector_capacity_elements",
			Help:    "Capacity of each newly allocated storage, in elements",
			Buckets: prometheus.ExponentialBuckets(1, 2, 21),
		}),
	}
	m.Registry.MustRegister(m.Allocations, m.Growths, m.Copied, m.Capacity)
	return m
}

// Observer returns a vector.Observer that feeds m.
func (m *Metrics) Observer() vector.Observer {
	return vector.ObserverFunc(func(ev vector.GrowEvent) {
		m.Allocations.Inc()
		if ev.OldCap > 0 {
			m.Growths.Inc()
		}
		m.Copied.Add(float64(ev.Copied))
		m.Capacity.Observe(float64(ev.NewCap))
	})
}

// Sample is one gathered metric value.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot gathers the registry and returns counter values and histogram
// sample counts, sorted by name.
func (m *Metrics) Snapshot() ([]Sample, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out = append(out, Sample{Name: mf.GetName(), Value: metric.GetCounter().GetValue()})
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				out = append(out,
					Sample{Name: mf.GetName() + "_count", Value: float64(h.GetSampleCount())},
					Sample{Name: mf.GetName() + "_sum", Value: h.GetSampleSum()},
				)
			}
		}
	}
	return out, nil
}
