package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider backs Provider with real client_golang instruments,
// registered lazily by name on a caller-supplied prometheus.Registerer.
// Safe for concurrent use.
type PrometheusProvider struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheusCounter
	updowns    map[string]*prometheusUpDownCounter
	histograms map[string]*prometheusHistogram
}

// NewPrometheusProvider constructs a PrometheusProvider that registers
// every instrument it creates on reg. Pass prometheus.DefaultRegisterer
// to publish on the default /metrics endpoint.
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	return &PrometheusProvider{
		registerer: reg,
		counters:   make(map[string]*prometheusCounter),
		updowns:    make(map[string]*prometheusUpDownCounter),
		histograms: make(map[string]*prometheusHistogram),
	}
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: helpText(cfg),
	}, attributeNames(cfg))
	p.registerer.MustRegister(vec)

	c := &prometheusCounter{counter: vec.With(toLabels(cfg))}
	p.counters[name] = c
	return c
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.updowns[name]; ok {
		return u
	}

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: helpText(cfg),
	}, attributeNames(cfg))
	p.registerer.MustRegister(vec)

	u := &prometheusUpDownCounter{gauge: vec.With(toLabels(cfg))}
	p.updowns[name] = u
	return u
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.histograms[name]; ok {
		return h
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: name,
		Help: helpText(cfg),
	}, attributeNames(cfg))
	p.registerer.MustRegister(vec)

	h := &prometheusHistogram{histogram: vec.With(toLabels(cfg))}
	p.histograms[name] = h
	return h
}

func helpText(cfg InstrumentConfig) string {
	if cfg.Description != "" {
		return cfg.Description
	}
	return "taskpool instrument"
}

func attributeNames(cfg InstrumentConfig) []string {
	names := make([]string, 0, len(cfg.Attributes))
	for k := range cfg.Attributes {
		names = append(names, k)
	}
	return names
}

func toLabels(cfg InstrumentConfig) prometheus.Labels {
	if len(cfg.Attributes) == 0 {
		return prometheus.Labels{}
	}
	labels := make(prometheus.Labels, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		labels[k] = v
	}
	return labels
}

type prometheusCounter struct{ counter prometheus.Counter }

func (c *prometheusCounter) Add(n int64) { c.counter.Add(float64(n)) }

type prometheusUpDownCounter struct{ gauge prometheus.Gauge }

func (u *prometheusUpDownCounter) Add(n int64) { u.gauge.Add(float64(n)) }

type prometheusHistogram struct{ histogram prometheus.Histogram }

func (h *prometheusHistogram) Record(v float64) { h.histogram.Observe(v) }
