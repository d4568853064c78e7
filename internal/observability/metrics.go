package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScanCollector bundles Prometheus metrics for the lattice scanner. It
// implements core.ScanRecorder, so a *ScanCollector can be passed directly
// as core.InitParams.Recorder.
type ScanCollector struct {
	gatherer prometheus.Gatherer

	InitDuration       prometheus.Histogram
	InitFailures       prometheus.Counter
	AdvanceDuration    prometheus.Histogram
	TemplatesGenerated prometheus.Counter
	ActiveScans        prometheus.Gauge
}

// NewScanCollector registers the scanner's Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// reg is nil.
func NewScanCollector(reg prometheus.Registerer) (*ScanCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	initDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "latticescan_init_duration_seconds",
		Help:    "Time to build a ScanState: parse the boundary, compute the flat metric, and build the lattice generator.",
		Buckets: prometheus.DefBuckets,
	}), "latticescan_init_duration_seconds")
	if err != nil {
		return nil, err
	}

	initFailures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "latticescan_init_failures_total",
		Help: "Total number of ScanState initialisation attempts that returned an error.",
	}), "latticescan_init_failures_total")
	if err != nil {
		return nil, err
	}

	advanceDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "latticescan_advance_duration_seconds",
		Help:    "Time spent per Advance call.",
		Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2},
	}), "latticescan_advance_duration_seconds")
	if err != nil {
		return nil, err
	}

	templates, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "latticescan_templates_generated_total",
		Help: "Total number of lattice points (templates) produced across all scans.",
	}), "latticescan_templates_generated_total")
	if err != nil {
		return nil, err
	}

	activeScans, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "latticescan_active_scans",
		Help: "Current number of ScanState values that have been initialised but not yet closed.",
	}), "latticescan_active_scans")
	if err != nil {
		return nil, err
	}

	return &ScanCollector{
		gatherer:           gatherer,
		InitDuration:       initDuration,
		InitFailures:       initFailures,
		AdvanceDuration:    advanceDuration,
		TemplatesGenerated: templates,
		ActiveScans:        activeScans,
	}, nil
}

// ObserveInit records the duration of a ScanState initialisation attempt
// and, if it failed, increments InitFailures. It satisfies core.ScanRecorder.
func (c *ScanCollector) ObserveInit(d time.Duration, err error) {
	if c == nil {
		return
	}
	if c.InitDuration != nil {
		c.InitDuration.Observe(d.Seconds())
	}
	if err != nil && c.InitFailures != nil {
		c.InitFailures.Inc()
	}
}

// ObserveAdvance records the duration of a single Advance call. It
// satisfies core.ScanRecorder.
func (c *ScanCollector) ObserveAdvance(d time.Duration) {
	if c == nil || c.AdvanceDuration == nil {
		return
	}
	c.AdvanceDuration.Observe(d.Seconds())
}

// IncTemplatesGenerated increments the total templates-generated counter.
// It satisfies core.ScanRecorder.
func (c *ScanCollector) IncTemplatesGenerated() {
	if c == nil || c.TemplatesGenerated == nil {
		return
	}
	c.TemplatesGenerated.Inc()
}

// SetActiveScans updates the current count of open scans.
func (c *ScanCollector) SetActiveScans(n int) {
	if c == nil || c.ActiveScans == nil {
		return
	}
	c.ActiveScans.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ScanCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
