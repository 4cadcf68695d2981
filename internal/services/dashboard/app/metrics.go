package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Esiti possibili di una sezione della pagina
const (
	outcomeOK         = "ok"
	outcomeMissing    = "missing"
	outcomeMalformed  = "malformed"
	outcomeDegenerate = "degenerate"
	outcomeRenderErr  = "render_error"
	outcomeHidden     = "hidden"
)

type Metrics struct {
	Sections     *prometheus.CounterVec
	RenderTime   prometheus.Histogram
	Downloads    *prometheus.CounterVec
	SinkFailures *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pm25_dashboard",
			Name:      "sections_total",
			Help:      "Rendered dashboard sections by outcome.",
		}, []string{"section", "outcome"}),
		RenderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pm25_dashboard",
			Name:      "render_seconds",
			Help:      "Duration of a full render pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pm25_dashboard",
			Name:      "downloads_total",
			Help:      "CSV download requests by outcome.",
		}, []string{"outcome"}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pm25_dashboard",
			Name:      "sink_failures_total",
			Help:      "Failed or skipped writes to optional sinks.",
		}, []string{"sink"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Sections, m.RenderTime, m.Downloads, m.SinkFailures,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
