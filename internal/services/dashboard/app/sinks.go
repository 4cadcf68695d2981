package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/regression"
)

// SnapshotRecorder receives the summary of each render pass (InfluxDB in production).
type SnapshotRecorder interface {
	RecordPredictions(ctx context.Context, sel model.Selection, set model.PredictionSet) error
	RecordFit(ctx context.Context, sel model.Selection, fit regression.Summary) error
}

// ExportNotifier is told about every CSV download (MQTT in production).
type ExportNotifier interface {
	NotifyExport(ctx context.Context, evt model.ExportEvent) error
}

// sinkGuard limita ogni scrittura con timeout e circuit breaker:
// un sink giù non deve mai rallentare o rompere il render.
type sinkGuard struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics *Metrics
	log     zerolog.Logger
}

func newSinkGuard(name string, cfg Config, m *Metrics, l zerolog.Logger) *sinkGuard {
	fails := cfg.BreakerFailures
	if fails < 1 {
		fails = 3
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	g := &sinkGuard{name: name, timeout: cfg.SinkTimeout, metrics: m, log: l}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: cfg.BreakerInterval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("sink", name).Str("from", from.String()).Str("to", to.String()).Msg("sink breaker state change")
		},
	})
	return g
}

func (g *sinkGuard) State() string { return g.cb.State().String() }

// run returns the sink error for callers that care; the render pass does not.
func (g *sinkGuard) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err == nil {
		return nil
	}
	g.metrics.SinkFailures.WithLabelValues(g.name).Inc()
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.log.Debug().Str("sink", g.name).Str("op", op).Msg("sink skipped, breaker open")
	} else {
		g.log.Warn().Err(err).Str("sink", g.name).Str("op", op).Msg("sink write failed")
	}
	return err
}
