package app

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/LeonardoBeccarini/pm25_dashboard/pkg/dedup"
)

const (
	DefaultPredictionFile = "sample_predicted_pm.csv"
	DefaultComparisonFile = "sample_comparison.csv"
)

type Config struct {
	DataDir        string
	PredictionFile string
	ComparisonFile string
	Location       *time.Location // fuso per la data di default ("oggi")

	SinkTimeout     time.Duration
	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration

	WarnDedupTTL time.Duration

	Logger *zerolog.Logger
	Now    func() time.Time
}

func (c Config) PredictionPath() string { return filepath.Join(c.DataDir, c.PredictionFile) }
func (c Config) ComparisonPath() string { return filepath.Join(c.DataDir, c.ComparisonFile) }

// Dashboard serves the single-page PM2.5 dashboard. It keeps no data between
// requests: every page view is a fresh render pass over the files on disk.
type Dashboard struct {
	cfg     Config
	log     zerolog.Logger
	metrics *Metrics
	warned  *dedup.Deduper

	snapshots SnapshotRecorder
	exports   ExportNotifier
	snapGuard *sinkGuard
	expGuard  *sinkGuard
}

// NewDashboard wires the dashboard. snapshots and exports are optional sinks.
func NewDashboard(cfg Config, snapshots SnapshotRecorder, exports ExportNotifier) *Dashboard {
	if cfg.Logger == nil {
		cfg.Logger = &log.Logger
	}
	if cfg.PredictionFile == "" {
		cfg.PredictionFile = DefaultPredictionFile
	}
	if cfg.ComparisonFile == "" {
		cfg.ComparisonFile = DefaultComparisonFile
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 2 * time.Second
	}

	m := NewMetrics()
	l := cfg.Logger.With().Str("svc", "dashboard").Logger()
	d := &Dashboard{
		cfg:       cfg,
		log:       l,
		metrics:   m,
		warned:    dedup.New(cfg.WarnDedupTTL, 256),
		snapshots: snapshots,
		exports:   exports,
	}
	// Un breaker per ciascun sink
	d.snapGuard = newSinkGuard("influx", cfg, m, l)
	d.expGuard = newSinkGuard("mqtt", cfg, m, l)
	return d
}

func (d *Dashboard) Metrics() *Metrics { return d.metrics }

func (d *Dashboard) now() time.Time { return d.cfg.Now().In(d.cfg.Location) }
