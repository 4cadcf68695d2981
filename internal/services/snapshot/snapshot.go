// Package snapshot mirrors per-pass summary statistics into InfluxDB.
package snapshot

import (
	"context"
	"fmt"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/regression"
)

const (
	MeasurementPredictions = "pm25_snapshot"
	MeasurementFit         = "pm25_fit"
)

// Configurazione Influx
type InfluxConfig struct {
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	Timeout      time.Duration
}

// pointWriter è il sottoinsieme di api.WriteAPIBlocking che ci serve
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type Recorder struct {
	client influxdb2.Client
	writer pointWriter
	now    func() time.Time
}

func NewRecorder(cfg InfluxConfig) (*Recorder, error) {
	if cfg.InfluxURL == "" || cfg.InfluxOrg == "" || cfg.InfluxBucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	opts := influxdb2.DefaultOptions()
	if secs := requestTimeoutSeconds(cfg.Timeout); secs > 0 {
		opts.SetHTTPRequestTimeout(secs)
	}
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
	return &Recorder{
		client: client,
		writer: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		now:    time.Now,
	}, nil
}

// requestTimeoutSeconds rounds d up to whole seconds, never below 1:
// the Influx client takes seconds and treats 0 as "no timeout".
// A non-positive d returns 0 and keeps the client default.
func requestTimeoutSeconds(d time.Duration) uint {
	if d <= 0 {
		return 0
	}
	return max(1, uint(math.Ceil(d.Seconds())))
}

func newRecorderWithWriter(w pointWriter, now func() time.Time) *Recorder {
	return &Recorder{writer: w, now: now}
}

// RecordPredictions writes count/min/max/mean of the loaded prediction grid.
func (r *Recorder) RecordPredictions(ctx context.Context, sel model.Selection, set model.PredictionSet) error {
	return r.writer.WritePoint(ctx, PredictionsPoint(sel, set, r.now()))
}

// RecordFit writes the regression line computed for the comparison table.
func (r *Recorder) RecordFit(ctx context.Context, sel model.Selection, fit regression.Summary) error {
	return r.writer.WritePoint(ctx, FitPoint(sel, fit, r.now()))
}

func (r *Recorder) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

// PredictionsPoint normalizza le statistiche della griglia in un *write.Point.
func PredictionsPoint(sel model.Selection, set model.PredictionSet, ts time.Time) *write.Point {
	fields := map[string]interface{}{
		"count": int64(set.Len()),
	}
	if vals := set.Values(); len(vals) > 0 {
		fields["min"] = floats.Min(vals)
		fields["max"] = floats.Max(vals)
		fields["mean"] = stat.Mean(vals, nil)
	}
	return influxdb2.NewPoint(MeasurementPredictions, tags(sel), fields, ts)
}

func FitPoint(sel model.Selection, fit regression.Summary, ts time.Time) *write.Point {
	fields := map[string]interface{}{
		"slope":     fit.Slope,
		"intercept": fit.Intercept,
		"n":         int64(fit.N),
	}
	return influxdb2.NewPoint(MeasurementFit, tags(sel), fields, ts)
}

func tags(sel model.Selection) map[string]string {
	t := map[string]string{"region": string(sel.Region)}
	if !sel.Date.IsZero() {
		t["date"] = sel.ISODate()
	}
	return t
}
