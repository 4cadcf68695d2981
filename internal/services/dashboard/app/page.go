package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/export"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/loader"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/regression"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/render"
)

// ===== Static copy =====

const (
	BrowserTitle = "Satellite-based PM Estimation"
	PageTitle    = "Monitoring Air Pollution from Space"
	PageSubtitle = "Using Satellite AOD, Ground Observations, Meteorological Data & AI/ML Models"
	Footer       = "🚀 Developed with ❤️ By team Codenauts | Powered by INSAT, CPCB, MERRA-2, and Machine Learning"

	OverviewHeading   = "🔍 Project Overview"
	OverviewLead      = "This dashboard visualizes surface-level PM2.5 concentrations estimated using:"
	MapHeading        = "🗺️ Predicted PM2.5 Concentration Map"
	ComparisonHeading = "📊 Ground Truth vs Predicted PM2.5"
	DownloadHeading   = "📁 Download Predicted Data"

	DownloadCaption     = "Download Predicted PM2.5 CSV"
	DownloadUnavailable = "Predicted data not available for download."
)

var OverviewBullets = []string{
	"INSAT-derived Aerosol Optical Depth (AOD)",
	"CPCB ground monitoring data",
	"MERRA-2 meteorological data",
	"Trained using Random Forest and other ML techniques",
}

// ===== View model =====

type Notice struct {
	Level string `json:"level"` // "warning" | "error"
	Text  string `json:"text"`
}

func warning(format string, a ...any) *Notice {
	return &Notice{Level: "warning", Text: fmt.Sprintf(format, a...)}
}

func failure(format string, a ...any) *Notice {
	return &Notice{Level: "error", Text: fmt.Sprintf(format, a...)}
}

type MapSection struct {
	Heading string          `json:"heading"`
	Notice  *Notice         `json:"notice,omitempty"`
	View    *render.MapView `json:"view,omitempty"`
	outcome string
}

type ComparisonSection struct {
	Heading string              `json:"heading"`
	Notice  *Notice             `json:"notice,omitempty"`
	Fit     *regression.Summary `json:"fit,omitempty"`
	Label   string              `json:"label,omitempty"`
	Points  int                 `json:"points"`
	Chart   bool                `json:"chart"`
	SVG     template.HTML       `json:"-"`
	outcome string
}

type DownloadSection struct {
	Heading   string  `json:"heading"`
	Available bool    `json:"available"`
	Caption   string  `json:"caption,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Href      string  `json:"href,omitempty"`
	Rows      int     `json:"rows"`
	Notice    *Notice `json:"notice,omitempty"`
	outcome   string
}

// Page is the outcome of one render pass. Map and Comparison are nil when
// the matching toggle is off.
type Page struct {
	RenderID      string             `json:"render_id"`
	BrowserTitle  string             `json:"browser_title"`
	Title         string             `json:"title"`
	Subtitle      string             `json:"subtitle"`
	Date          string             `json:"date"`
	Selection     entities.Selection `json:"selection"`
	Regions       []entities.Region  `json:"regions"`
	OverviewTitle string             `json:"overview_title"`
	OverviewLead  string             `json:"overview_lead"`
	Overview      []string           `json:"overview"`
	Map           *MapSection        `json:"map,omitempty"`
	Comparison    *ComparisonSection `json:"comparison,omitempty"`
	Download      DownloadSection    `json:"download"`
	Footer        string             `json:"footer"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// ===== Render pass =====

// Render runs one full pass: load, branch on file presence, render.
// It never fails; every problem becomes a notice in its own section.
func (d *Dashboard) Render(ctx context.Context, sel entities.Selection) Page {
	start := time.Now()
	page := Page{
		RenderID:      uuid.NewString(),
		BrowserTitle:  BrowserTitle,
		Title:         PageTitle,
		Subtitle:      PageSubtitle,
		Date:          sel.ISODate(),
		Selection:     sel,
		Regions:       entities.Regions,
		OverviewTitle: OverviewHeading,
		OverviewLead:  OverviewLead,
		Overview:      OverviewBullets,
		Footer:        Footer,
		GeneratedAt:   d.cfg.Now().UTC(),
	}

	// un solo caricamento per mappa e download
	preds, predErr := d.loadPredictions()

	if sel.ShowPrediction {
		page.Map = d.mapSection(preds, predErr)
	}
	if sel.ShowGround {
		page.Comparison = d.comparisonSection(ctx, sel)
	}
	page.Download = downloadSection(sel, preds, predErr)

	if predErr == nil && d.snapshots != nil {
		_ = d.snapGuard.run(ctx, "predictions", func(ctx context.Context) error {
			return d.snapshots.RecordPredictions(ctx, sel, preds)
		})
	}

	mapOut, cmpOut := outcomeHidden, outcomeHidden
	if page.Map != nil {
		mapOut = page.Map.outcome
	}
	if page.Comparison != nil {
		cmpOut = page.Comparison.outcome
	}
	d.metrics.Sections.WithLabelValues("map", mapOut).Inc()
	d.metrics.Sections.WithLabelValues("comparison", cmpOut).Inc()
	d.metrics.Sections.WithLabelValues("download", page.Download.outcome).Inc()

	took := time.Since(start)
	d.metrics.RenderTime.Observe(took.Seconds())
	d.log.Info().
		Str("render_id", page.RenderID).
		Str("date", page.Date).
		Str("region", string(sel.Region)).
		Str("map", mapOut).
		Str("comparison", cmpOut).
		Str("download", page.Download.outcome).
		Dur("took", took).
		Msg("render pass")
	return page
}

func (d *Dashboard) loadPredictions() (entities.PredictionSet, error) {
	path := d.cfg.PredictionPath()
	set, err := loader.LoadPredictions(path)
	d.noteSource(path, err)
	return set, err
}

func (d *Dashboard) loadComparisons() ([]entities.ComparisonRecord, error) {
	path := d.cfg.ComparisonPath()
	recs, err := loader.LoadComparisons(path)
	d.noteSource(path, err)
	return recs, err
}

// noteSource logs missing/broken sources at most once per TTL and per file.
func (d *Dashboard) noteSource(path string, err error) {
	key := "source|" + path
	switch {
	case err == nil:
		d.warned.Forget(key)
	case errors.Is(err, loader.ErrMissing):
		if d.warned.Allow(key) {
			d.log.Warn().Str("file", path).Msg("source file not found")
		}
	default:
		if d.warned.Allow(key) {
			d.log.Error().Err(err).Str("file", path).Msg("source file unreadable")
		}
	}
}

func (d *Dashboard) mapSection(set entities.PredictionSet, err error) *MapSection {
	sec := &MapSection{Heading: MapHeading}
	switch {
	case errors.Is(err, loader.ErrMissing):
		sec.Notice = warning("'%s' not found.", d.cfg.PredictionFile)
		sec.outcome = outcomeMissing
	case err != nil:
		sec.Notice = failure("Could not read '%s': %v", d.cfg.PredictionFile, parseDetail(err))
		sec.outcome = outcomeMalformed
	default:
		v := render.DensityMap(set.Records)
		sec.View = &v
		sec.outcome = outcomeOK
	}
	return sec
}

func (d *Dashboard) comparisonSection(ctx context.Context, sel entities.Selection) *ComparisonSection {
	sec := &ComparisonSection{Heading: ComparisonHeading}
	recs, err := d.loadComparisons()
	switch {
	case errors.Is(err, loader.ErrMissing):
		sec.Notice = warning("'%s' not found.", d.cfg.ComparisonFile)
		sec.outcome = outcomeMissing
		return sec
	case err != nil:
		sec.Notice = failure("Could not read '%s': %v", d.cfg.ComparisonFile, parseDetail(err))
		sec.outcome = outcomeMalformed
		return sec
	}
	sec.Points = len(recs)

	fit, err := regression.Fit(entities.SplitComparisons(recs))
	if err != nil {
		sec.Notice = failure("Cannot fit a regression line: %v", err)
		sec.outcome = outcomeDegenerate
		return sec
	}
	sec.Fit = &fit
	sec.Label = fit.Label()

	svg, err := render.Comparison(recs, fit)
	if err != nil {
		sec.Notice = failure("Could not draw the comparison chart: %v", err)
		sec.outcome = outcomeRenderErr
		return sec
	}
	sec.SVG = template.HTML(svg) // SVG generato da go-chart, fidato
	sec.Chart = true
	sec.outcome = outcomeOK

	if d.snapshots != nil {
		_ = d.snapGuard.run(ctx, "fit", func(ctx context.Context) error {
			return d.snapshots.RecordFit(ctx, sel, fit)
		})
	}
	return sec
}

func downloadSection(sel entities.Selection, set entities.PredictionSet, err error) DownloadSection {
	sec := DownloadSection{Heading: DownloadHeading}
	switch {
	case errors.Is(err, loader.ErrMissing):
		sec.Notice = warning(DownloadUnavailable)
		sec.outcome = outcomeMissing
	case err != nil:
		sec.Notice = failure("%s %v", DownloadUnavailable, parseDetail(err))
		sec.outcome = outcomeMalformed
	default:
		q := url.Values{}
		q.Set("date", sel.ISODate())
		q.Set("region", string(sel.Region))
		sec.Available = true
		sec.Caption = DownloadCaption
		sec.FileName = export.FileName(sel.Date)
		sec.Href = "/download?" + q.Encode()
		sec.Rows = set.Len()
		sec.outcome = outcomeOK
	}
	return sec
}

// parseDetail strips the directory from loader errors shown to the user.
func parseDetail(err error) string {
	var pe *loader.ParseError
	if errors.As(err, &pe) {
		cp := *pe
		cp.Path = filepath.Base(pe.Path)
		return cp.Error()
	}
	return err.Error()
}
