package app

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/regression"
)

var testNow = time.Date(2024, 11, 5, 10, 30, 0, 0, time.UTC)

const (
	predCSV = "lat,lon,PM2.5\n28.61,77.21,180.5\n19.07,72.87,95\n13.08,80.27,60.25\n"
	cmpCSV  = "Actual_PM2.5,Predicted_PM2.5\n1,1\n2,2\n3,3\n"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestDashboard(t *testing.T, dir string, snaps SnapshotRecorder, exps ExportNotifier) *Dashboard {
	t.Helper()
	nop := zerolog.Nop()
	return NewDashboard(Config{
		DataDir:         dir,
		Location:        time.UTC,
		SinkTimeout:     time.Second,
		BreakerFailures: 1,
		BreakerOpenFor:  time.Minute,
		Logger:          &nop,
		Now:             func() time.Time { return testNow },
	}, snaps, exps)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(entities.DateLayout, s, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// ===== fakes =====

type fakeSnapshots struct {
	mu    sync.Mutex
	err   error
	preds int
	fits  []regression.Summary
}

func (f *fakeSnapshots) RecordPredictions(_ context.Context, _ model.Selection, _ model.PredictionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preds++
	return f.err
}

func (f *fakeSnapshots) RecordFit(_ context.Context, _ model.Selection, fit regression.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fits = append(f.fits, fit)
	return f.err
}

type fakeExports struct {
	mu     sync.Mutex
	err    error
	events []model.ExportEvent
}

func (f *fakeExports) NotifyExport(_ context.Context, evt model.ExportEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

// ===== selection =====

func TestParseSelection(t *testing.T) {
	now := testNow
	cases := []struct {
		name     string
		query    string
		date     string
		region   entities.Region
		ground   bool
		predicts bool
	}{
		{"fresh load", "", "2024-11-05", entities.RegionIndia, true, true},
		{"submitted, nothing checked", "submitted=1&date=2024-01-02&region=Delhi", "2024-01-02", entities.RegionDelhi, false, false},
		{"submitted, map only", "submitted=1&show_prediction=on&region=mumbai", "2024-11-05", entities.RegionMumbai, false, true},
		{"unknown region", "region=Atlantis", "2024-11-05", entities.RegionIndia, true, true},
		{"explicit off", "show_ground=false", "2024-11-05", entities.RegionIndia, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tc.query)
			sel, err := ParseSelection(q, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := sel.ISODate(); got != tc.date {
				t.Fatalf("date: got %s want %s", got, tc.date)
			}
			if sel.Region != tc.region {
				t.Fatalf("region: got %s want %s", sel.Region, tc.region)
			}
			if sel.ShowGround != tc.ground || sel.ShowPrediction != tc.predicts {
				t.Fatalf("toggles: got ground=%v prediction=%v", sel.ShowGround, sel.ShowPrediction)
			}
		})
	}
}

func TestParseSelectionBadDate(t *testing.T) {
	_, err := ParseSelection(url.Values{"date": {"05/11/2024"}}, testNow)
	if !errors.Is(err, ErrBadDate) {
		t.Fatalf("want ErrBadDate, got %v", err)
	}
}

// ===== render pass =====

func TestRenderAllSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultPredictionFile, predCSV)
	writeFile(t, dir, DefaultComparisonFile, cmpCSV)
	snaps := &fakeSnapshots{}
	d := newTestDashboard(t, dir, snaps, nil)

	page := d.Render(context.Background(), entities.DefaultSelection(testNow))

	if page.RenderID == "" {
		t.Fatal("render id not set")
	}
	if page.Map == nil || page.Map.View == nil || len(page.Map.View.Points) != 3 {
		t.Fatalf("map section: %+v", page.Map)
	}
	c := page.Comparison
	if c == nil || !c.Chart || c.Notice != nil {
		t.Fatalf("comparison section: %+v", c)
	}
	if c.Label != "y = 1.00x + 0.00" {
		t.Fatalf("label: %q", c.Label)
	}
	if !strings.Contains(string(c.SVG), "y = 1.00x + 0.00") {
		t.Fatal("svg legend does not carry the fit label")
	}
	if !page.Download.Available || page.Download.FileName != "predicted_pm_2024-11-05.csv" || page.Download.Rows != 3 {
		t.Fatalf("download section: %+v", page.Download)
	}
	if snaps.preds != 1 || len(snaps.fits) != 1 {
		t.Fatalf("snapshots: preds=%d fits=%d", snaps.preds, len(snaps.fits))
	}
	if got := testutil.ToFloat64(d.metrics.Sections.WithLabelValues("comparison", outcomeOK)); got != 1 {
		t.Fatalf("comparison ok counter = %v", got)
	}
}

func TestRenderTogglesOff(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultPredictionFile, predCSV)
	writeFile(t, dir, DefaultComparisonFile, cmpCSV)
	d := newTestDashboard(t, dir, nil, nil)

	sel := entities.DefaultSelection(testNow)
	sel.ShowGround, sel.ShowPrediction = false, false
	page := d.Render(context.Background(), sel)

	if page.Map != nil || page.Comparison != nil {
		t.Fatalf("hidden sections rendered: map=%v comparison=%v", page.Map, page.Comparison)
	}
	if len(page.Overview) == 0 || !page.Download.Available {
		t.Fatal("overview and download must always be present")
	}
	if got := testutil.ToFloat64(d.metrics.Sections.WithLabelValues("map", outcomeHidden)); got != 1 {
		t.Fatalf("map hidden counter = %v", got)
	}
}

func TestRenderMissingFiles(t *testing.T) {
	d := newTestDashboard(t, t.TempDir(), nil, nil)

	page := d.Render(context.Background(), entities.DefaultSelection(testNow))

	if page.Map == nil || page.Map.View != nil || page.Map.Notice == nil {
		t.Fatalf("map section: %+v", page.Map)
	}
	if page.Map.Notice.Level != "warning" || page.Map.Notice.Text != "'sample_predicted_pm.csv' not found." {
		t.Fatalf("map notice: %+v", page.Map.Notice)
	}
	if page.Comparison == nil || page.Comparison.Chart || page.Comparison.Notice.Text != "'sample_comparison.csv' not found." {
		t.Fatalf("comparison section: %+v", page.Comparison)
	}
	if page.Download.Available || page.Download.Notice == nil || page.Download.Notice.Text != DownloadUnavailable {
		t.Fatalf("download section: %+v", page.Download)
	}
	// seconda passata: stesso esito, il warning di log è deduplicato ma la metrica conta
	d.Render(context.Background(), entities.DefaultSelection(testNow))
	if got := testutil.ToFloat64(d.metrics.Sections.WithLabelValues("map", outcomeMissing)); got != 2 {
		t.Fatalf("map missing counter = %v", got)
	}
}

func TestRenderEmptyPredictions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultPredictionFile, "lat,lon,PM2.5\n")
	d := newTestDashboard(t, dir, nil, nil)

	page := d.Render(context.Background(), entities.DefaultSelection(testNow))

	if page.Map.Notice != nil {
		t.Fatalf("unexpected notice: %+v", page.Map.Notice)
	}
	if page.Map.View == nil || page.Map.View.HasLayer() {
		t.Fatalf("want base map without layer, got %+v", page.Map.View)
	}
	if !page.Download.Available || page.Download.Rows != 0 {
		t.Fatalf("download section: %+v", page.Download)
	}
}

func TestRenderMalformedAndDegenerate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultPredictionFile, "lat,lon,PM2.5\n28.6,77.2,abc\n")
	writeFile(t, dir, DefaultComparisonFile, "Actual_PM2.5,Predicted_PM2.5\n10,12\n")
	d := newTestDashboard(t, dir, nil, nil)

	page := d.Render(context.Background(), entities.DefaultSelection(testNow))

	if page.Map.Notice == nil || page.Map.Notice.Level != "error" || page.Map.View != nil {
		t.Fatalf("map section: %+v", page.Map)
	}
	if strings.Contains(page.Map.Notice.Text, dir) {
		t.Fatalf("notice leaks data dir: %q", page.Map.Notice.Text)
	}
	if page.Comparison.Notice == nil || page.Comparison.Chart || page.Comparison.Fit != nil {
		t.Fatalf("comparison section: %+v", page.Comparison)
	}
	if page.Download.Available {
		t.Fatal("download offered for unreadable predictions")
	}
	if got := testutil.ToFloat64(d.metrics.Sections.WithLabelValues("comparison", outcomeDegenerate)); got != 1 {
		t.Fatalf("degenerate counter = %v", got)
	}
}

// ===== sinks =====

func TestSinkFailureOpensBreaker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultPredictionFile, predCSV)
	snaps := &fakeSnapshots{err: errors.New("influx down")}
	d := newTestDashboard(t, dir, snaps, nil)

	sel := entities.DefaultSelection(testNow)
	sel.ShowGround = false
	for i := 0; i < 3; i++ {
		page := d.Render(context.Background(), sel)
		if page.Map == nil || page.Map.View == nil {
			t.Fatalf("pass %d: sink failure broke the map", i)
		}
	}
	if snaps.preds != 1 {
		t.Fatalf("breaker should stop calls after the first failure, got %d calls", snaps.preds)
	}
	if got := d.snapGuard.State(); got != "open" {
		t.Fatalf("breaker state = %s", got)
	}
	if got := testutil.ToFloat64(d.metrics.SinkFailures.WithLabelValues("influx")); got != 3 {
		t.Fatalf("sink failures = %v", got)
	}
}
