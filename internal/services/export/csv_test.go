package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/loader"
)

func TestFileName(t *testing.T) {
	d := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)
	if got := FileName(d); got != "predicted_pm_2024-11-05.csv" {
		t.Fatalf("file name=%q", got)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	src := "lat,lon,PM2.5\n28.6139,77.209,151.25\n19.076,72.8777,88\n13.0827,80.2707,42.5\n"
	p := filepath.Join(t.TempDir(), "pred.csv")
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	set, err := loader.LoadPredictions(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, set); err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.String() != src {
		t.Fatalf("round trip mismatch:\n%s\nwant:\n%s", buf.String(), src)
	}
}

func TestWriteCSV_ColumnOrder(t *testing.T) {
	set := entities.PredictionSet{
		Columns: []string{"PM2.5", "lat", "lon"},
		Records: []entities.PredictionRecord{{Lat: 1.5, Lon: 2, PM25: 3}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, set); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := buf.String(); got != "PM2.5,lat,lon\n3,1.5,2\n" {
		t.Fatalf("csv=%q", got)
	}
}

func TestWriteCSV_EmptySet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entities.PredictionSet{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "lat,lon,PM2.5" {
		t.Fatalf("csv=%q", got)
	}
}

func TestWriteCSV_UnknownColumn(t *testing.T) {
	set := entities.PredictionSet{Columns: []string{"lat", "station"}}
	if err := WriteCSV(&bytes.Buffer{}, set); err == nil {
		t.Fatalf("expected an error for an unknown column")
	}
}
