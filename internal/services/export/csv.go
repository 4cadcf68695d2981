// Package export produces the downloadable prediction CSV and announces downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
)

const ContentType = "text/csv"

// FileName is the attachment name for a selected date: predicted_pm_<YYYY-MM-DD>.csv.
func FileName(date time.Time) string {
	return fmt.Sprintf("predicted_pm_%s.csv", date.Format(entities.DateLayout))
}

// WriteCSV writes the header and one line per record, without an index column.
// Columns follow set.Columns; an empty Columns falls back to lat,lon,PM2.5.
func WriteCSV(w io.Writer, set entities.PredictionSet) error {
	cols := set.Columns
	if len(cols) == 0 {
		cols = []string{entities.ColumnLat, entities.ColumnLon, entities.ColumnPM25}
	}
	pick := make([]func(entities.PredictionRecord) float64, len(cols))
	for i, c := range cols {
		switch c {
		case entities.ColumnLat:
			pick[i] = func(r entities.PredictionRecord) float64 { return r.Lat }
		case entities.ColumnLon:
			pick[i] = func(r entities.PredictionRecord) float64 { return r.Lon }
		case entities.ColumnPM25:
			pick[i] = func(r entities.PredictionRecord) float64 { return r.PM25 }
		default:
			return fmt.Errorf("export: unknown column %q", c)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, r := range set.Records {
		for i := range cols {
			row[i] = strconv.FormatFloat(pick[i](r), 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
