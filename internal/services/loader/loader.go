// Package loader reads the pre-computed PM2.5 tables from local storage.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
)

// ErrMissing reports an absent source file. It is an expected condition:
// the caller shows a warning and skips the dependent section.
var ErrMissing = errors.New("source file not found")

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyFile     = errors.New("no header row")
	ErrNotFinite     = errors.New("value is not finite")
)

// ParseError describes malformed content. Line is 1-based and counts the header.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Column != "" && e.Line > 0:
		return fmt.Sprintf("%s: line %d, column %q: %v", e.Path, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %v", e.Path, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadPredictions parses a lat/lon/PM2.5 table.
func LoadPredictions(path string) (entities.PredictionSet, error) {
	want := []string{entities.ColumnLat, entities.ColumnLon, entities.ColumnPM25}
	tbl, err := readTable(path, want)
	if err != nil {
		return entities.PredictionSet{}, err
	}
	set := entities.PredictionSet{
		Columns: tbl.order,
		Records: make([]entities.PredictionRecord, 0, len(tbl.rows)),
	}
	for _, row := range tbl.rows {
		set.Records = append(set.Records, entities.PredictionRecord{
			Lat:  row[0],
			Lon:  row[1],
			PM25: row[2],
		})
	}
	return set, nil
}

// LoadComparisons parses an Actual_PM2.5/Predicted_PM2.5 table.
func LoadComparisons(path string) ([]entities.ComparisonRecord, error) {
	want := []string{entities.ColumnActual, entities.ColumnPredicted}
	tbl, err := readTable(path, want)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ComparisonRecord, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		out = append(out, entities.ComparisonRecord{Actual: row[0], Predicted: row[1]})
	}
	return out, nil
}

// Exists is the cheap check used by the health probes.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

type table struct {
	order []string    // wanted columns, in header order
	rows  [][]float64 // values indexed like the wanted slice
}

func readTable(path string, want []string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table{}, fmt.Errorf("%s: %w", path, ErrMissing)
		}
		return table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parseTable(path, f, want)
}

func parseTable(path string, r io.Reader, want []string) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // le righe corte vengono segnalate sotto, con la colonna
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return table{}, &ParseError{Path: path, Err: ErrEmptyFile}
	}
	if err != nil {
		return table{}, &ParseError{Path: path, Line: 1, Err: err}
	}

	idx := make([]int, len(want))
	for i, name := range want {
		idx[i] = -1
		for j, h := range header {
			// BOM possibile sul primo campo (export da Excel)
			if strings.TrimPrefix(h, "\ufeff") == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return table{}, &ParseError{Path: path, Line: 1, Column: name, Err: ErrMissingColumn}
		}
	}

	order := make([]string, 0, len(want))
	for j := range header {
		for i, k := range idx {
			if k == j {
				order = append(order, want[i])
			}
		}
	}

	var rows [][]float64
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return table{}, &ParseError{Path: path, Line: line, Err: err}
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		vals := make([]float64, len(want))
		for i, k := range idx {
			if k >= len(rec) {
				return table{}, &ParseError{Path: path, Line: line, Column: want[i], Err: ErrMissingColumn}
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[k]), 64)
			if err != nil {
				return table{}, &ParseError{Path: path, Line: line, Column: want[i], Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return table{}, &ParseError{Path: path, Line: line, Column: want[i], Err: ErrNotFinite}
			}
			vals[i] = v
		}
		rows = append(rows, vals)
	}
	return table{order: order, rows: rows}, nil
}
