package render

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/regression"
)

const (
	ComparisonTitle  = "Model Validation: Actual vs Predicted PM2.5"
	AxisActual       = "Actual PM2.5"
	AxisPredicted    = "Predicted PM2.5"
	PointsSeriesName = "Data Points"

	chartWidth   = 960
	chartHeight  = 520
	chartPadTop  = 48
	chartPadLeft = 16
)

var ErrNoPoints = errors.New("render: no comparison points")

// pointStyle draws markers only, without the connecting stroke.
func pointStyle(col drawing.Color, size float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    size,
		DotColor:    col,
	}
}

// Comparison renders actual vs predicted values with the fitted line as SVG.
func Comparison(recs []entities.ComparisonRecord, fit regression.Summary) ([]byte, error) {
	if len(recs) == 0 {
		return nil, ErrNoPoints
	}
	xs, ys := entities.SplitComparisons(recs)
	lo, hi := floats.Min(xs), floats.Max(xs)

	points := chart.ContinuousSeries{
		Name:    PointsSeriesName,
		XValues: xs,
		YValues: ys,
		Style:   pointStyle(chart.ColorBlue, 4), // raggio: marker da 8px
	}
	line := chart.ContinuousSeries{
		Name:    fit.Label(),
		XValues: []float64{lo, hi},
		YValues: []float64{fit.At(lo), fit.At(hi)},
		Style: chart.Style{
			StrokeColor: chart.ColorRed,
			StrokeWidth: 2,
		},
	}

	yAxis := chart.YAxis{Name: AxisPredicted}
	// go-chart rifiuta un range nullo: con y tutti uguali allarghiamo di ±1
	if ymin, ymax := floats.Min(ys), floats.Max(ys); ymin == ymax {
		yAxis.Range = &chart.ContinuousRange{Min: ymin - 1, Max: ymax + 1}
	}

	ch := chart.Chart{
		Title:      ComparisonTitle,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{FillColor: chart.ColorWhite, Padding: chart.Box{Top: chartPadTop, Left: chartPadLeft, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: AxisActual},
		YAxis:      yAxis,
		Series:     []chart.Series{points, line},
	}
	// legenda in alto a sinistra dell'area del grafico
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render comparison chart: %w", err)
	}
	return buf.Bytes(), nil
}
