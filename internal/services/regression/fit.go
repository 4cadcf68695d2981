// Package regression fits the ground-truth vs prediction validation line.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrLengthMismatch = errors.New("regression: x and y lengths differ")
	ErrTooFewPoints   = errors.New("regression: at least 2 points are required")
	ErrZeroVariance   = errors.New("regression: x has zero variance")
)

// Summary is the degree-1 least squares line y = Slope*x + Intercept.
type Summary struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	N         int     `json:"n"`
}

// Fit computes the ordinary least squares line through (xs[i], ys[i]).
func Fit(xs, ys []float64) (Summary, error) {
	if len(xs) != len(ys) {
		return Summary{}, fmt.Errorf("%w (%d vs %d)", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return Summary{}, fmt.Errorf("%w, got %d", ErrTooFewPoints, len(xs))
	}
	// uguaglianza esatta: una varianza calcolata può restare ~1e-34 per valori identici
	if floats.Max(xs) == floats.Min(xs) {
		return Summary{}, ErrZeroVariance
	}

	// stat restituisce y = alpha + beta*x
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Summary{Slope: beta, Intercept: alpha, N: len(xs)}, nil
}

// At evaluates the fitted line.
func (s Summary) At(x float64) float64 { return s.Slope*x + s.Intercept }

// Line returns the fitted values for xs.
func (s Summary) Line(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = s.At(x)
	}
	return out
}

// Label is the legend text of the fitted series, e.g. "y = 1.00x + 0.00".
func (s Summary) Label() string {
	return fmt.Sprintf("y = %.2fx + %.2f", noNegZero(s.Slope), noNegZero(s.Intercept))
}

// Residuals returns y - (m*x + b) for each point.
func (s Summary) Residuals(xs, ys []float64) []float64 {
	out := make([]float64, len(xs))
	floats.SubTo(out, ys, s.Line(xs))
	return out
}

// noNegZero evita "-0.00" quando il valore arrotondato è zero
func noNegZero(v float64) float64 {
	if math.Abs(v) < 0.005 {
		return 0
	}
	return v
}
