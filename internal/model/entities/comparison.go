package entities

// ComparisonRecord pairs a ground-station observation with the model output
// for the same place and time.
type ComparisonRecord struct {
	Actual    float64 `json:"actual_pm25"`
	Predicted float64 `json:"predicted_pm25"`
}

// SplitComparisons returns the actual (x) and predicted (y) columns.
func SplitComparisons(recs []ComparisonRecord) (xs, ys []float64) {
	xs = make([]float64, len(recs))
	ys = make([]float64, len(recs))
	for i, r := range recs {
		xs[i] = r.Actual
		ys[i] = r.Predicted
	}
	return xs, ys
}
