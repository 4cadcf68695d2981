package entities

// Nomi di colonna attesi nei CSV prodotti a monte
const (
	ColumnLat       = "lat"
	ColumnLon       = "lon"
	ColumnPM25      = "PM2.5"
	ColumnActual    = "Actual_PM2.5"
	ColumnPredicted = "Predicted_PM2.5"
)

// PredictionRecord is one grid cell of the predicted PM2.5 map.
type PredictionRecord struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	PM25 float64 `json:"pm25"` // µg/m³
}

// PredictionSet keeps the records in file order together with the column
// order found in the header, so an export writes the table back as it came.
type PredictionSet struct {
	Columns []string           `json:"columns"`
	Records []PredictionRecord `json:"records"`
}

func (p PredictionSet) Len() int { return len(p.Records) }

// Values returns the PM2.5 column.
func (p PredictionSet) Values() []float64 {
	out := make([]float64, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.PM25
	}
	return out
}
