package messages

import "time"

// ExportEvent viene pubblicato ad ogni download del CSV delle previsioni.
type ExportEvent struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD selezionata
	Region    string    `json:"region"`
	FileName  string    `json:"file_name"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}
