package entities

import "time"

// DateLayout is the ISO date used by the date picker and the export file name.
const DateLayout = "2006-01-02"

// Selection is the sidebar state of a single render pass.
type Selection struct {
	Date           time.Time `json:"-"`
	Region         Region    `json:"region"`
	ShowGround     bool      `json:"show_ground"`
	ShowPrediction bool      `json:"show_prediction"`
}

// ISODate formats the selected date as YYYY-MM-DD.
func (s Selection) ISODate() string { return s.Date.Format(DateLayout) }

// DefaultSelection mirrors the initial sidebar: today, India, both sections on.
func DefaultSelection(now time.Time) Selection {
	return Selection{
		Date:           time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Region:         RegionIndia,
		ShowGround:     true,
		ShowPrediction: true,
	}
}
