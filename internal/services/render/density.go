// Package render turns loaded PM2.5 tables into the dashboard visuals.
package render

import (
	"math"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
)

// Parametri fissi della mappa (centrata sull'India)
const (
	MapTitle       = "Predicted PM2.5 Levels"
	MapCenterLat   = 22.0
	MapCenterLon   = 80.0
	MapZoom        = 4
	MapRadius      = 10
	MapStyle       = "carto-positron"
	MapTileURL     = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"
	MapAttribution = "&copy; OpenStreetMap contributors &copy; CARTO"
)

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HeatPoint is one weighted sample of the density layer. Intensity is the
// value normalized to the largest value of the set (0..1).
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Value     float64 `json:"value"`
	Intensity float64 `json:"intensity"`
}

// MapView is everything the page needs to draw the density map.
type MapView struct {
	Title       string      `json:"title"`
	Center      LatLon      `json:"center"`
	Zoom        int         `json:"zoom"`
	Radius      int         `json:"radius"`
	Style       string      `json:"style"`
	TileURL     string      `json:"tile_url"`
	Attribution string      `json:"attribution"`
	Points      []HeatPoint `json:"points"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
}

// HasLayer reports whether a density layer should be drawn on the base map.
func (m MapView) HasLayer() bool { return len(m.Points) > 0 }

// DensityMap builds the map view. An empty input yields the base map only.
func DensityMap(recs []entities.PredictionRecord) MapView {
	mv := MapView{
		Title:       MapTitle,
		Center:      LatLon{Lat: MapCenterLat, Lon: MapCenterLon},
		Zoom:        MapZoom,
		Radius:      MapRadius,
		Style:       MapStyle,
		TileURL:     MapTileURL,
		Attribution: MapAttribution,
		Points:      make([]HeatPoint, 0, len(recs)),
	}
	if len(recs) == 0 {
		return mv
	}

	minv, maxv := math.Inf(1), math.Inf(-1)
	for _, r := range recs {
		minv = math.Min(minv, r.PM25)
		maxv = math.Max(maxv, r.PM25)
	}
	mv.Min, mv.Max = minv, maxv

	for _, r := range recs {
		var in float64
		if maxv > 0 {
			in = math.Max(0, math.Min(1, r.PM25/maxv))
		}
		mv.Points = append(mv.Points, HeatPoint{Lat: r.Lat, Lon: r.Lon, Value: r.PM25, Intensity: in})
	}
	return mv
}
