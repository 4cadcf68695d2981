package entities

import "strings"

// Region is the area picked in the sidebar. It does not filter any data yet.
type Region string

const (
	RegionIndia     Region = "India"
	RegionDelhi     Region = "Delhi"
	RegionMumbai    Region = "Mumbai"
	RegionChennai   Region = "Chennai"
	RegionKolkata   Region = "Kolkata"
	RegionBangalore Region = "Bangalore"
)

// Regions lists the selector options in display order.
var Regions = []Region{RegionIndia, RegionDelhi, RegionMumbai, RegionChennai, RegionKolkata, RegionBangalore}

// ParseRegion matches case-insensitively; ok is false for unknown names.
func ParseRegion(s string) (Region, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Regions {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return RegionIndia, false
}
