// Package geo provides great-circle distance computation and a static
// location lookup standing in for real geocoding.
package geo

import (
	"math"
	"strings"

	"mediroute/pkg/logx"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Manila city-center fallback used when a location cannot be resolved.
const (
	FallbackLat = 14.5995
	FallbackLng = 120.9842
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// locationTable maps known Metro Manila district and landmark names to
// coordinates. Matching is by case-insensitive substring containment, in
// table order, so more specific keys must precede broader ones.
var locationTable = []struct {
	key   string
	point Point
}{
	{"bgc", Point{14.5494, 121.0509}},
	{"bonifacio global city", Point{14.5494, 121.0509}},
	{"taguig", Point{14.5243, 121.0792}},
	{"makati", Point{14.5547, 121.0244}},
	{"ortigas", Point{14.5872, 121.0674}},
	{"pasig", Point{14.5764, 121.0851}},
	{"quezon city", Point{14.6760, 121.0437}},
	{"qc", Point{14.6760, 121.0437}},
	{"manila", Point{14.5995, 120.9842}},
	{"malate", Point{14.5649, 120.9904}},
	{"ermita", Point{14.5831, 120.9794}},
	{"alabang", Point{14.4195, 121.0347}},
	{"muntinlupa", Point{14.4081, 121.0415}},
	{"san juan", Point{14.5997, 121.0382}},
	{"greenhills", Point{14.5997, 121.0382}},
	{"mandaluyong", Point{14.5794, 121.0359}},
}

var logger = logx.NewLogger("geo")

// Resolve maps a free-text location to coordinates. Unrecognized locations
// default to the Metro Manila center; resolved reports whether a table key
// matched.
func Resolve(location string) (point Point, resolved bool) {
	lower := strings.ToLower(location)
	for _, entry := range locationTable {
		if strings.Contains(lower, entry.key) {
			return entry.point, true
		}
	}
	logger.Warn("location not recognized: %q - defaulting to Metro Manila center", location)
	return Point{FallbackLat, FallbackLng}, false
}

// DistanceKm computes the haversine great-circle distance between two
// points, rounded to 2 decimal places.
func DistanceKm(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlat := radians(b.Lat - a.Lat)
	dlng := radians(b.Lng - a.Lng)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	d := earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(d*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
