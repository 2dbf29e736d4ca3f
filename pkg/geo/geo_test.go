package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKnownLocations(t *testing.T) {
	tests := []struct {
		location string
		want     Point
	}{
		{"BGC Taguig", Point{14.5494, 121.0509}}, // "bgc" matches before "taguig"
		{"somewhere in Makati", Point{14.5547, 121.0244}},
		{"Quezon City", Point{14.6760, 121.0437}},
		{"near Greenhills mall", Point{14.5997, 121.0382}},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			point, resolved := Resolve(tt.location)
			assert.True(t, resolved)
			assert.Equal(t, tt.want, point)
		})
	}
}

func TestResolveUnknownFallsBackToCityCenter(t *testing.T) {
	point, resolved := Resolve("Cebu City")
	assert.False(t, resolved)
	assert.Equal(t, Point{FallbackLat, FallbackLng}, point)
}

func TestDistanceKmIsDeterministic(t *testing.T) {
	bgc := Point{14.5494, 121.0509}
	makati := Point{14.5567, 121.0150}

	d1 := DistanceKm(bgc, makati)
	d2 := DistanceKm(bgc, makati)
	assert.Equal(t, d1, d2)
	assert.Greater(t, d1, 0.0)
	assert.Less(t, d1, 10.0)

	// Rounded to 2 decimal places.
	assert.Equal(t, d1, float64(int(d1*100))/100)
}

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	p := Point{14.5995, 120.9842}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}
