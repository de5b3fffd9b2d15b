package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmHarareSellers(t *testing.T) {
	// Two of the seeded Harare sellers, roughly 1 km apart.
	d := DistanceKm(-17.8201, 31.0369, -17.8290, 31.0410)
	assert.InDelta(t, 1.04, d, 0.05)
}

func TestDistanceKmSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{-17.8201, 31.0369, -17.8290, 31.0410},
		{0, 0, 51.5074, -0.1278},
		{89.9, 179.9, -89.9, -179.9},
		{-33.9249, 18.4241, 40.7128, -74.0060},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1], p[2], p[3])
		ba := DistanceKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceKmZero(t *testing.T) {
	d := DistanceKm(-17.8201, 31.0369, -17.8201, 31.0369)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestDistanceKmNearAntipodal(t *testing.T) {
	// The clamp keeps the formula finite at (near-)antipodal separation,
	// where the intermediate can drift past 1.
	d := DistanceKm(0, 0, 0, 180)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*6371.0, d, 1.0)
}

func TestDistanceKmKnownCity(t *testing.T) {
	// Harare CBD to Johannesburg, ~956 km.
	d := DistanceKm(-17.8292, 31.0522, -26.2041, 28.0473)
	assert.InDelta(t, 956, d, 15)
}
