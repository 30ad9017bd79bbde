package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

// feetPerDegreeLat at the equator, where the local frame is isotropic.
const feetPerDegreeLat = metersPerDegreeLat * feetPerMeter

// latOffset converts a north-south distance in feet to degrees of latitude.
func latOffset(feet float64) float64 {
	return feet / feetPerDegreeLat
}

func TestLineDistanceFeet(t *testing.T) {
	t.Run("crossing lines are at distance zero", func(t *testing.T) {
		a := orb.LineString{{-0.001, 0}, {0.001, 0}}
		b := orb.MultiLineString{{{0, -0.001}, {0, 0.001}}}
		assert.Zero(t, LineDistanceFeet(a, b))
	})

	t.Run("parallel lines measure their separation", func(t *testing.T) {
		a := orb.LineString{{-0.001, 0}, {0.001, 0}}
		b := orb.MultiLineString{{{-0.001, latOffset(100)}, {0.001, latOffset(100)}}}
		assert.InDelta(t, 100, LineDistanceFeet(a, b), 0.1)
	})

	t.Run("nearest of several parts wins", func(t *testing.T) {
		a := orb.LineString{{-0.001, 0}, {0.001, 0}}
		b := orb.MultiLineString{
			{{-0.001, latOffset(500)}, {0.001, latOffset(500)}},
			{{-0.001, latOffset(40)}, {0.001, latOffset(40)}},
		}
		assert.InDelta(t, 40, LineDistanceFeet(a, b), 0.1)
	})

	t.Run("degenerate inputs have no measurable distance", func(t *testing.T) {
		point := orb.LineString{{0, 0}}
		line := orb.MultiLineString{{{-0.001, 0}, {0.001, 0}}}
		assert.True(t, math.IsInf(LineDistanceFeet(point, line), 1))

		a := orb.LineString{{-0.001, 0}, {0.001, 0}}
		assert.True(t, math.IsInf(LineDistanceFeet(a, orb.MultiLineString{{{0, 0}}}), 1))
		assert.True(t, math.IsInf(LineDistanceFeet(a, nil), 1))
	})
}

func TestCountTracksWithin(t *testing.T) {
	target := orb.MultiLineString{{{-0.001, 0}, {0.001, 0}}}
	tracks := []orb.LineString{
		{{-0.001, latOffset(30)}, {0.001, latOffset(30)}},
		{{-0.001, latOffset(49)}, {0.001, latOffset(49)}},
		{{-0.001, latOffset(200)}, {0.001, latOffset(200)}},
		// Degenerate single-point track, never counts.
		{{0, latOffset(10)}},
	}

	assert.Equal(t, 2, CountTracksWithin(target, tracks, 50))
	assert.Equal(t, 1, CountTracksWithin(target, tracks, 35))
	assert.Equal(t, 0, CountTracksWithin(target, nil, 50))
}

func TestRepresentativePoint(t *testing.T) {
	ml := orb.MultiLineString{
		{{-1, 0}, {1, 0}},
	}
	c := RepresentativePoint(ml)
	assert.InDelta(t, 0, c[0], 1e-9)
	assert.InDelta(t, 0, c[1], 1e-9)
}

func TestZoneContains(t *testing.T) {
	zone := orb.MultiPolygon{{
		{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}},
	}}

	assert.True(t, ZoneContains(zone, orb.Point{0, 0}))
	assert.False(t, ZoneContains(zone, orb.Point{2, 2}))
}
