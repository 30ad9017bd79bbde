package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("scores against class maximum", func(t *testing.T) {
		records := []DensityRecord{
			{Key: GroupKey{RoadName: "A", PriorityClass: 1}, TotalLengthMiles: 10, ActivityCount: 20},
			{Key: GroupKey{RoadName: "B", PriorityClass: 1}, TotalLengthMiles: 5, ActivityCount: 5},
		}

		out := Normalize(records)
		require.Len(t, out, 2)

		assert.InDelta(t, 2.0, out[0].Density, 1e-12)
		assert.InDelta(t, 100.0, out[0].DensityPct, 1e-9)
		assert.InDelta(t, math.Log(101), out[0].LogDensityPct, 1e-9)

		assert.InDelta(t, 1.0, out[1].Density, 1e-12)
		assert.InDelta(t, 50.0, out[1].DensityPct, 1e-9)
		assert.InDelta(t, math.Log1p(50), out[1].LogDensityPct, 1e-9)
	})

	t.Run("maximum record scores exactly 100", func(t *testing.T) {
		records := []DensityRecord{
			{TotalLengthMiles: 3.7, ActivityCount: 13},
			{TotalLengthMiles: 9.1, ActivityCount: 4},
			{TotalLengthMiles: 0.4, ActivityCount: 1},
		}

		out := Normalize(records)

		maxPct := 0.0
		for _, r := range out {
			assert.GreaterOrEqual(t, r.DensityPct, 0.0)
			assert.LessOrEqual(t, r.DensityPct, 100.0+1e-9)
			if r.DensityPct > maxPct {
				maxPct = r.DensityPct
			}
		}
		assert.InDelta(t, 100.0, maxPct, 1e-9)
	})

	t.Run("class with no activity scores zero everywhere", func(t *testing.T) {
		records := []DensityRecord{
			{TotalLengthMiles: 10},
			{TotalLengthMiles: 2},
		}

		out := Normalize(records)

		for _, r := range out {
			assert.Zero(t, r.Density)
			assert.Zero(t, r.DensityPct)
			assert.Zero(t, r.LogDensityPct)
			assert.False(t, math.IsNaN(r.DensityPct))
		}
	})

	t.Run("zero length never divides", func(t *testing.T) {
		records := []DensityRecord{
			{TotalLengthMiles: 0, ActivityCount: 7},
			{TotalLengthMiles: 4, ActivityCount: 8},
		}

		out := Normalize(records)

		assert.Zero(t, out[0].Density)
		assert.Zero(t, out[0].DensityPct)
		assert.False(t, math.IsInf(out[0].Density, 0))
		assert.InDelta(t, 100.0, out[1].DensityPct, 1e-9)
	})

	t.Run("tied maxima all score 100", func(t *testing.T) {
		records := []DensityRecord{
			{TotalLengthMiles: 10, ActivityCount: 20},
			{TotalLengthMiles: 5, ActivityCount: 10},
			{TotalLengthMiles: 2, ActivityCount: 1},
		}

		out := Normalize(records)

		assert.InDelta(t, 100.0, out[0].DensityPct, 1e-9)
		assert.InDelta(t, 100.0, out[1].DensityPct, 1e-9)
		assert.InDelta(t, 25.0, out[2].DensityPct, 1e-9)
	})

	t.Run("input slice untouched", func(t *testing.T) {
		records := []DensityRecord{{TotalLengthMiles: 10, ActivityCount: 20}}

		_ = Normalize(records)

		assert.Zero(t, records[0].Density)
		assert.Zero(t, records[0].DensityPct)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})
}

func TestSearchRadiusFeet(t *testing.T) {
	assert.Equal(t, 50.0, SearchRadiusFeet(1))
	assert.Equal(t, 50.0, SearchRadiusFeet(2))
	assert.Equal(t, 25.0, SearchRadiusFeet(3))
	assert.Equal(t, 25.0, SearchRadiusFeet(4))
}
