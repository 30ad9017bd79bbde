package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lengthPtr(v float64) *float64 { return &v }

func segment(district string, class int, road string, miles float64, line orb.LineString) RouteSegment {
	return RouteSegment{
		District:      district,
		PriorityClass: class,
		RoadName:      road,
		LengthMiles:   lengthPtr(miles),
		Geometry:      line,
	}
}

func TestDissolve(t *testing.T) {
	lineA := orb.LineString{{-89.64, 39.78}, {-89.63, 39.78}}
	lineB := orb.LineString{{-89.63, 39.78}, {-89.62, 39.78}}

	t.Run("sums lengths and unions geometry per key", func(t *testing.T) {
		segments := []RouteSegment{
			segment("SE", 1, "VETERANS PKWY", 1.5, lineA),
			segment("SE", 1, "VETERANS PKWY", 2.0, lineB),
			segment("SE", 2, "MONROE ST", 0.7, lineA),
		}

		groups, quality := Dissolve(segments, DissolveOptions{})
		require.Empty(t, quality)
		require.Len(t, groups, 2)

		veterans := groups[0]
		assert.Equal(t, GroupKey{District: "SE", PriorityClass: 1, RoadName: "VETERANS PKWY"}, veterans.Key)
		require.NotNil(t, veterans.TotalLengthMiles)
		assert.InDelta(t, 3.5, *veterans.TotalLengthMiles, 1e-12)
		// Unsplit union: both member parts preserved, not re-split.
		assert.Len(t, veterans.Geometry, 2)

		monroe := groups[1]
		assert.Equal(t, 2, monroe.Key.PriorityClass)
		assert.InDelta(t, 0.7, *monroe.TotalLengthMiles, 1e-12)
	})

	t.Run("sentinel district excluded", func(t *testing.T) {
		segments := []RouteSegment{
			segment(SentinelDistrict, 1, "PLACEHOLDER", 1, lineA),
			segment("NW", 1, "REAL RD", 1, lineB),
		}

		groups, quality := Dissolve(segments, DissolveOptions{})
		require.Empty(t, quality)
		require.Len(t, groups, 1)
		assert.Equal(t, "NW", groups[0].Key.District)
	})

	t.Run("null lengths stay null", func(t *testing.T) {
		segments := []RouteSegment{
			{District: "SE", PriorityClass: 3, RoadName: "ASH ST", Geometry: lineA},
			{District: "SE", PriorityClass: 3, RoadName: "ASH ST", Geometry: lineB},
		}

		groups, quality := Dissolve(segments, DissolveOptions{})
		require.Empty(t, quality)
		require.Len(t, groups, 1)
		assert.Nil(t, groups[0].TotalLengthMiles)
	})

	t.Run("partial lengths sum the known ones", func(t *testing.T) {
		segments := []RouteSegment{
			{District: "SE", PriorityClass: 3, RoadName: "ASH ST", Geometry: lineA},
			segment("SE", 3, "ASH ST", 0.4, lineB),
		}

		groups, _ := Dissolve(segments, DissolveOptions{})
		require.Len(t, groups, 1)
		require.NotNil(t, groups[0].TotalLengthMiles)
		assert.InDelta(t, 0.4, *groups[0].TotalLengthMiles, 1e-12)
	})

	t.Run("bad records reported and skipped", func(t *testing.T) {
		segments := []RouteSegment{
			segment("SE", 7, "BAD CLASS", 1, lineA),
			segment("SE", 2, "NEGATIVE", -3, lineA),
			segment("SE", 2, "GOOD", 1, lineB),
		}

		groups, quality := Dissolve(segments, DissolveOptions{})
		require.Len(t, groups, 1)
		assert.Equal(t, "GOOD", groups[0].Key.RoadName)
		require.Len(t, quality, 2)
		assert.Contains(t, quality[0].Reason, "priority class 7")
		assert.Contains(t, quality[1].Reason, "negative segment length")
	})

	t.Run("fine-grained keys split by route id", func(t *testing.T) {
		s1 := segment("SE", 1, "VETERANS PKWY", 1, lineA)
		s1.RouteID = "R101"
		s2 := segment("SE", 1, "VETERANS PKWY", 2, lineB)
		s2.RouteID = "R102"

		coarse, _ := Dissolve([]RouteSegment{s1, s2}, DissolveOptions{})
		assert.Len(t, coarse, 1)

		fine, _ := Dissolve([]RouteSegment{s1, s2}, DissolveOptions{FineGrained: true})
		assert.Len(t, fine, 2)
	})

	t.Run("deterministic order", func(t *testing.T) {
		segments := []RouteSegment{
			segment("SE", 2, "B ST", 1, lineA),
			segment("NW", 1, "Z ST", 1, lineA),
			segment("SE", 1, "A ST", 1, lineA),
		}

		groups, _ := Dissolve(segments, DissolveOptions{})
		require.Len(t, groups, 3)
		assert.Equal(t, 1, groups[0].Key.PriorityClass)
		assert.Equal(t, "NW", groups[0].Key.District)
		assert.Equal(t, "A ST", groups[1].Key.RoadName)
		assert.Equal(t, 2, groups[2].Key.PriorityClass)
	})
}
