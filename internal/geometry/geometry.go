// Package geometry provides the planar spatial operations the pipeline
// needs: minimum distance between polylines, within-radius activity
// counting, representative points, and point-in-polygon tests. All inputs
// are WGS-84 lon/lat; distances are computed in a local equirectangular
// frame scaled to feet, which is accurate well below a foot at the
// sub-mile ranges the search radii use.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	feetPerMeter       = 3.28084
	metersPerDegreeLat = 111320.0
)

// frame is a local planar projection centered on a reference latitude,
// with axes in feet.
type frame struct {
	lonScale float64
	latScale float64
}

func frameAt(refLat float64) frame {
	latFeet := metersPerDegreeLat * feetPerMeter
	return frame{
		lonScale: latFeet * math.Cos(refLat*math.Pi/180),
		latScale: latFeet,
	}
}

func (f frame) project(p orb.Point) orb.Point {
	return orb.Point{p[0] * f.lonScale, p[1] * f.latScale}
}

// LineDistanceFeet returns the minimum straight-line distance in feet
// between a polyline and a multi-part polyline. Either geometry having
// fewer than two points in every part yields +Inf (no measurable extent).
func LineDistanceFeet(a orb.LineString, b orb.MultiLineString) float64 {
	if len(a) < 2 {
		return math.Inf(1)
	}
	f := frameAt(a[0][1])

	pa := make(orb.LineString, len(a))
	for i, p := range a {
		pa[i] = f.project(p)
	}

	best := math.Inf(1)
	for _, part := range b {
		if len(part) < 2 {
			continue
		}
		pb := make(orb.LineString, len(part))
		for i, p := range part {
			pb[i] = f.project(p)
		}
		if d := lineToLine(pa, pb); d < best {
			best = d
		}
	}
	return best
}

// CountTracksWithin counts how many of the polylines pass within radius
// feet of the target multi-part polyline. Degenerate (single-point)
// polylines never count.
func CountTracksWithin(target orb.MultiLineString, tracks []orb.LineString, radiusFeet float64) int {
	n := 0
	for _, t := range tracks {
		if LineDistanceFeet(t, target) <= radiusFeet {
			n++
		}
	}
	return n
}

// RepresentativePoint returns the length-weighted centroid of a
// multi-part polyline, the point used for zone containment tests.
func RepresentativePoint(ml orb.MultiLineString) orb.Point {
	c, _ := planar.CentroidArea(ml)
	return c
}

// ZoneContains reports whether a point lies inside a multi-part polygon.
func ZoneContains(mp orb.MultiPolygon, p orb.Point) bool {
	return planar.MultiPolygonContains(mp, p)
}

// lineToLine returns the minimum distance between two projected polylines,
// the smallest of all pairwise segment distances.
func lineToLine(a, b orb.LineString) float64 {
	best := math.Inf(1)
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			d := segmentDistance(a[i], a[i+1], b[j], b[j+1])
			if d < best {
				best = d
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

// segmentDistance returns the minimum distance between segments p1-p2 and
// q1-q2: zero when they intersect, otherwise the smallest endpoint-to-
// segment distance.
func segmentDistance(p1, p2, q1, q2 orb.Point) float64 {
	if segmentsIntersect(p1, p2, q1, q2) {
		return 0
	}
	return math.Min(
		math.Min(pointToSegment(p1, q1, q2), pointToSegment(p2, q1, q2)),
		math.Min(pointToSegment(q1, p1, p2), pointToSegment(q2, p1, p2)),
	)
}

// pointToSegment returns the distance from p to segment a-b.
func pointToSegment(p, a, b orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return planar.Distance(p, a)
	}
	t := ((p[0]-a[0])*abx + (p[1]-a[1])*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := orb.Point{a[0] + t*abx, a[1] + t*aby}
	return planar.Distance(p, closest)
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
