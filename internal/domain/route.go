package domain

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// SentinelDistrict marks roadway segments excluded for data quality.
// It is an upstream data-entry placeholder, not a real district.
const SentinelDistrict = "NORTE"

// RouteSegment is one raw roadway inventory record.
type RouteSegment struct {
	District      string
	PriorityClass int // 1 = trouble spot ... 4 = neighborhood section
	RoadName      string
	RouteID       string
	RouteNumber   string
	LengthMiles   *float64 // nil when the inventory carries no length
	Geometry      orb.LineString
}

// GroupKey identifies one dissolved route group. RouteID and RouteNumber
// stay empty unless fine-grained dissolve is enabled.
type GroupKey struct {
	District      string
	PriorityClass int
	RoadName      string
	RouteID       string
	RouteNumber   string
}

// String renders the key for log lines and error context.
func (k GroupKey) String() string {
	if k.RouteID == "" && k.RouteNumber == "" {
		return fmt.Sprintf("%s/%d/%s", k.District, k.PriorityClass, k.RoadName)
	}
	return fmt.Sprintf("%s/%d/%s/%s/%s", k.District, k.PriorityClass, k.RoadName, k.RouteID, k.RouteNumber)
}

// RouteGroup is the dissolve of all segments sharing a key: one multi-part
// line geometry (unsplit, parts are not broken at intersections) and the
// summed length. TotalLengthMiles is nil when no member carried a length.
type RouteGroup struct {
	Key              GroupKey
	TotalLengthMiles *float64
	Geometry         orb.MultiLineString
}

// DissolveOptions controls route grouping granularity.
type DissolveOptions struct {
	// FineGrained adds route ID and route number to the group key.
	FineGrained bool
}

// Dissolve groups roadway segments by (district, priority class, road name),
// plus route ID/number when fine-grained, summing lengths and unioning
// geometries. Segments in the sentinel district are excluded. Segments with
// an out-of-range priority class or a negative length are skipped and
// reported as data-quality errors. Groups come back sorted by key.
func Dissolve(segments []RouteSegment, opts DissolveOptions) ([]RouteGroup, []*DataQualityError) {
	groups := make(map[GroupKey]*RouteGroup)
	var quality []*DataQualityError

	for _, seg := range segments {
		if seg.District == SentinelDistrict {
			continue
		}
		if seg.PriorityClass < 1 || seg.PriorityClass > 4 {
			quality = append(quality, &DataQualityError{
				Stage:  "route_dissolve",
				Key:    fmt.Sprintf("%s/%s", seg.District, seg.RoadName),
				Reason: fmt.Sprintf("priority class %d outside 1-4", seg.PriorityClass),
			})
			continue
		}
		if seg.LengthMiles != nil && *seg.LengthMiles < 0 {
			quality = append(quality, &DataQualityError{
				Stage:  "route_dissolve",
				Key:    fmt.Sprintf("%s/%s", seg.District, seg.RoadName),
				Reason: fmt.Sprintf("negative segment length %.3f", *seg.LengthMiles),
			})
			continue
		}

		key := GroupKey{
			District:      seg.District,
			PriorityClass: seg.PriorityClass,
			RoadName:      seg.RoadName,
		}
		if opts.FineGrained {
			key.RouteID = seg.RouteID
			key.RouteNumber = seg.RouteNumber
		}

		g, ok := groups[key]
		if !ok {
			g = &RouteGroup{Key: key}
			groups[key] = g
		}
		if seg.LengthMiles != nil {
			if g.TotalLengthMiles == nil {
				total := 0.0
				g.TotalLengthMiles = &total
			}
			*g.TotalLengthMiles += *seg.LengthMiles
		}
		if len(seg.Geometry) > 0 {
			g.Geometry = append(g.Geometry, seg.Geometry)
		}
	}

	out := make([]RouteGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return out, quality
}

func lessKey(a, b GroupKey) bool {
	if a.PriorityClass != b.PriorityClass {
		return a.PriorityClass < b.PriorityClass
	}
	if a.District != b.District {
		return a.District < b.District
	}
	if a.RoadName != b.RoadName {
		return a.RoadName < b.RoadName
	}
	if a.RouteID != b.RouteID {
		return a.RouteID < b.RouteID
	}
	return a.RouteNumber < b.RouteNumber
}
