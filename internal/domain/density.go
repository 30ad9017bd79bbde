package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// SearchRadiusFeet returns the straight-line search radius used to match
// vehicle activity to routes of the given priority class.
func SearchRadiusFeet(priorityClass int) float64 {
	if priorityClass <= 2 {
		return 50
	}
	return 25
}

// DensityRecord is one route group scored for plow coverage. Records exist
// only for groups with a known positive total length; zero and null length
// groups are excluded before scoring so no record ever divides by zero.
type DensityRecord struct {
	Key              GroupKey
	TotalLengthMiles float64
	ActivityCount    int
	Density          float64
	DensityPct       float64
	LogDensityPct    float64
	Geometry         orb.MultiLineString
}

// Normalize computes coverage scores for one priority class in place of
// ad-hoc per-layer field updates: density per record, then the class
// maximum, then a percentage of that maximum and its log compression.
// When no record in the class has positive density the class maximum is
// zero and every percentage is zero. Ties for the maximum are immaterial:
// the maximum value, not a particular record, normalizes the class.
// The input slice is not modified.
func Normalize(records []DensityRecord) []DensityRecord {
	out := make([]DensityRecord, len(records))
	copy(out, records)

	classMax := 0.0
	for i := range out {
		if out[i].TotalLengthMiles <= 0 {
			out[i].Density = 0
			continue
		}
		out[i].Density = float64(out[i].ActivityCount) / out[i].TotalLengthMiles
		if out[i].Density > classMax {
			classMax = out[i].Density
		}
	}

	for i := range out {
		if classMax > 0 {
			out[i].DensityPct = out[i].Density / classMax * 100
		} else {
			out[i].DensityPct = 0
		}
		out[i].LogDensityPct = math.Log1p(out[i].DensityPct)
	}
	return out
}
