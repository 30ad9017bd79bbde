package domain

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// VehicleTrack is the open polyline traced by one unit's pings in
// timestamp order. It is never closed back to its start.
type VehicleTrack struct {
	UnitID   string
	Start    time.Time
	End      time.Time
	Geometry orb.LineString
}

// Degenerate reports whether the track has no measurable extent
// (a unit that reported a single ping). Degenerate tracks are kept so
// callers can account for them, but they contribute nothing to coverage.
func (t VehicleTrack) Degenerate() bool { return len(t.Geometry) < 2 }

// BuildTracks groups pings by unit, orders each group by timestamp
// ascending, and builds one open polyline per unit. Tracks are returned
// sorted by unit ID for deterministic output.
func BuildTracks(pings []TelemetryPing) []VehicleTrack {
	byUnit := make(map[string][]TelemetryPing)
	for _, p := range pings {
		byUnit[p.UnitID] = append(byUnit[p.UnitID], p)
	}

	tracks := make([]VehicleTrack, 0, len(byUnit))
	for unit, group := range byUnit {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		line := make(orb.LineString, 0, len(group))
		for _, p := range group {
			line = append(line, p.Point())
		}

		tracks = append(tracks, VehicleTrack{
			UnitID:   unit,
			Start:    group[0].Timestamp,
			End:      group[len(group)-1].Timestamp,
			Geometry: line,
		})
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].UnitID < tracks[j].UnitID })
	return tracks
}
