package domain

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// TelemetryPing is one AVL position report from a plow vehicle.
type TelemetryPing struct {
	UnitID    string    `json:"unit_id"`
	Timestamp time.Time `json:"timestamp"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
	Speed     float64   `json:"speed"` // mph
}

// Point returns the ping position as an orb lon/lat point.
func (p TelemetryPing) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// PingWindow is the extract predicate applied to the AVL feed:
// age strictly under MaxAge and speed at most MaxSpeed.
type PingWindow struct {
	Name     string
	MaxAge   time.Duration
	MaxSpeed float64 // mph
}

// The two extract windows the pipeline runs. Coverage scoring uses the
// primary 24-hour window at plowing speeds; the simplified-points product
// uses the extended 48-hour window.
var (
	PrimaryWindow  = PingWindow{Name: "primary", MaxAge: 25 * time.Hour, MaxSpeed: 35}
	ExtendedWindow = PingWindow{Name: "extended", MaxAge: 49 * time.Hour, MaxSpeed: 100}
)

// Admit reports whether a ping satisfies the window predicate at time now.
// Pings with a missing unit or a zero timestamp never pass; their age
// cannot be established.
func (w PingWindow) Admit(p TelemetryPing, now time.Time) bool {
	if p.UnitID == "" || p.Timestamp.IsZero() {
		return false
	}
	age := now.Sub(p.Timestamp)
	return age >= 0 && age < w.MaxAge && p.Speed <= w.MaxSpeed
}

// FilterPings returns the pings admitted by the window, ordered by unit
// then timestamp so repeated runs over the same input are byte-identical.
func FilterPings(pings []TelemetryPing, w PingWindow) []TelemetryPing {
	now := clock.Now()
	out := make([]TelemetryPing, 0, len(pings))
	for _, p := range pings {
		if w.Admit(p, now) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
