package domain

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/jaketajohnson/SnowTelemetry/internal/geometry"
)

// NoPrecipLabel is the forecast bucket assigned to routes no forecast
// zone covers.
const NoPrecipLabel = "0 to 0 inches"

// severityByLabel is the fixed NWS accumulation bucket vocabulary. Every
// label the forecast feed may emit appears here; anything else is a
// data-quality error.
var severityByLabel = map[string]int{
	NoPrecipLabel:         0,
	"0.01 to 0.10 inches": 1,
	"0.10 to 0.25 inches": 1,
	"0.25 to 0.50 inches": 1,
	"0.50 to 0.75 inches": 1,
	"0.75 to 1.00 inches": 1,
	"1.00 to 1.50 inches": 2,
	"1.50 to 2.00 inches": 2,
	"2.00 to 2.50 inches": 3,
	"2.50 to 3.00 inches": 3,
	"3.00 to 4.00 inches": 4,
	"4.00 to 5.00 inches": 5,
	"5.00 to 6.00 inches": 6,
	"6.00 to 7.00 inches": 7,
	"7.00 to 8.00 inches": 8,
}

// SeverityForLabel maps a forecast bucket label to its ordinal severity.
// An empty label counts as no precipitation. Unknown labels return a
// DataQualityError instead of defaulting.
func SeverityForLabel(label string) (int, error) {
	if label == "" {
		return 0, nil
	}
	s, ok := severityByLabel[label]
	if !ok {
		return 0, &DataQualityError{
			Stage:  "severity_classify",
			Reason: "unmapped forecast label " + label,
		}
	}
	return s, nil
}

// ForecastZone is a precipitation forecast polygon with its bucket label.
type ForecastZone struct {
	Label    string
	Geometry orb.MultiPolygon
}

// DissolveZones merges zones sharing a label into one multi-part polygon
// each. Label order follows first appearance in the feed; that order is
// significant downstream because the last zone containing a route's
// representative point wins on overlap.
func DissolveZones(zones []ForecastZone) []ForecastZone {
	byLabel := make(map[string]int)
	var out []ForecastZone
	for _, z := range zones {
		i, ok := byLabel[z.Label]
		if !ok {
			byLabel[z.Label] = len(out)
			out = append(out, ForecastZone{Label: z.Label})
			i = len(out) - 1
		}
		out[i].Geometry = append(out[i].Geometry, z.Geometry...)
	}
	return out
}

// SeverityRecord is a published density record with its forecast bucket
// and the derived ordinal severity.
type SeverityRecord struct {
	DensityRecord
	ForecastLabel string
	Severity      int
}

// ClassifySeverity assigns every record a forecast label (the label of
// the last zone, in feed order, containing the record's representative
// point, or [NoPrecipLabel] when none does) and maps it to a severity.
// Records whose label cannot be mapped are dropped from the output and
// reported as data-quality errors.
func ClassifySeverity(records []DensityRecord, zones []ForecastZone) ([]SeverityRecord, []*DataQualityError) {
	out := make([]SeverityRecord, 0, len(records))
	var quality []*DataQualityError

	for _, rec := range records {
		label := NoPrecipLabel
		center := geometry.RepresentativePoint(rec.Geometry)
		for _, z := range zones {
			if geometry.ZoneContains(z.Geometry, center) {
				label = z.Label
			}
		}

		severity, err := SeverityForLabel(label)
		if err != nil {
			dq := err.(*DataQualityError)
			dq.Key = rec.Key.String()
			quality = append(quality, dq)
			continue
		}
		out = append(out, SeverityRecord{
			DensityRecord: rec,
			ForecastLabel: label,
			Severity:      severity,
		})
	}
	return out, quality
}

// Snapshot is one complete published run: the merged, severity-classified
// record set downstream consumers overwrite their copy with.
type Snapshot struct {
	RunID       string
	GeneratedAt time.Time
	Records     []SeverityRecord
}
