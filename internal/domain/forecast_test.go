package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityForLabel(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"", 0},
		{"0 to 0 inches", 0},
		{"0.01 to 0.10 inches", 1},
		{"0.10 to 0.25 inches", 1},
		{"0.25 to 0.50 inches", 1},
		{"0.50 to 0.75 inches", 1},
		{"0.75 to 1.00 inches", 1},
		{"1.00 to 1.50 inches", 2},
		{"1.50 to 2.00 inches", 2},
		{"2.00 to 2.50 inches", 3},
		{"2.50 to 3.00 inches", 3},
		{"3.00 to 4.00 inches", 4},
		{"4.00 to 5.00 inches", 5},
		{"5.00 to 6.00 inches", 6},
		{"6.00 to 7.00 inches", 7},
		{"7.00 to 8.00 inches", 8},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := SeverityForLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown label is a data quality error", func(t *testing.T) {
		_, err := SeverityForLabel("8.00 to 9.00 inches")
		require.Error(t, err)
		var dq *DataQualityError
		require.ErrorAs(t, err, &dq)
		assert.Contains(t, dq.Reason, "unmapped forecast label")
	})
}

// zoneAround builds a square forecast zone centered on (lon, lat).
func zoneAround(label string, lon, lat, half float64) ForecastZone {
	return ForecastZone{
		Label: label,
		Geometry: orb.MultiPolygon{{
			{
				{lon - half, lat - half},
				{lon + half, lat - half},
				{lon + half, lat + half},
				{lon - half, lat + half},
				{lon - half, lat - half},
			},
		}},
	}
}

// routeAt builds a short published record centered on (lon, lat).
func routeAt(name string, class int, lon, lat float64) DensityRecord {
	return DensityRecord{
		Key:              GroupKey{District: "SE", PriorityClass: class, RoadName: name},
		TotalLengthMiles: 1,
		Geometry: orb.MultiLineString{
			{{lon - 0.001, lat}, {lon + 0.001, lat}},
		},
	}
}

func TestClassifySeverity(t *testing.T) {
	t.Run("label from containing zone", func(t *testing.T) {
		records := []DensityRecord{
			routeAt("IN ZONE", 1, -89.65, 39.78),
			routeAt("OUTSIDE", 2, -89.20, 39.40),
		}
		zones := []ForecastZone{
			zoneAround("1.00 to 1.50 inches", -89.65, 39.78, 0.05),
		}

		out, quality := ClassifySeverity(records, zones)
		require.Empty(t, quality)
		require.Len(t, out, 2)

		assert.Equal(t, "1.00 to 1.50 inches", out[0].ForecastLabel)
		assert.Equal(t, 2, out[0].Severity)

		assert.Equal(t, NoPrecipLabel, out[1].ForecastLabel)
		assert.Zero(t, out[1].Severity)
	})

	t.Run("no zones leaves the no-precipitation default", func(t *testing.T) {
		out, quality := ClassifySeverity([]DensityRecord{routeAt("A", 1, -89.65, 39.78)}, nil)
		require.Empty(t, quality)
		require.Len(t, out, 1)
		assert.Equal(t, NoPrecipLabel, out[0].ForecastLabel)
		assert.Zero(t, out[0].Severity)
	})

	t.Run("last overlapping zone wins", func(t *testing.T) {
		records := []DensityRecord{routeAt("A", 1, -89.65, 39.78)}
		zones := []ForecastZone{
			zoneAround("0.25 to 0.50 inches", -89.65, 39.78, 0.05),
			zoneAround("2.00 to 2.50 inches", -89.65, 39.78, 0.05),
		}

		out, _ := ClassifySeverity(records, zones)
		require.Len(t, out, 1)
		assert.Equal(t, "2.00 to 2.50 inches", out[0].ForecastLabel)
		assert.Equal(t, 3, out[0].Severity)
	})

	t.Run("unmapped zone label drops the record with context", func(t *testing.T) {
		records := []DensityRecord{routeAt("A", 1, -89.65, 39.78)}
		zones := []ForecastZone{
			zoneAround("not a bucket", -89.65, 39.78, 0.05),
		}

		out, quality := ClassifySeverity(records, zones)
		assert.Empty(t, out)
		require.Len(t, quality, 1)
		assert.Equal(t, "SE/1/A", quality[0].Key)
	})
}

func TestDissolveZones(t *testing.T) {
	zones := []ForecastZone{
		zoneAround("0.25 to 0.50 inches", -89.0, 39.0, 0.1),
		zoneAround("1.00 to 1.50 inches", -90.0, 40.0, 0.1),
		zoneAround("0.25 to 0.50 inches", -88.0, 38.0, 0.1),
	}

	out := DissolveZones(zones)
	require.Len(t, out, 2)

	// First-appearance order preserved.
	assert.Equal(t, "0.25 to 0.50 inches", out[0].Label)
	assert.Len(t, out[0].Geometry, 2)
	assert.Equal(t, "1.00 to 1.50 inches", out[1].Label)
	assert.Len(t, out[1].Geometry, 1)
}
