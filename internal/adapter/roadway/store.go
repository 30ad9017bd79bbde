// Package roadway reads the public works roadway inventory from its
// SQLite extract. Geometries are stored as GeoJSON text.
package roadway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// Store implements pipeline.RoadwaySource over a SQLite database holding
// the roadway_segments table.
type Store struct {
	db *sql.DB
}

// Open opens the roadway inventory database read-only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open roadway db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle, used by tests and fixtures.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// Segments reads the full inventory. Connection-level failures surface as
// SourceUnavailableError so the run aborts before overwriting anything.
func (s *Store) Segments(ctx context.Context) ([]domain.RouteSegment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT district, priority_class, road_name,
		       COALESCE(route_id, ''), COALESCE(route_number, ''),
		       length_miles, geometry
		FROM roadway_segments
	`)
	if err != nil {
		return nil, &domain.SourceUnavailableError{Source: "roadway", Err: err}
	}
	defer rows.Close()

	var segments []domain.RouteSegment
	for rows.Next() {
		var (
			seg     domain.RouteSegment
			length  sql.NullFloat64
			geomRaw []byte
		)
		if err := rows.Scan(&seg.District, &seg.PriorityClass, &seg.RoadName,
			&seg.RouteID, &seg.RouteNumber, &length, &geomRaw); err != nil {
			return nil, fmt.Errorf("scan roadway segment: %w", err)
		}
		if length.Valid {
			v := length.Float64
			seg.LengthMiles = &v
		}
		if len(geomRaw) > 0 {
			geom, err := geojson.UnmarshalGeometry(geomRaw)
			if err != nil {
				return nil, fmt.Errorf("decode segment geometry (%s/%s): %w", seg.District, seg.RoadName, err)
			}
			line, ok := geom.Geometry().(orb.LineString)
			if !ok {
				return nil, fmt.Errorf("segment geometry (%s/%s): expected LineString, got %s",
					seg.District, seg.RoadName, geom.Type)
			}
			seg.Geometry = line
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.SourceUnavailableError{Source: "roadway", Err: err}
	}
	return segments, nil
}
