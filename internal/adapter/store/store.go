// Package store persists the working and published datasets in SQLite.
// Every write is a full transactional overwrite (delete then insert in
// one transaction) so readers only ever see the previous complete run
// or the new one, never a partial mix.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// Store owns the telemetry working database: the simplified-points
// product, the four per-class density datasets, and the published
// merged dataset downstream consumers read.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the working database and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// One connection serializes the concurrent per-class writers instead
	// of surfacing SQLITE_BUSY to them.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS simplified_pings (
			run_id    TEXT NOT NULL,
			unit_id   TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			lon       REAL NOT NULL,
			lat       REAL NOT NULL,
			speed     REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS class_density (
			run_id             TEXT NOT NULL,
			priority_class     INTEGER NOT NULL,
			district           TEXT NOT NULL,
			road_name          TEXT NOT NULL,
			route_id           TEXT NOT NULL DEFAULT '',
			route_number       TEXT NOT NULL DEFAULT '',
			total_length_miles REAL NOT NULL,
			activity_count     INTEGER NOT NULL,
			density            REAL NOT NULL,
			density_pct        REAL NOT NULL,
			log_density_pct    REAL NOT NULL,
			geometry           TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS published_routes (
			run_id             TEXT NOT NULL,
			generated_at       TEXT NOT NULL,
			priority_class     INTEGER NOT NULL,
			district           TEXT NOT NULL,
			road_name          TEXT NOT NULL,
			route_id           TEXT NOT NULL DEFAULT '',
			route_number       TEXT NOT NULL DEFAULT '',
			total_length_miles REAL NOT NULL,
			activity_count     INTEGER NOT NULL,
			density            REAL NOT NULL,
			density_pct        REAL NOT NULL,
			log_density_pct    REAL NOT NULL,
			forecast_label     TEXT,
			severity           INTEGER,
			geometry           TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate store schema: %w", err)
	}
	return nil
}

// ReplaceSimplifiedPings overwrites the simplified-points product.
func (s *Store) ReplaceSimplifiedPings(ctx context.Context, runID string, pings []domain.TelemetryPing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin simplified pings tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM simplified_pings`); err != nil {
		return fmt.Errorf("clear simplified pings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO simplified_pings (run_id, unit_id, timestamp, lon, lat, speed)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare simplified pings insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pings {
		if _, err := stmt.ExecContext(ctx, runID, p.UnitID,
			p.Timestamp.UTC().Format(time.RFC3339), p.Lon, p.Lat, p.Speed); err != nil {
			return fmt.Errorf("insert simplified ping: %w", err)
		}
	}
	return tx.Commit()
}

// ReplaceClassDensity overwrites one priority class's density dataset.
// Classes write to distinct row sets, so the four passes can run
// concurrently.
func (s *Store) ReplaceClassDensity(ctx context.Context, runID string, priorityClass int, records []domain.DensityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class density tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_density WHERE priority_class = ?`, priorityClass); err != nil {
		return fmt.Errorf("clear class %d density: %w", priorityClass, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO class_density (
			run_id, priority_class, district, road_name, route_id, route_number,
			total_length_miles, activity_count, density, density_pct, log_density_pct, geometry
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare class density insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		geom, err := encodeGeometry(r.Geometry)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, priorityClass,
			r.Key.District, r.Key.RoadName, r.Key.RouteID, r.Key.RouteNumber,
			r.TotalLengthMiles, r.ActivityCount, r.Density, r.DensityPct, r.LogDensityPct,
			geom); err != nil {
			return fmt.Errorf("insert class density record: %w", err)
		}
	}
	return tx.Commit()
}

// PublishSnapshot overwrites the published dataset with one run's merged,
// classified records. On any failure the transaction rolls back and the
// previous run's rows remain readable.
func (s *Store) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM published_routes`); err != nil {
		return fmt.Errorf("clear published routes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO published_routes (
			run_id, generated_at, priority_class, district, road_name, route_id, route_number,
			total_length_miles, activity_count, density, density_pct, log_density_pct,
			forecast_label, severity, geometry
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare publish insert: %w", err)
	}
	defer stmt.Close()

	generatedAt := snap.GeneratedAt.UTC().Format(time.RFC3339)
	for _, r := range snap.Records {
		geom, err := encodeGeometry(r.Geometry)
		if err != nil {
			return err
		}
		var label any
		var severity any
		if r.ForecastLabel != "" {
			label = r.ForecastLabel
			severity = r.Severity
		}
		if _, err := stmt.ExecContext(ctx, snap.RunID, generatedAt,
			r.Key.PriorityClass, r.Key.District, r.Key.RoadName, r.Key.RouteID, r.Key.RouteNumber,
			r.TotalLengthMiles, r.ActivityCount, r.Density, r.DensityPct, r.LogDensityPct,
			label, severity, geom); err != nil {
			return fmt.Errorf("insert published record: %w", err)
		}
	}
	return tx.Commit()
}

// PublishedRecords reads back the published dataset, ordered by class and
// key. Used by the validate tool and tests.
func (s *Store) PublishedRecords(ctx context.Context) ([]domain.SeverityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT priority_class, district, road_name, route_id, route_number,
		       total_length_miles, activity_count, density, density_pct, log_density_pct,
		       COALESCE(forecast_label, ''), COALESCE(severity, 0), geometry
		FROM published_routes
		ORDER BY priority_class, district, road_name, route_id, route_number
	`)
	if err != nil {
		return nil, fmt.Errorf("query published routes: %w", err)
	}
	defer rows.Close()

	var records []domain.SeverityRecord
	for rows.Next() {
		var (
			r       domain.SeverityRecord
			geomRaw []byte
		)
		if err := rows.Scan(&r.Key.PriorityClass, &r.Key.District, &r.Key.RoadName,
			&r.Key.RouteID, &r.Key.RouteNumber,
			&r.TotalLengthMiles, &r.ActivityCount, &r.Density, &r.DensityPct, &r.LogDensityPct,
			&r.ForecastLabel, &r.Severity, &geomRaw); err != nil {
			return nil, fmt.Errorf("scan published record: %w", err)
		}
		geom, err := geojson.UnmarshalGeometry(geomRaw)
		if err != nil {
			return nil, fmt.Errorf("decode published geometry: %w", err)
		}
		if ml, ok := geom.Geometry().(orb.MultiLineString); ok {
			r.Geometry = ml
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func encodeGeometry(ml orb.MultiLineString) ([]byte, error) {
	data, err := geojson.NewGeometry(ml).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return data, nil
}
