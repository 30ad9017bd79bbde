// Command genfixtures builds local development fixtures: a roadway
// inventory SQLite database with a small street grid across all four
// priority classes, and an AVL feed JSON file with plow tracks running
// along those streets. Point a dev AVL stub and ROADWAY_DB at the output
// to exercise the full pipeline without city data access.
//
// Usage:
//
//	go run ./cmd/genfixtures -roadway-db roadway.db -avl-json avl_pings.json
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"
)

// Fixture streets sit on a grid near Springfield, IL city center.
const (
	baseLon = -89.6501
	baseLat = 39.7817
	// Roughly 0.25 miles of longitude at this latitude.
	lonStep = 0.0047
	latStep = 0.0036
)

type fixtureSegment struct {
	district    string
	class       int
	roadName    string
	routeID     string
	routeNumber string
	lengthMiles float64
	line        orb.LineString
}

type wirePing struct {
	UnitName string  `json:"unitName"`
	Datetime string  `json:"datetime"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Speed    float64 `json:"spd"`
}

func main() {
	roadwayDB := flag.String("roadway-db", "roadway.db", "output path for the roadway fixture database")
	avlJSON := flag.String("avl-json", "avl_pings.json", "output path for the AVL feed fixture")
	flag.Parse()

	if err := run(*roadwayDB, *avlJSON); err != nil {
		log.Fatal(err)
	}
}

func run(roadwayPath, avlPath string) error {
	segments := gridSegments()

	if err := writeRoadway(roadwayPath, segments); err != nil {
		return err
	}
	if err := writeAVL(avlPath, segments); err != nil {
		return err
	}

	fmt.Printf("wrote %d segments to %s and AVL fixture to %s\n", len(segments), roadwayPath, avlPath)
	return nil
}

// gridSegments lays out two streets per priority class plus a sentinel
// district row the pipeline must drop.
func gridSegments() []fixtureSegment {
	var segments []fixtureSegment
	names := map[int][2]string{
		1: {"VETERANS PKWY", "MACARTHUR BLVD"},
		2: {"SOUTH GRAND AVE", "MONROE ST"},
		3: {"LAUREL ST", "ASH ST"},
		4: {"WHITTIER AVE", "HOLMES AVE"},
	}
	for class := 1; class <= 4; class++ {
		for i, name := range names[class] {
			row := float64((class-1)*2 + i)
			start := orb.Point{baseLon, baseLat + row*latStep}
			segments = append(segments, fixtureSegment{
				district:    "SE",
				class:       class,
				roadName:    name,
				routeID:     fmt.Sprintf("R%d%02d", class, i),
				routeNumber: fmt.Sprintf("%d", 100+int(row)),
				lengthMiles: 0.5,
				line: orb.LineString{
					start,
					{start[0] + lonStep, start[1]},
					{start[0] + 2*lonStep, start[1]},
				},
			})
		}
	}
	segments = append(segments, fixtureSegment{
		district: "NORTE", class: 1, roadName: "PLACEHOLDER", lengthMiles: 1,
		line: orb.LineString{{baseLon, baseLat - latStep}, {baseLon + lonStep, baseLat - latStep}},
	})
	return segments
}

func writeRoadway(path string, segments []fixtureSegment) error {
	os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open roadway fixture db: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE roadway_segments (
			district       TEXT NOT NULL,
			priority_class INTEGER NOT NULL,
			road_name      TEXT NOT NULL,
			route_id       TEXT,
			route_number   TEXT,
			length_miles   REAL,
			geometry       TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create roadway fixture schema: %w", err)
	}

	for _, seg := range segments {
		geom, err := geojson.NewGeometry(seg.line).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode fixture geometry: %w", err)
		}
		_, err = db.Exec(`
			INSERT INTO roadway_segments (district, priority_class, road_name, route_id, route_number, length_miles, geometry)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			seg.district, seg.class, seg.roadName, seg.routeID, seg.routeNumber, seg.lengthMiles, geom)
		if err != nil {
			return fmt.Errorf("insert fixture segment: %w", err)
		}
	}
	return nil
}

// writeAVL traces one plow along each class-1 and class-2 street within
// the primary window, leaving classes 3-4 uncovered so score spread is
// visible, plus a single-ping unit to exercise the degenerate track path.
func writeAVL(path string, segments []fixtureSegment) error {
	now := time.Now().UTC()
	var pings []wirePing

	unit := 0
	for _, seg := range segments {
		if seg.district == "NORTE" || seg.class > 2 {
			continue
		}
		unit++
		name := fmt.Sprintf("PLOW%02d", unit)
		for i, pt := range seg.line {
			pings = append(pings, wirePing{
				UnitName: name,
				Datetime: now.Add(time.Duration(i-10) * time.Minute).Format(time.RFC3339),
				Lon:      pt[0],
				Lat:      pt[1],
				Speed:    22,
			})
		}
	}
	pings = append(pings, wirePing{
		UnitName: "PLOW99",
		Datetime: now.Add(-5 * time.Minute).Format(time.RFC3339),
		Lon:      baseLon,
		Lat:      baseLat,
		Speed:    0,
	})

	data, err := json.MarshalIndent(pings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode avl fixture: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
