// Package domain models municipal snow-plow telemetry and the route
// coverage scoring rules built on top of it.
//
// # Data Sources
//
// Vehicle positions come from the city's AVL (automatic vehicle location)
// feed. Each ping carries a unit name, a UTC timestamp, WGS-84 coordinates,
// and a speed in mph. The coverage product uses a 24-hour window
// (age < 25 hours) filtered to plowing speeds (<= 35 mph); a secondary
// simplified-points product uses a 48-hour window (age < 49 hours,
// speed <= 100 mph).
//
// The road network comes from the public works roadway inventory. Every
// segment is tagged with a maintenance district, a snow priority class,
// and a road name. The district value "NORTE" is a data-entry sentinel,
// not a real district; segments tagged with it are dropped before any
// aggregation.
//
// # Priority Classes
//
// Snow routes are ranked 1-4 by how urgently they must be plowed:
//
//	1  trouble spots (hills, bridges, known ice)
//	2  arterial routes
//	3  section mains
//	4  neighborhood sections
//
// Vehicle activity is matched to routes within a class-specific search
// radius: 50 feet for classes 1-2, 25 feet for classes 3-4.
//
// # Coverage Scoring
//
// Per priority class, each dissolved route group gets
//
//	density         = activity_count / total_length_miles
//	density_pct     = density / max(density over class) * 100
//	log_density_pct = ln(1 + density_pct)
//
// so the best-covered group in a class always scores exactly 100 and the
// log column compresses the long tail for map symbology. A class with no
// activity at all scores 0 everywhere rather than dividing by zero.
//
// # Precipitation Severity
//
// The NWS cumulative precipitation forecast is published as polygons
// labeled with fixed accumulation buckets ("0.10 to 0.25 inches", ...).
// Each published route takes the label of the zone containing its
// representative point, defaulting to "0 to 0 inches", and the label maps
// to an ordinal severity 0-8 via [SeverityForLabel]. A label outside the
// fixed vocabulary is a data-quality error, never a silent default.
package domain
