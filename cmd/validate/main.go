// Command validate checks a published route dataset against the pipeline's
// invariants: per-class percentage normalization, the log-compression
// relation, sentinel-district exclusion, division guards, and the severity
// bucket table. It exits non-zero listing every violation found.
//
// Usage:
//
//	go run ./cmd/validate -store telemetry.db
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/store"
	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

const tolerance = 1e-9

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	storePath := flag.String("store", "", "path to the telemetry store database")
	flag.Parse()

	if *storePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*storePath))
}

func run(storePath string) int {
	s, err := store.Open(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		return 1
	}
	defer s.Close()

	records, err := s.PublishedRecords(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "read published routes: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "published dataset is empty")
		return 1
	}

	phases := []*phase{
		checkNormalization(records),
		checkLogRelation(records),
		checkExclusions(records),
		checkSeverity(records),
	}

	code := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		code = 1
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  %s\n", e)
		}
	}
	fmt.Printf("checked %d published records\n", len(records))
	return code
}

// checkNormalization verifies density_pct stays in [0, 100] and that every
// class containing positive density peaks at exactly 100.
func checkNormalization(records []domain.SeverityRecord) *phase {
	p := &phase{name: "per-class normalization"}

	classMax := map[int]float64{}
	anyPositive := map[int]bool{}
	for _, r := range records {
		if r.DensityPct < -tolerance || r.DensityPct > 100+tolerance {
			p.errorf("%s: density_pct %.6f outside [0,100]", r.Key, r.DensityPct)
		}
		if r.DensityPct > classMax[r.Key.PriorityClass] {
			classMax[r.Key.PriorityClass] = r.DensityPct
		}
		if r.Density > 0 {
			anyPositive[r.Key.PriorityClass] = true
		}
		if r.TotalLengthMiles <= 0 {
			p.errorf("%s: published with non-positive total_length_miles %.3f", r.Key, r.TotalLengthMiles)
		}
		if math.IsNaN(r.Density) || math.IsInf(r.Density, 0) {
			p.errorf("%s: density is %v", r.Key, r.Density)
		}
	}
	for class, positive := range anyPositive {
		if positive && math.Abs(classMax[class]-100) > tolerance {
			p.errorf("class %d: max density_pct %.6f, want 100", class, classMax[class])
		}
	}
	return p
}

func checkLogRelation(records []domain.SeverityRecord) *phase {
	p := &phase{name: "log compression"}
	for _, r := range records {
		want := math.Log1p(r.DensityPct)
		if math.Abs(r.LogDensityPct-want) > tolerance {
			p.errorf("%s: log_density_pct %.9f, want ln(1+%.6f)=%.9f",
				r.Key, r.LogDensityPct, r.DensityPct, want)
		}
	}
	return p
}

func checkExclusions(records []domain.SeverityRecord) *phase {
	p := &phase{name: "sentinel district exclusion"}
	for _, r := range records {
		if r.Key.District == domain.SentinelDistrict {
			p.errorf("%s: sentinel district published", r.Key)
		}
		if r.Key.PriorityClass < 1 || r.Key.PriorityClass > 4 {
			p.errorf("%s: priority class outside 1-4", r.Key)
		}
	}
	return p
}

func checkSeverity(records []domain.SeverityRecord) *phase {
	p := &phase{name: "severity mapping"}
	for _, r := range records {
		want, err := domain.SeverityForLabel(r.ForecastLabel)
		if err != nil {
			p.errorf("%s: forecast label %q not in vocabulary", r.Key, r.ForecastLabel)
			continue
		}
		if r.Severity != want {
			p.errorf("%s: severity %d for label %q, want %d", r.Key, r.Severity, r.ForecastLabel, want)
		}
	}
	return p
}
