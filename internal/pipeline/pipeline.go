package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
	"github.com/jaketajohnson/SnowTelemetry/internal/geometry"
	"github.com/jaketajohnson/SnowTelemetry/internal/observability"
)

// TelemetrySource extracts AVL pings matching a window predicate.
type TelemetrySource interface {
	FetchPings(ctx context.Context, window domain.PingWindow) ([]domain.TelemetryPing, error)
}

// RoadwaySource reads the full roadway inventory.
type RoadwaySource interface {
	Segments(ctx context.Context) ([]domain.RouteSegment, error)
}

// ForecastSource reads the precipitation forecast zones.
type ForecastSource interface {
	Zones(ctx context.Context) ([]domain.ForecastZone, error)
}

// DatasetStore persists the working and published datasets. Every Replace
// and Publish call fully overwrites the prior contents atomically, so a
// failed run leaves the previous data intact.
type DatasetStore interface {
	ReplaceSimplifiedPings(ctx context.Context, runID string, pings []domain.TelemetryPing) error
	ReplaceClassDensity(ctx context.Context, runID string, priorityClass int, records []domain.DensityRecord) error
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// SnapshotPublisher pushes the published snapshot to downstream consumers.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Pipeline orchestrates one batch run: telemetry extract, track build,
// route dissolve, per-class density scoring, merge, severity classify,
// and publish. Stages run in dependency order; the four class scoring
// passes run concurrently and join before the merge.
type Pipeline struct {
	telemetry TelemetrySource
	roadway   RoadwaySource
	forecast  ForecastSource // nil disables severity classification
	store     DatasetStore
	publisher SnapshotPublisher // nil disables the snapshot publish
	dissolve  domain.DissolveOptions
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. forecast and publisher may be nil to disable
// the severity step and the downstream snapshot publish respectively.
func New(
	telemetry TelemetrySource,
	roadway RoadwaySource,
	forecast ForecastSource,
	store DatasetStore,
	publisher SnapshotPublisher,
	dissolve domain.DissolveOptions,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		telemetry: telemetry,
		roadway:   roadway,
		forecast:  forecast,
		store:     store,
		publisher: publisher,
		dissolve:  dissolve,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one run has published
// successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no run has published yet")
	}
	return nil
}

// Run executes one complete batch run. Any stage error aborts the run;
// the previously published dataset is left untouched because the publish
// is a single transactional overwrite at the very end.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run starting")

	p.metrics.RunsTotal.Inc()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	run := &runState{runID: runID}
	err := p.execute(ctx, run)
	if err != nil {
		p.metrics.RunFailures.Inc()
		logger.Error("run aborted", "error", err, "kind", errKind(err))
		return err
	}

	p.ready.Store(true)
	logger.Info("run complete", "records_published", len(run.published.Records))
	return nil
}

// runState carries intermediate datasets between stages of one run.
type runState struct {
	runID     string
	primary   []domain.TelemetryPing
	tracks    []orb.LineString
	groups    []domain.RouteGroup
	perClass  [5][]domain.DensityRecord // indexed by priority class 1-4
	published domain.Snapshot
}

func (p *Pipeline) execute(ctx context.Context, run *runState) error {
	if err := p.runStage(ctx, "telemetry_extract", func(ctx context.Context) error {
		return p.extractTelemetry(ctx, run)
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, "track_build", func(_ context.Context) error {
		return p.buildTracks(run)
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, "route_dissolve", func(ctx context.Context) error {
		return p.dissolveRoutes(ctx, run)
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, "density_score", func(ctx context.Context) error {
		return p.scoreClasses(ctx, run)
	}); err != nil {
		return err
	}

	if err := p.runStage(ctx, "severity_classify", func(ctx context.Context) error {
		return p.classifySeverity(ctx, run)
	}); err != nil {
		return err
	}

	return p.runStage(ctx, "publish", func(ctx context.Context) error {
		return p.publish(ctx, run)
	})
}

// extractTelemetry pulls both ping windows. The extended-window simplified-points
// product is persisted immediately as its own dataset; the primary window
// feeds track building.
func (p *Pipeline) extractTelemetry(ctx context.Context, run *runState) error {
	primary, err := p.telemetry.FetchPings(ctx, domain.PrimaryWindow)
	if err != nil {
		return err
	}
	// The feed applies the predicate server-side; re-filter locally so a
	// misconfigured view cannot leak stale or over-speed pings into scores.
	run.primary = domain.FilterPings(primary, domain.PrimaryWindow)
	p.metrics.PingsExtracted.WithLabelValues(domain.PrimaryWindow.Name).Add(float64(len(run.primary)))

	extended, err := p.telemetry.FetchPings(ctx, domain.ExtendedWindow)
	if err != nil {
		return err
	}
	extended = domain.FilterPings(extended, domain.ExtendedWindow)
	p.metrics.PingsExtracted.WithLabelValues(domain.ExtendedWindow.Name).Add(float64(len(extended)))

	return p.store.ReplaceSimplifiedPings(ctx, run.runID, extended)
}

func (p *Pipeline) buildTracks(run *runState) error {
	tracks := domain.BuildTracks(run.primary)
	degenerate := 0
	run.tracks = make([]orb.LineString, 0, len(tracks))
	for _, t := range tracks {
		if t.Degenerate() {
			degenerate++
		}
		run.tracks = append(run.tracks, t.Geometry)
	}
	p.metrics.TracksBuilt.Set(float64(len(tracks)))
	p.logger.Info("tracks built", "tracks", len(tracks), "degenerate", degenerate)
	return nil
}

func (p *Pipeline) dissolveRoutes(ctx context.Context, run *runState) error {
	segments, err := p.roadway.Segments(ctx)
	if err != nil {
		return err
	}
	groups, quality := domain.Dissolve(segments, p.dissolve)
	p.reportQuality("route_dissolve", quality)
	run.groups = groups
	p.logger.Info("routes dissolved", "segments", len(segments), "groups", len(groups))
	return nil
}

// scoreClasses runs the four per-class summarize/normalize passes
// concurrently. Each class writes its own destination dataset; all four
// must finish before the merge.
func (p *Pipeline) scoreClasses(ctx context.Context, run *runState) error {
	var wg sync.WaitGroup
	errs := make([]error, 5)

	for class := 1; class <= 4; class++ {
		wg.Add(1)
		go func(class int) {
			defer wg.Done()
			records, err := p.scoreClass(ctx, run, class)
			if err != nil {
				errs[class] = err
				return
			}
			run.perClass[class] = records
		}(class)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// scoreClass builds density records for one priority class: groups of that
// class with a known positive length, activity counted within the class
// search radius, then normalized against the class maximum.
func (p *Pipeline) scoreClass(ctx context.Context, run *runState, class int) ([]domain.DensityRecord, error) {
	radius := domain.SearchRadiusFeet(class)

	var records []domain.DensityRecord
	for _, g := range run.groups {
		if g.Key.PriorityClass != class {
			continue
		}
		if g.TotalLengthMiles == nil || *g.TotalLengthMiles <= 0 {
			continue
		}
		records = append(records, domain.DensityRecord{
			Key:              g.Key,
			TotalLengthMiles: *g.TotalLengthMiles,
			ActivityCount:    geometry.CountTracksWithin(g.Geometry, run.tracks, radius),
			Geometry:         g.Geometry,
		})
	}

	records = domain.Normalize(records)
	if err := p.store.ReplaceClassDensity(ctx, run.runID, class, records); err != nil {
		return nil, err
	}
	p.logger.Info("class scored", "priority_class", class, "radius_ft", radius, "groups", len(records))
	return records, nil
}

// classifySeverity merges the four class outputs in class order and, when
// a forecast source is configured, assigns precipitation labels and
// severities. Without one, records publish with no forecast fields.
func (p *Pipeline) classifySeverity(ctx context.Context, run *runState) error {
	var merged []domain.DensityRecord
	for class := 1; class <= 4; class++ {
		merged = append(merged, run.perClass[class]...)
	}

	if p.forecast == nil {
		records := make([]domain.SeverityRecord, len(merged))
		for i, rec := range merged {
			records[i] = domain.SeverityRecord{DensityRecord: rec}
		}
		run.published = domain.Snapshot{RunID: run.runID, Records: records}
		return nil
	}

	zones, err := p.forecast.Zones(ctx)
	if err != nil {
		return err
	}
	zones = domain.DissolveZones(zones)

	records, quality := domain.ClassifySeverity(merged, zones)
	p.reportQuality("severity_classify", quality)

	run.published = domain.Snapshot{RunID: run.runID, Records: records}
	p.logger.Info("severity classified", "zones", len(zones), "records", len(records))
	return nil
}

func (p *Pipeline) publish(ctx context.Context, run *runState) error {
	run.published.GeneratedAt = domain.Now()

	if err := p.store.PublishSnapshot(ctx, run.published); err != nil {
		return err
	}
	p.metrics.RecordsPublished.Set(float64(len(run.published.Records)))

	if p.publisher != nil {
		if err := p.publisher.PublishSnapshot(ctx, run.published); err != nil {
			return err
		}
	}
	return nil
}
