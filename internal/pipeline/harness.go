package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// runStage executes one pipeline stage under the uniform harness: a start
// log line, duration and outcome on completion, stage metrics, and error
// wrapping with the stage name. Any error returned here aborts the run;
// stage-local data-quality problems are absorbed inside the stage via
// reportQuality instead.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	p.logger.Info("stage starting", "stage", name)
	start := time.Now()

	err := fn(ctx)
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		p.metrics.StageFailures.WithLabelValues(name).Inc()
		p.logger.Error("stage failed",
			"stage", name,
			"duration", elapsed,
			"kind", errKind(err),
			"error", err,
		)
		return fmt.Errorf("stage %s: %w", name, err)
	}

	p.logger.Info("stage complete", "stage", name, "duration", elapsed)
	return nil
}

// reportQuality logs and counts records skipped for data-quality reasons.
// These never abort the run on their own.
func (p *Pipeline) reportQuality(stage string, quality []*domain.DataQualityError) {
	for _, dq := range quality {
		p.metrics.DataQualityErrors.WithLabelValues(stage).Inc()
		p.logger.Warn("record skipped",
			"stage", dq.Stage,
			"key", dq.Key,
			"reason", dq.Reason,
		)
	}
}

// errKind names the error taxonomy bucket for structured logs.
func errKind(err error) string {
	var src *domain.SourceUnavailableError
	if errors.As(err, &src) {
		return "source_unavailable"
	}
	var collab *domain.CollaboratorError
	if errors.As(err, &collab) {
		return "collaborator"
	}
	var dq *domain.DataQualityError
	if errors.As(err, &dq) {
		return "data_quality"
	}
	return "internal"
}
