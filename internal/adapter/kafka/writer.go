// Package kafka publishes the per-run route snapshot to a Kafka topic for
// downstream mapping and dashboard consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/jaketajohnson/SnowTelemetry/internal/config"
	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
)

// Writer produces snapshot messages to the sink topic. It implements
// pipeline.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// routeMessage is the wire form of one published route record.
type routeMessage struct {
	RunID            string    `json:"run_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	District         string    `json:"district"`
	PriorityClass    int       `json:"priority_class"`
	RoadName         string    `json:"road_name"`
	RouteID          string    `json:"route_id,omitempty"`
	RouteNumber      string    `json:"route_number,omitempty"`
	TotalLengthMiles float64   `json:"total_length_miles"`
	ActivityCount    int       `json:"activity_count"`
	Density          float64   `json:"density"`
	DensityPct       float64   `json:"density_pct"`
	LogDensityPct    float64   `json:"log_density_pct"`
	ForecastLabel    string    `json:"forecast_label,omitempty"`
	Severity         int       `json:"severity"`
}

// PublishSnapshot serializes every record of the run into one
// WriteMessages call, keyed by group key so consumers can compact
// per route.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Records))
	for i := range snap.Records {
		msg, err := serializeToMessage(snap, snap.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one severity record into a Kafka message.
func serializeToMessage(snap domain.Snapshot, r domain.SeverityRecord) (kafkago.Message, error) {
	data, err := json.Marshal(routeMessage{
		RunID:            snap.RunID,
		GeneratedAt:      snap.GeneratedAt,
		District:         r.Key.District,
		PriorityClass:    r.Key.PriorityClass,
		RoadName:         r.Key.RoadName,
		RouteID:          r.Key.RouteID,
		RouteNumber:      r.Key.RouteNumber,
		TotalLengthMiles: r.TotalLengthMiles,
		ActivityCount:    r.ActivityCount,
		Density:          r.Density,
		DensityPct:       r.DensityPct,
		LogDensityPct:    r.LogDensityPct,
		ForecastLabel:    r.ForecastLabel,
		Severity:         r.Severity,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize route record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.Key.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(snap.RunID)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
