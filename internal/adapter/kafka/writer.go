package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

// Writer produces weather records to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer  *kafkago.Writer
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clock, logger: logger, metrics: metrics}
}

// recordMessage is the wire form of one hourly observation.
type recordMessage struct {
	Location        string   `json:"location"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Time            string   `json:"time"`
	TemperatureC    *float64 `json:"temperature_c"`
	HumidityPct     *float64 `json:"humidity_pct"`
	PrecipitationMM *float64 `json:"precipitation_mm"`
	WindSpeedKmh    *float64 `json:"wind_speed_kmh"`
}

// Publish serializes every record of a persisted dataset and writes them to
// the sink topic in a single WriteMessages call for efficiency.
func (w *Writer) Publish(ctx context.Context, loc domain.Location, dataset domain.Dataset) error {
	if len(dataset) == 0 {
		return nil
	}
	producedAt := w.clock.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(dataset))
	for i := range dataset {
		msg, err := serializeToMessage(loc, &dataset[i], producedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.metrics.SinkMessages.Add(float64(len(msgs)))
	w.logger.Debug("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message. The key is
// location plus timestamp so replays of the same hour compact together.
func serializeToMessage(loc domain.Location, rec *domain.Record, producedAt string) (kafkago.Message, error) {
	payload := recordMessage{
		Location:        loc.Name,
		Latitude:        loc.Latitude,
		Longitude:       loc.Longitude,
		Time:            rec.Time.Format(time.RFC3339),
		TemperatureC:    rec.TemperatureC,
		HumidityPct:     rec.HumidityPct,
		PrecipitationMM: rec.PrecipitationMM,
		WindSpeedKmh:    rec.WindSpeedKmh,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather record: %w", err)
	}
	key := strconv.FormatFloat(loc.Latitude, 'f', 4, 64) + "," +
		strconv.FormatFloat(loc.Longitude, 'f', 4, 64) + "|" + payload.Time
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(loc.Name)},
			{Key: "produced_at", Value: []byte(producedAt)},
		},
	}, nil
}
