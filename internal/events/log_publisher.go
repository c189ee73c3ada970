package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher records events in the log instead of a broker. Used when no
// Kafka brokers are configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.log.Debug().
		Str("event_type", eventType).
		Str("partition_key", partitionKey).
		Int("payload_bytes", len(payload)).
		Msg("event published")
	return nil
}
