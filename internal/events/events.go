package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventMetricsRefreshed = "submission.metrics_refreshed"
	EventCampaignSettled  = "campaign.settled"
	EventSettlementFailed = "campaign.settlement_failed"

	schemaVersion = "1.0"
	sourceService = "campayn-scoring"
)

// Publisher sends one serialized event. partitionKey keeps events for the
// same campaign or video ordered.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// Envelope is the wire format shared by every event this service emits.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    string          `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	SchemaVersion string          `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

// NewEnvelope wraps data with a fresh event id.
func NewEnvelope(eventType, partitionKey string, data any, occurredAt time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC().Format(time.RFC3339),
		SourceService: sourceService,
		SchemaVersion: schemaVersion,
		PartitionKey:  partitionKey,
		Data:          raw,
	}, nil
}

// Emit builds an envelope and hands it to p. A nil publisher is a no-op.
func Emit(ctx context.Context, p Publisher, eventType, partitionKey string, data any) error {
	if p == nil {
		return nil
	}
	env, err := NewEnvelope(eventType, partitionKey, data, time.Now())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Publish(ctx, eventType, payload, partitionKey)
}

// MetricsRefreshed is the payload of EventMetricsRefreshed.
type MetricsRefreshed struct {
	VideoID          string  `json:"video_id"`
	CampaignIDs      []int64 `json:"campaign_ids"`
	ViewCount        int64   `json:"view_count"`
	LikeCount        int64   `json:"like_count"`
	CommentCount     int64   `json:"comment_count"`
	PerformanceScore float64 `json:"performance_score"`
}

// CampaignSettled is the payload of EventCampaignSettled.
type CampaignSettled struct {
	CampaignID  string    `json:"campaign_id"`
	Winners     [3]string `json:"winners"`
	Rewards     [3]string `json:"rewards"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
}

// SettlementFailed is the payload of EventSettlementFailed.
type SettlementFailed struct {
	CampaignID string `json:"campaign_id"`
	Reason     string `json:"reason"`
}
