package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultStream carries one message per stored batch
const DefaultStream = "stats.ingested"

// StreamPublisher publishes ingest events to a Redis stream
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: 10000,
	}
}

// NotifyIngested publishes the event
func (p *StreamPublisher) NotifyIngested(ctx context.Context, event models.IngestEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling ingest event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":     string(data),
			"batch_id": event.BatchID,
			"source":   event.Source,
			"players":  strings.Join(event.Players, ","),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.stream, err)
	}
	return nil
}
