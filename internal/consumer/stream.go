package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/pkg/contracts"
	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second
)

// StreamConfig names the stream and the consumer group position
type StreamConfig struct {
	Stream        string
	ConsumerGroup string
	ConsumerID    string
}

// StreamConsumer reads ingest events from a Redis stream
type StreamConsumer struct {
	redis   *redis.Client
	handler contracts.IngestNotifier
	config  StreamConfig
	log     *logger.Logger
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, handler contracts.IngestNotifier, config StreamConfig, log *logger.Logger) *StreamConsumer {
	return &StreamConsumer{
		redis:   redisClient,
		handler: handler,
		config:  config,
		log:     log.With("stream", config.Stream, "group", config.ConsumerGroup),
	}
}

// Start consumes until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.createConsumerGroup(ctx); err != nil {
		return err
	}

	sc.log.Info("stream consumer started")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    sc.config.ConsumerGroup,
			Consumer: sc.config.ConsumerID,
			Streams:  []string{sc.config.Stream, ">"},
			Count:    batchSize,
			Block:    blockDuration,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// No new messages
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			sc.log.Warn("stream read error", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				sc.processMessage(ctx, message)
			}
		}
	}
}

// createConsumerGroup creates the group, tolerating one that already exists
func (sc *StreamConsumer) createConsumerGroup(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.config.Stream, sc.config.ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// processMessage hands one message to the handler and acknowledges it.
// Malformed messages are acknowledged and dropped.
func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	event, err := decodeEvent(msg)
	if err != nil {
		sc.log.Warn("invalid message", "id", msg.ID, "error", err)
		sc.ackMessage(ctx, msg.ID)
		return
	}

	if err := sc.handler.NotifyIngested(ctx, event); err != nil {
		sc.log.Warn("handling ingest event failed", "id", msg.ID, "batch_id", event.BatchID, "error", err)
	}
	sc.ackMessage(ctx, msg.ID)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, messageID string) {
	err := sc.redis.XAck(ctx, sc.config.Stream, sc.config.ConsumerGroup, messageID).Err()
	if err != nil {
		sc.log.Warn("failed to ack message", "id", messageID, "error", err)
	}
}

func decodeEvent(msg redis.XMessage) (models.IngestEvent, error) {
	var event models.IngestEvent

	data, ok := msg.Values["data"].(string)
	if !ok {
		return event, errors.New("missing data field")
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, err
	}
	return event, nil
}
