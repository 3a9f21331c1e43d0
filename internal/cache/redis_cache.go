package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// DefaultReportTTL bounds how long a report can outlive a missed invalidation
const DefaultReportTTL = 10 * time.Minute

// ReportCache stores computed player reports in Redis
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a Redis-backed report cache
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
	}
}

func reportKey(name string) string {
	return fmt.Sprintf("player:%s:report", name)
}

// Get returns the cached report for a player, if any
func (c *ReportCache) Get(ctx context.Context, name string) (*models.PlayerStatsReport, bool, error) {
	data, err := c.client.Get(ctx, reportKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading report cache: %w", err)
	}

	var report models.PlayerStatsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &report, true, nil
}

// Set stores a report under its player's name
func (c *ReportCache) Set(ctx context.Context, report models.PlayerStatsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return c.client.Set(ctx, reportKey(report.PlayerName), data, c.ttl).Err()
}

// Invalidate drops the cached reports of the named players
func (c *ReportCache) Invalidate(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, name := range names {
		pipe.Del(ctx, reportKey(name))
	}
	_, err := pipe.Exec(ctx)
	return err
}
