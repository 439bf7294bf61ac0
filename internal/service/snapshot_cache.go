package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

// SnapshotCache shares fetched complaint collections between co-located
// console processes through Redis. It is optional: a nil cache, a nil client
// or any Redis failure degrades to a direct fetch.
type SnapshotCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewSnapshotCache constructs a snapshot cache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, enabled bool) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{client: client, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (c *SnapshotCache) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Get loads a cached collection. The second return value is false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, key ResourceKey) ([]models.Complaint, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("snapshot cache get failed", zap.String("key", string(key)), zap.Error(err))
		}
		return nil, false
	}
	var records []models.Complaint
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Warn("snapshot cache payload not decodable", zap.String("key", string(key)), zap.Error(err))
		return nil, false
	}
	return records, true
}

// Set stores a fetched collection with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, key ResourceKey, records []models.Complaint) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "encode snapshot")
	}
	if err := c.client.Set(ctx, c.redisKey(key), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache set failed", zap.String("key", string(key)), zap.Error(err))
		return err
	}
	return nil
}

func (c *SnapshotCache) redisKey(key ResourceKey) string {
	return fmt.Sprintf("console:snapshot:%s", key)
}
