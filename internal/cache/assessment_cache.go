// internal/cache/assessment_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

const latestRunKey = "assessment:latest_run"

// AssessmentCache keeps the most recent run available without a repository
// round trip. Misses are (nil, false, nil); errors are real failures.
type AssessmentCache interface {
	GetLatestRun(ctx context.Context) (*domain.AssessmentRun, bool, error)
	SetLatestRun(ctx context.Context, run *domain.AssessmentRun) error
	InvalidateLatestRun(ctx context.Context) error
}

type redisAssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAssessmentCache struct{}

func NewAssessmentCache(cfg config.CacheConfig) (AssessmentCache, error) {
	if !cfg.Enabled {
		return &noopAssessmentCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAssessmentCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopAssessmentCache() AssessmentCache {
	return &noopAssessmentCache{}
}

func (c *redisAssessmentCache) GetLatestRun(ctx context.Context) (*domain.AssessmentRun, bool, error) {
	payload, err := c.client.Get(ctx, latestRunKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var run domain.AssessmentRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, false, fmt.Errorf("decode latest run cache: %w", err)
	}

	return &run, true, nil
}

func (c *redisAssessmentCache) SetLatestRun(ctx context.Context, run *domain.AssessmentRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode latest run cache: %w", err)
	}

	if err := c.client.Set(ctx, latestRunKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAssessmentCache) InvalidateLatestRun(ctx context.Context) error {
	return c.client.Del(ctx, latestRunKey).Err()
}

func (n *noopAssessmentCache) GetLatestRun(ctx context.Context) (*domain.AssessmentRun, bool, error) {
	return nil, false, nil
}

func (n *noopAssessmentCache) SetLatestRun(ctx context.Context, run *domain.AssessmentRun) error {
	return nil
}

func (n *noopAssessmentCache) InvalidateLatestRun(ctx context.Context) error {
	return nil
}
