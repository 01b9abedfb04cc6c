package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"failboard.id/failboard/internal/entity"
	badgeRepo "failboard.id/failboard/internal/modules/badge/repository"
	"github.com/redis/go-redis/v9"
)

const catalogCacheKey = "badges:catalog"

// Catalog serves badge definitions with a redis read-through cache in
// front of the badge_definitions table. The table is the single source of
// truth; there is no compiled-in badge list, and an empty catalog is a
// legitimate state.
type Catalog interface {
	ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error)
	Invalidate(ctx context.Context)
}

type catalog struct {
	repo        badgeRepo.BadgeRepository
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCatalog(repo badgeRepo.BadgeRepository, redisClient *redis.Client, ttl time.Duration) Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &catalog{
		repo:        repo,
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (c *catalog) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	if c.redisClient != nil {
		cached, err := c.redisClient.Get(ctx, catalogCacheKey).Result()
		if err == nil {
			var defs []entity.BadgeDefinition
			if err := json.Unmarshal([]byte(cached), &defs); err == nil {
				return defs, nil
			}
			// Unreadable cache entry, drop it and fall through to the DB.
			c.redisClient.Del(ctx, catalogCacheKey)
		}
	}

	defs, err := c.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	if c.redisClient != nil {
		if payload, err := json.Marshal(defs); err == nil {
			if err := c.redisClient.Set(ctx, catalogCacheKey, payload, c.ttl).Err(); err != nil {
				log.Printf("Failed to cache badge catalog: %v", err)
			}
		}
	}

	return defs, nil
}

func (c *catalog) Invalidate(ctx context.Context) {
	if c.redisClient == nil {
		return
	}
	if err := c.redisClient.Del(ctx, catalogCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate badge catalog cache: %v", err)
	}
}
