package service

import (
	"context"
	"log"
	"strconv"
	"time"

	failRepo "failboard.id/failboard/internal/modules/fail/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "views:fail:"

// ViewService buffers view counts in redis and periodically flushes them
// into fails.views, so reads never write the fails table directly.
type ViewService interface {
	// RecordView registers one view and returns the number of views still
	// buffered in redis for this fail (so the caller can show a total that
	// includes not-yet-flushed views).
	RecordView(ctx context.Context, failID uuid.UUID) int
	StartViewSyncWorker(interval time.Duration)
}

type viewService struct {
	redisClient *redis.Client
	repo        failRepo.FailRepository
}

func NewViewService(redisClient *redis.Client, repo failRepo.FailRepository) ViewService {
	return &viewService{redisClient: redisClient, repo: repo}
}

func (s *viewService) RecordView(ctx context.Context, failID uuid.UUID) int {
	if s.redisClient == nil {
		// No redis, fall back to a direct DB increment.
		if err := s.repo.IncrementViews(ctx, failID, 1); err != nil {
			log.Printf("Failed to increment views for fail %s: %v", failID, err)
		}
		return 0
	}

	pending, err := s.redisClient.Incr(ctx, viewKeyPrefix+failID.String()).Result()
	if err != nil {
		log.Printf("Failed to record view for fail %s: %v", failID, err)
		return 0
	}
	return int(pending)
}

func (s *viewService) StartViewSyncWorker(interval time.Duration) {
	if s.redisClient == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			s.flush(context.Background())
		}
	}()

	log.Printf("View sync worker started (interval %s)", interval)
}

func (s *viewService) flush(ctx context.Context) {
	iter := s.redisClient.Scan(ctx, 0, viewKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		// GETDEL so views recorded during the flush land in the next cycle.
		val, err := s.redisClient.GetDel(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("Failed to drain view key %s: %v", key, err)
			}
			continue
		}

		count, err := strconv.Atoi(val)
		if err != nil || count <= 0 {
			continue
		}

		failID, err := uuid.Parse(key[len(viewKeyPrefix):])
		if err != nil {
			continue
		}

		if err := s.repo.IncrementViews(ctx, failID, count); err != nil {
			log.Printf("Failed to flush %d views for fail %s: %v", count, failID, err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("View sync scan error: %v", err)
	}
}
