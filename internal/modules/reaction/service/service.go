package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"failboard.id/failboard/internal/entity"
	"failboard.id/failboard/internal/events"
	leaderboard "failboard.id/failboard/internal/modules/leaderboard/service"
	notifService "failboard.id/failboard/internal/modules/notification/service"
	reactionRepo "failboard.id/failboard/internal/modules/reaction/repository"
	"failboard.id/failboard/pkg/apperror"
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const reactionCacheTTL = 7 * 24 * time.Hour

func reactionCacheKey(failID uuid.UUID) string {
	return fmt.Sprintf("counts:fail:%s", failID)
}

type ReactionService interface {
	ToggleReaction(ctx context.Context, userID, failID uuid.UUID, reactionType entity.ReactionType) (commonDto.ReactionsResponse, error)
	GetReactions(ctx context.Context, failID uuid.UUID, viewerID *uuid.UUID) (commonDto.ReactionsResponse, error)
	GetReactionsForFails(ctx context.Context, failIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]commonDto.ReactionsResponse, error)
}

type reactionService struct {
	repo                reactionRepo.ReactionRepository
	redisClient         *redis.Client
	courageService      leaderboard.LeaderboardService
	notificationService notifService.NotificationService
	bus                 *events.Bus
}

func NewReactionService(
	repo reactionRepo.ReactionRepository,
	redisClient *redis.Client,
	courageService leaderboard.LeaderboardService,
	notificationService notifService.NotificationService,
	bus *events.Bus,
) ReactionService {
	return &reactionService{
		repo:                repo,
		redisClient:         redisClient,
		courageService:      courageService,
		notificationService: notificationService,
		bus:                 bus,
	}
}

func (s *reactionService) ToggleReaction(ctx context.Context, userID, failID uuid.UUID, reactionType entity.ReactionType) (commonDto.ReactionsResponse, error) {
	if !reactionType.Valid() {
		return commonDto.ReactionsResponse{}, apperror.ErrBadRequest
	}

	authorID, failSlug, err := s.repo.FindFailAuthor(ctx, failID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return commonDto.ReactionsResponse{}, apperror.ErrNotFound
		}
		return commonDto.ReactionsResponse{}, err
	}

	result, err := s.repo.Toggle(ctx, userID, failID, reactionType)
	if err != nil {
		return commonDto.ReactionsResponse{}, err
	}

	s.mirrorToggle(ctx, failID, result)

	// Award and notify only on a fresh reaction to someone else's fail.
	// Switching types or removing a reaction triggers nothing; the
	// once-per-actor guard in the courage log covers re-reacting.
	if result.Added != nil && result.Removed == nil && authorID != userID {
		s.courageService.AddCouragePointsAsync(authorID, leaderboard.ActionReactionReceived, failID.String(), &userID)

		if s.notificationService != nil {
			go func(reacted entity.ReactionType) {
				notification := &entity.Notification{
					UserID:     authorID,
					ActorID:    userID,
					EntityID:   failID,
					EntitySlug: failSlug,
					EntityType: "fail",
					Type:       "reaction",
					Message:    fmt.Sprintf("Someone sent a %s to your fail", reacted),
				}
				if err := s.notificationService.CreateNotification(context.Background(), notification); err != nil {
					log.Printf("Failed to send reaction notification: %v", err)
				}
			}(*result.Added)
		}
	}

	if result.Added != nil {
		recipient := authorID
		s.bus.Publish(events.Event{
			Type:        events.ReactionGiven,
			ActorID:     userID,
			SubjectID:   failID,
			RecipientID: &recipient,
			Payload:     *result.Added,
		})
	}

	return s.GetReactions(ctx, failID, &userID)
}

// mirrorToggle keeps the redis counter hash in step with the DB change.
// Best effort: a miss just means the next read rebuilds from the DB.
func (s *reactionService) mirrorToggle(ctx context.Context, failID uuid.UUID, result *reactionRepo.ToggleResult) {
	if s.redisClient == nil {
		return
	}

	key := reactionCacheKey(failID)
	exists, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}

	pipe := s.redisClient.Pipeline()
	if result.Removed != nil {
		pipe.HIncrBy(ctx, key, string(*result.Removed), -1)
	}
	if result.Added != nil {
		pipe.HIncrBy(ctx, key, string(*result.Added), 1)
	}
	pipe.Expire(ctx, key, reactionCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to mirror reaction toggle to redis for fail %s: %v", failID, err)
		s.redisClient.Del(ctx, key)
	}
}

func (s *reactionService) GetReactions(ctx context.Context, failID uuid.UUID, viewerID *uuid.UUID) (commonDto.ReactionsResponse, error) {
	counts, err := s.getCounts(ctx, failID)
	if err != nil {
		return commonDto.ReactionsResponse{}, err
	}

	resp := commonDto.ReactionsResponse{Counts: counts}

	if viewerID != nil {
		reacted, err := s.repo.GetUserReaction(ctx, *viewerID, failID)
		if err != nil {
			log.Printf("Failed to load viewer reaction for fail %s: %v", failID, err)
		} else if reacted != nil {
			str := string(*reacted)
			resp.UserReacted = &str
		}
	}

	return resp, nil
}

func (s *reactionService) GetReactionsForFails(ctx context.Context, failIDs []uuid.UUID, viewerID *uuid.UUID) (map[uuid.UUID]commonDto.ReactionsResponse, error) {
	out := make(map[uuid.UUID]commonDto.ReactionsResponse, len(failIDs))
	if len(failIDs) == 0 {
		return out, nil
	}

	// List views skip redis and read the counter table in one query.
	counters, err := s.repo.GetCountersForFails(ctx, failIDs)
	if err != nil {
		return nil, err
	}

	var viewerReactions map[uuid.UUID]entity.ReactionType
	if viewerID != nil {
		viewerReactions, err = s.repo.GetUserReactionsForFails(ctx, *viewerID, failIDs)
		if err != nil {
			log.Printf("Failed to load viewer reactions: %v", err)
			viewerReactions = nil
		}
	}

	for _, failID := range failIDs {
		resp := commonDto.ReactionsResponse{Counts: zeroCounts()}
		for reactionType, count := range counters[failID] {
			resp.Counts[string(reactionType)] = count
		}
		if reactionType, ok := viewerReactions[failID]; ok {
			str := string(reactionType)
			resp.UserReacted = &str
		}
		out[failID] = resp
	}

	return out, nil
}

// getCounts is redis-first: on a cache miss the hash is rebuilt from the
// reaction_counters table and kept for a week.
func (s *reactionService) getCounts(ctx context.Context, failID uuid.UUID) (map[string]int64, error) {
	if s.redisClient != nil {
		key := reactionCacheKey(failID)
		cached, err := s.redisClient.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			counts := zeroCounts()
			for field, val := range cached {
				if n, err := strconv.ParseInt(val, 10, 64); err == nil {
					counts[field] = n
				}
			}
			return counts, nil
		}
	}

	dbCounts, err := s.repo.GetCounters(ctx, failID)
	if err != nil {
		return nil, err
	}

	counts := zeroCounts()
	for reactionType, count := range dbCounts {
		counts[string(reactionType)] = count
	}

	if s.redisClient != nil {
		key := reactionCacheKey(failID)
		pipe := s.redisClient.Pipeline()
		for field, count := range counts {
			pipe.HSet(ctx, key, field, count)
		}
		pipe.Expire(ctx, key, reactionCacheTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("Failed to warm reaction cache for fail %s: %v", failID, err)
		}
	}

	return counts, nil
}

func zeroCounts() map[string]int64 {
	counts := make(map[string]int64, len(entity.AllReactionTypes))
	for _, t := range entity.AllReactionTypes {
		counts[string(t)] = 0
	}
	return counts
}
