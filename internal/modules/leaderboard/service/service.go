package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"failboard.id/failboard/internal/entity"
	leaderboardDto "failboard.id/failboard/internal/modules/leaderboard/dto"
	leaderboardRepo "failboard.id/failboard/internal/modules/leaderboard/repository"
	notifService "failboard.id/failboard/internal/modules/notification/service"
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
)

const (
	ActionShareFail        = "share_fail"
	ActionReactionReceived = "reaction_received"
	ActionCommentReceived  = "comment_received"

	PointsShareFail        = 2
	PointsReactionReceived = 10
	PointsCommentReceived  = 5

	MaxDailySharePoints = 3
)

type LeaderboardService interface {
	// AddCouragePointsAsync awards courage points in the background.
	// actorID is the user who performed the action (the reactor or
	// commenter); nil for self-originated actions like sharing a fail.
	AddCouragePointsAsync(targetUserID uuid.UUID, actionType string, referenceID string, actorID *uuid.UUID)
	GetLeaderboard(limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error)
	GetUserCourageStatus(userID uuid.UUID) (*commonDto.CourageStatus, error)
}

type leaderboardService struct {
	repo                leaderboardRepo.LeaderboardRepository
	notificationService notifService.NotificationService
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, notificationService notifService.NotificationService) LeaderboardService {
	return &leaderboardService{
		repo:                repo,
		notificationService: notificationService,
	}
}

func (s *leaderboardService) AddCouragePointsAsync(targetUserID uuid.UUID, actionType string, referenceID string, actorID *uuid.UUID) {
	go func() {
		ctx := context.Background()

		// For actor-funded awards, check the award wasn't already given.
		// This prevents the react/unreact/react exploit.
		if actorID != nil {
			exists, err := s.repo.HasActorAwardExists(*actorID, actionType, referenceID)
			if err != nil {
				log.Printf("Error checking courage award existence: %v", err)
				return
			}
			if exists {
				log.Printf("Duplicate courage award prevented: actor=%s reference=%s", actorID, referenceID)
				return
			}
		}

		// Snapshot the rank before adding points so a rank-up can be detected.
		currentStats, _ := s.repo.GetUserStatsByUserID(targetUserID)
		var previousScore int
		if currentStats != nil {
			previousScore = currentStats.TotalCourageAllTime
		}
		previousRank := GetCourageStatus(previousScore).RankName

		points := 0
		switch actionType {
		case ActionReactionReceived:
			points = PointsReactionReceived
		case ActionCommentReceived:
			points = PointsCommentReceived
		case ActionShareFail:
			count, err := s.repo.GetDailyShareCount(targetUserID, time.Now())
			if err != nil {
				log.Printf("Error getting daily share count for user %s: %v", targetUserID, err)
				return
			}
			if count >= MaxDailySharePoints {
				log.Printf("User %s reached daily share point cap", targetUserID)
				return
			}
			points = PointsShareFail
		default:
			log.Printf("Unknown courage action type: %s", actionType)
			return
		}

		logEntry := &entity.CouragePointLog{
			UserID:      targetUserID,
			ActionType:  actionType,
			Points:      points,
			ReferenceID: referenceID,
			ActorID:     actorID,
			CreatedAt:   time.Now(),
		}

		if err := s.repo.CreatePointLog(logEntry); err != nil {
			log.Printf("Failed to create courage point log for user %s: %v", targetUserID, err)
			return
		}

		if err := s.repo.UpdateUserStats(targetUserID, points); err != nil {
			log.Printf("Failed to update user stats for user %s: %v", targetUserID, err)
			return
		}

		newScore := previousScore + points
		newRank := GetCourageStatus(newScore).RankName

		if newRank != previousRank && s.notificationService != nil {
			s.sendRankUpNotification(ctx, targetUserID, previousRank, newRank, newScore)
		}
	}()
}

func (s *leaderboardService) sendRankUpNotification(ctx context.Context, userID uuid.UUID, previousRank, newRank string, newScore int) {
	notification := &entity.Notification{
		UserID:     userID,
		ActorID:    userID, // self-triggered
		EntityID:   userID,
		EntityType: "courage",
		Type:       "rank_up",
		Message:    fmt.Sprintf("You ranked up from %s to %s with %d courage points!", previousRank, newRank, newScore),
		IsRead:     false,
	}

	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		log.Printf("Failed to send rank up notification to user %s: %v", userID, err)
	} else {
		log.Printf("Rank up notification sent to user %s: %s -> %s", userID, previousRank, newRank)
	}
}

func (s *leaderboardService) GetLeaderboard(limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error) {
	stats, err := s.repo.GetTopUsers(limit, timeframe)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(stats))
	for i, stat := range stats {
		// Rank is always based on all-time points; weekly gives the label.
		status := GetCourageStatusWithWeekly(stat.TotalCourageAllTime, stat.TotalCourageWeekly)

		var role string
		if stat.User.Role.ID != 0 {
			role = stat.User.Role.Name
		}

		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Username:  stat.User.Username,
			AvatarURL: stat.User.AvatarURL,
			Role:      role,
			Position:  i + 1,
			CourageStatus: commonDto.CourageStatus{
				RankName:      status.RankName,
				NextRank:      status.NextRank,
				CurrentPoints: status.CurrentPoints,
				TargetPoints:  status.TargetPoints,
				Progress:      status.Progress,
				WeeklyPoints:  status.WeeklyPoints,
				WeeklyLabel:   status.WeeklyLabel,
			},
		})
	}

	return entries, nil
}

func (s *leaderboardService) GetUserCourageStatus(userID uuid.UUID) (*commonDto.CourageStatus, error) {
	stats, err := s.repo.GetUserStatsByUserID(userID)
	if err != nil {
		return nil, err
	}

	status := GetCourageStatusWithWeekly(stats.TotalCourageAllTime, stats.TotalCourageWeekly)
	return &commonDto.CourageStatus{
		RankName:      status.RankName,
		NextRank:      status.NextRank,
		CurrentPoints: status.CurrentPoints,
		TargetPoints:  status.TargetPoints,
		Progress:      status.Progress,
		WeeklyPoints:  status.WeeklyPoints,
		WeeklyLabel:   status.WeeklyLabel,
	}, nil
}
