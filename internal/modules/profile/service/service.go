package service

import (
	"context"
	"errors"
	"log"

	badgeService "failboard.id/failboard/internal/modules/badge/service"
	leaderboard "failboard.id/failboard/internal/modules/leaderboard/service"
	profileDto "failboard.id/failboard/internal/modules/profile/dto"
	userRepo "failboard.id/failboard/internal/modules/user/repository"
	"failboard.id/failboard/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetByUsername(ctx context.Context, username string) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req profileDto.UpdateProfileRequest) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	userRepo       userRepo.UserRepository
	courageService leaderboard.LeaderboardService
	badgeService   badgeService.BadgeService
}

func NewProfileService(
	users userRepo.UserRepository,
	courageService leaderboard.LeaderboardService,
	badges badgeService.BadgeService,
) ProfileService {
	return &profileService{
		userRepo:       users,
		courageService: courageService,
		badgeService:   badges,
	}
}

func (s *profileService) GetByUsername(ctx context.Context, username string) (*profileDto.ProfileResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	resp := &profileDto.ProfileResponse{
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		JoinedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if user.Profile != nil {
		resp.DisplayName = user.Profile.DisplayName
		resp.Bio = user.Profile.Bio
	}

	// Courage status and badges are decoration; the profile still renders
	// if either lookup fails.
	status, err := s.courageService.GetUserCourageStatus(user.ID)
	if err != nil {
		log.Printf("Failed to load courage status for %s: %v", username, err)
	} else {
		resp.CourageStatus = status
	}

	badges, err := s.badgeService.GetUserBadges(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to load badges for %s: %v", username, err)
	} else {
		resp.Badges = badges
	}

	return resp, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req profileDto.UpdateProfileRequest) (*profileDto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}

	profile := user.Profile
	if profile != nil {
		if req.DisplayName != nil {
			profile.DisplayName = *req.DisplayName
		}
		if req.Bio != nil {
			profile.Bio = req.Bio
		}
	}

	if err := s.userRepo.Update(ctx, user, profile); err != nil {
		return nil, err
	}

	return s.GetByUsername(ctx, user.Username)
}
