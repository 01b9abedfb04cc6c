package dto

import (
	"failboard.id/failboard/internal/entity"
	commonDto "failboard.id/failboard/pkg/dto"
)

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=2,max=100"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url,max=500"`
}

type ProfileResponse struct {
	Username      string                   `json:"username"`
	DisplayName   string                   `json:"display_name"`
	Bio           *string                  `json:"bio"`
	AvatarURL     *string                  `json:"avatar_url"`
	JoinedAt      string                   `json:"joined_at"`
	CourageStatus *commonDto.CourageStatus `json:"courage_status"`
	Badges        []entity.UserBadge       `json:"badges"`
}
