package dto

import commonDto "failboard.id/failboard/pkg/dto"

type LeaderboardEntry struct {
	Username      string                  `json:"username"`
	AvatarURL     *string                 `json:"avatar_url"`
	Role          string                  `json:"role"`
	Position      int                     `json:"position"`
	CourageStatus commonDto.CourageStatus `json:"courage_status"`
}
