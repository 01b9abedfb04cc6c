package dto

import "failboard.id/failboard/internal/entity"

type BadgeDefinitionRequest struct {
	ID               string `json:"id" binding:"required,min=2,max=100"`
	Name             string `json:"name" binding:"required,min=2,max=100"`
	Description      string `json:"description" binding:"max=1000"`
	Icon             string `json:"icon" binding:"max=100"`
	Category         string `json:"category" binding:"max=50"`
	Rarity           string `json:"rarity" binding:"required,oneof=common rare epic legendary"`
	RequirementType  string `json:"requirement_type" binding:"required"`
	RequirementValue int    `json:"requirement_value" binding:"required,min=1"`
}

type BadgeStatusResponse struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	Icon             string                 `json:"icon"`
	Category         string                 `json:"category"`
	Rarity           entity.BadgeRarity     `json:"rarity"`
	RequirementType  entity.RequirementType `json:"requirement_type"`
	RequirementValue int                    `json:"requirement_value"`
	IsUnlocked       bool                   `json:"is_unlocked"`
	UnlockedAt       *string                `json:"unlocked_at,omitempty"`
}
