package dto

type ToggleReactionRequest struct {
	Type string `json:"type" binding:"required,oneof=hug respect me_too lol"`
}
