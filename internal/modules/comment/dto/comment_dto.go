package dto

import (
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

type CommentResponse struct {
	ID        uuid.UUID                `json:"id"`
	FailID    uuid.UUID                `json:"fail_id"`
	Content   string                   `json:"content"`
	Author    commonDto.AuthorResponse `json:"author"`
	CreatedAt string                   `json:"created_at"`
}
