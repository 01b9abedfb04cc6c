package dto

import "github.com/google/uuid"

type AuthorResponse struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type FailFilter struct {
	CategoryID string `form:"category_id"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by"` // "newest", "popular"
	Page       int    `form:"page" binding:"min=1"`
	Limit      int    `form:"limit" binding:"min=1,max=20"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
}

type FailResponse struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Slug         string            `json:"slug"`
	Story        string            `json:"story"`
	Lesson       string            `json:"lesson,omitempty"`
	CategoryName string            `json:"category_name"`
	Author       AuthorResponse    `json:"author"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	CommentCount int64             `json:"comment_count"`
	Views        int               `json:"views"`
	Reactions    ReactionsResponse `json:"reactions"`
}

type PaginatedFailResponse struct {
	Data []FailResponse `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type ReactionsResponse struct {
	Counts      map[string]int64 `json:"counts"`
	UserReacted *string          `json:"user_reacted"`
}

type CourageStatus struct {
	RankName      string  `json:"rank_name"`
	NextRank      string  `json:"next_rank"`
	CurrentPoints int     `json:"current_points"`
	TargetPoints  int     `json:"target_points"`
	Progress      float64 `json:"progress"` // percentage toward the next rank
	WeeklyPoints  int     `json:"weekly_points"`
	WeeklyLabel   string  `json:"weekly_label"`
}
