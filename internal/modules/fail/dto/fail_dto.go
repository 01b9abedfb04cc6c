package dto

type CreateFailRequest struct {
	Title      string `json:"title" binding:"required,min=5,max=255"`
	Story      string `json:"story" binding:"required,min=20"`
	Lesson     string `json:"lesson" binding:"omitempty,max=5000"`
	CategoryID string `json:"category_id" binding:"omitempty,uuid"`
}

type UpdateFailRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=5,max=255"`
	Story      *string `json:"story" binding:"omitempty,min=20"`
	Lesson     *string `json:"lesson" binding:"omitempty,max=5000"`
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
}
