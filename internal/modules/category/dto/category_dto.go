package dto

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type CategoryFilter struct {
	Search string `form:"search"`
}

type DeleteCategoryRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
