package repository

import (
	"context"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	FindByFailID(ctx context.Context, failID uuid.UUID, limit, offset int) ([]entity.Comment, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindFailAuthor(ctx context.Context, failID uuid.UUID) (uuid.UUID, string, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByFailID(ctx context.Context, failID uuid.UUID, limit, offset int) ([]entity.Comment, int64, error) {
	var comments []entity.Comment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Comment{}).Where("fail_id = ?", failID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Comment{}, "id = ?", id).Error
}

// FindFailAuthor returns the author ID and slug of a fail. Used to address
// notifications and courage awards without loading the whole fail.
func (r *commentRepository) FindFailAuthor(ctx context.Context, failID uuid.UUID) (uuid.UUID, string, error) {
	var fail entity.Fail
	err := r.db.WithContext(ctx).Select("id", "user_id", "slug").
		First(&fail, "id = ?", failID).Error
	if err != nil {
		return uuid.Nil, "", err
	}
	return fail.UserID, fail.Slug, nil
}
