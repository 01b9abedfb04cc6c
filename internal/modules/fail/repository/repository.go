package repository

import (
	"context"

	"failboard.id/failboard/internal/entity"
	commonDto "failboard.id/failboard/pkg/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FailRepository interface {
	Create(ctx context.Context, fail *entity.Fail) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Fail, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Fail, error)
	FindAll(ctx context.Context, filter commonDto.FailFilter) ([]entity.Fail, int64, error)
	Update(ctx context.Context, fail *entity.Fail) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountCommentsByFailIDs(ctx context.Context, failIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	IncrementViews(ctx context.Context, id uuid.UUID, by int) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type failRepository struct {
	db *gorm.DB
}

func NewFailRepository(db *gorm.DB) FailRepository {
	return &failRepository{db: db}
}

func (r *failRepository) Create(ctx context.Context, fail *entity.Fail) error {
	return r.db.WithContext(ctx).Create(fail).Error
}

func (r *failRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Fail, error) {
	var fail entity.Fail
	err := r.db.WithContext(ctx).
		Preload("User").Preload("User.Profile").Preload("Category").
		First(&fail, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &fail, nil
}

func (r *failRepository) FindBySlug(ctx context.Context, slug string) (*entity.Fail, error) {
	var fail entity.Fail
	err := r.db.WithContext(ctx).
		Preload("User").Preload("User.Profile").Preload("Category").
		First(&fail, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &fail, nil
}

func (r *failRepository) FindAll(ctx context.Context, filter commonDto.FailFilter) ([]entity.Fail, int64, error) {
	var fails []entity.Fail
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Fail{})

	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR story ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case "popular":
		query = query.Order("views DESC, created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.Preload("User").Preload("Category").
		Offset(offset).Limit(filter.Limit).
		Find(&fails).Error
	if err != nil {
		return nil, 0, err
	}

	return fails, total, nil
}

func (r *failRepository) Update(ctx context.Context, fail *entity.Fail) error {
	return r.db.WithContext(ctx).Save(fail).Error
}

func (r *failRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Fail{}, "id = ?", id).Error
}

func (r *failRepository) CountCommentsByFailIDs(ctx context.Context, failIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(failIDs))
	if len(failIDs) == 0 {
		return counts, nil
	}

	type row struct {
		FailID uuid.UUID
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Select("fail_id, COUNT(*) as total").
		Where("fail_id IN ?", failIDs).
		Group("fail_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.FailID] = row.Total
	}
	return counts, nil
}

func (r *failRepository) IncrementViews(ctx context.Context, id uuid.UUID, by int) error {
	return r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", by)).Error
}

func (r *failRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
