package repository

import (
	"context"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository interface {
	ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error)
	GetDefinition(ctx context.Context, id string) (*entity.BadgeDefinition, error)
	CreateDefinition(ctx context.Context, def *entity.BadgeDefinition) error
	UpdateDefinition(ctx context.Context, def *entity.BadgeDefinition) error
	DeleteDefinition(ctx context.Context, id string) error

	GetUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error)
	InsertGrant(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error)
	CountGrants(ctx context.Context, userID uuid.UUID) (int64, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	var defs []entity.BadgeDefinition
	err := r.db.WithContext(ctx).Order("rarity, requirement_value, id").Find(&defs).Error
	return defs, err
}

func (r *badgeRepository) GetDefinition(ctx context.Context, id string) (*entity.BadgeDefinition, error) {
	var def entity.BadgeDefinition
	err := r.db.WithContext(ctx).First(&def, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *badgeRepository) CreateDefinition(ctx context.Context, def *entity.BadgeDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r *badgeRepository) UpdateDefinition(ctx context.Context, def *entity.BadgeDefinition) error {
	return r.db.WithContext(ctx).Save(def).Error
}

func (r *badgeRepository) DeleteDefinition(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.BadgeDefinition{}, "id = ?", id).Error
}

func (r *badgeRepository) GetUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	var badges []entity.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&badges).Error
	return badges, err
}

// InsertGrant writes a grant with insert-if-absent semantics. The composite
// unique index on (user_id, badge_id) makes concurrent attempts collapse to
// one row; the bool reports whether this call created it.
func (r *badgeRepository) InsertGrant(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	grant := entity.UserBadge{
		UserID:  userID,
		BadgeID: badgeID,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&grant)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *badgeRepository) CountGrants(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.UserBadge{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
