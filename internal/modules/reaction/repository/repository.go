package repository

import (
	"context"
	"errors"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult describes what a toggle did to the source-of-truth table.
// Added is the type now active (nil after a removal), Removed the type that
// was active before (nil on a fresh reaction).
type ToggleResult struct {
	Added   *entity.ReactionType
	Removed *entity.ReactionType
}

type ReactionRepository interface {
	Toggle(ctx context.Context, userID, failID uuid.UUID, reactionType entity.ReactionType) (*ToggleResult, error)
	GetCounters(ctx context.Context, failID uuid.UUID) (map[entity.ReactionType]int64, error)
	GetCountersForFails(ctx context.Context, failIDs []uuid.UUID) (map[uuid.UUID]map[entity.ReactionType]int64, error)
	GetUserReaction(ctx context.Context, userID, failID uuid.UUID) (*entity.ReactionType, error)
	GetUserReactionsForFails(ctx context.Context, userID uuid.UUID, failIDs []uuid.UUID) (map[uuid.UUID]entity.ReactionType, error)
	FindFailAuthor(ctx context.Context, failID uuid.UUID) (uuid.UUID, string, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Toggle applies the one-active-reaction-per-user-per-fail rule and keeps
// the reaction_counters rows in step, all inside one transaction. Same type
// twice removes the reaction; a different type switches it.
func (r *reactionRepository) Toggle(ctx context.Context, userID, failID uuid.UUID, reactionType entity.ReactionType) (*ToggleResult, error) {
	result := &ToggleResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.Reaction
		err := tx.Where("user_id = ? AND fail_id = ?", userID, failID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction := entity.Reaction{
				UserID: userID,
				FailID: failID,
				Type:   reactionType,
			}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
			if err := bumpCounter(tx, failID, reactionType, 1); err != nil {
				return err
			}
			result.Added = &reactionType

		case err != nil:
			return err

		case existing.Type == reactionType:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := bumpCounter(tx, failID, reactionType, -1); err != nil {
				return err
			}
			removed := reactionType
			result.Removed = &removed

		default:
			previous := existing.Type
			if err := tx.Model(&existing).Update("type", reactionType).Error; err != nil {
				return err
			}
			if err := bumpCounter(tx, failID, previous, -1); err != nil {
				return err
			}
			if err := bumpCounter(tx, failID, reactionType, 1); err != nil {
				return err
			}
			result.Added = &reactionType
			result.Removed = &previous
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func bumpCounter(tx *gorm.DB, failID uuid.UUID, reactionType entity.ReactionType, delta int64) error {
	if delta > 0 {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fail_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count": gorm.Expr("reaction_counters.count + ?", delta),
			}),
		}).Create(&entity.ReactionCounter{
			FailID: failID,
			Type:   reactionType,
			Count:  delta,
		}).Error
	}

	// GREATEST keeps the cache from going negative when it has drifted;
	// the integrity engine fixes the actual value later.
	return tx.Model(&entity.ReactionCounter{}).
		Where("fail_id = ? AND type = ?", failID, reactionType).
		UpdateColumn("count", gorm.Expr("GREATEST(reaction_counters.count + ?, 0)", delta)).Error
}

func (r *reactionRepository) GetCounters(ctx context.Context, failID uuid.UUID) (map[entity.ReactionType]int64, error) {
	var rows []entity.ReactionCounter
	err := r.db.WithContext(ctx).Where("fail_id = ?", failID).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.ReactionType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (r *reactionRepository) GetCountersForFails(ctx context.Context, failIDs []uuid.UUID) (map[uuid.UUID]map[entity.ReactionType]int64, error) {
	out := make(map[uuid.UUID]map[entity.ReactionType]int64, len(failIDs))
	if len(failIDs) == 0 {
		return out, nil
	}

	var rows []entity.ReactionCounter
	err := r.db.WithContext(ctx).Where("fail_id IN ?", failIDs).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if out[row.FailID] == nil {
			out[row.FailID] = make(map[entity.ReactionType]int64)
		}
		out[row.FailID][row.Type] = row.Count
	}
	return out, nil
}

func (r *reactionRepository) GetUserReaction(ctx context.Context, userID, failID uuid.UUID) (*entity.ReactionType, error) {
	var reaction entity.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND fail_id = ?", userID, failID).
		First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reaction.Type, nil
}

func (r *reactionRepository) GetUserReactionsForFails(ctx context.Context, userID uuid.UUID, failIDs []uuid.UUID) (map[uuid.UUID]entity.ReactionType, error) {
	out := make(map[uuid.UUID]entity.ReactionType, len(failIDs))
	if len(failIDs) == 0 {
		return out, nil
	}

	var reactions []entity.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND fail_id IN ?", userID, failIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	for _, reaction := range reactions {
		out[reaction.FailID] = reaction.Type
	}
	return out, nil
}

func (r *reactionRepository) FindFailAuthor(ctx context.Context, failID uuid.UUID) (uuid.UUID, string, error) {
	var fail entity.Fail
	err := r.db.WithContext(ctx).Select("id", "user_id", "slug").
		First(&fail, "id = ?", failID).Error
	if err != nil {
		return uuid.Nil, "", err
	}
	return fail.UserID, fail.Slug, nil
}
