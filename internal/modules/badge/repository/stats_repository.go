package repository

import (
	"context"
	"time"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsRepository reads the raw numbers the statistics aggregator needs.
// Everything is computed from the source-of-truth tables except reaction
// tallies, which come from the reaction_counters cache (the integrity
// engine keeps it honest).
type StatsRepository interface {
	CountFails(ctx context.Context, userID uuid.UUID) (int64, error)
	CountComments(ctx context.Context, userID uuid.UUID) (int64, error)
	CountCommentsReceived(ctx context.Context, userID uuid.UUID) (int64, error)
	ReactionsGivenByType(ctx context.Context, userID uuid.UUID) (map[entity.ReactionType]int64, error)
	ReactionsReceivedByType(ctx context.Context, userID uuid.UUID) (map[entity.ReactionType]int64, error)
	CouragePoints(ctx context.Context, userID uuid.UUID) (int64, error)
	FailCreationTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
	CommentCreationTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
	CountCategoriesUsed(ctx context.Context, userID uuid.UUID) (int64, error)
	MaxReactionsOnSingleFail(ctx context.Context, userID uuid.UUID) (int64, error)
	MaxCommentsOnSingleFail(ctx context.Context, userID uuid.UUID) (int64, error)
	CountDistinctReactors(ctx context.Context, userID uuid.UUID) (int64, error)
	CountDistinctAuthorsReactedTo(ctx context.Context, userID uuid.UUID) (int64, error)
	CountPopularFails(ctx context.Context, userID uuid.UUID, minReactions int64) (int64, error)
	AccountCreatedAt(ctx context.Context, userID uuid.UUID) (time.Time, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CountFails(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *statsRepository) CountComments(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountCommentsReceived counts comments other users left on this user's
// fails. Commenting on your own fail doesn't count toward anything.
func (r *statsRepository) CountCommentsReceived(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Joins("JOIN fails ON fails.id = comments.fail_id").
		Where("fails.user_id = ? AND comments.user_id <> ?", userID, userID).
		Count(&count).Error
	return count, err
}

type typeCountRow struct {
	Type  entity.ReactionType
	Total int64
}

func (r *statsRepository) ReactionsGivenByType(ctx context.Context, userID uuid.UUID) (map[entity.ReactionType]int64, error) {
	var rows []typeCountRow
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Select("type, COUNT(*) as total").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return typeCountsToMap(rows), nil
}

func (r *statsRepository) ReactionsReceivedByType(ctx context.Context, userID uuid.UUID) (map[entity.ReactionType]int64, error) {
	var rows []typeCountRow
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Select("reactions.type, COUNT(*) as total").
		Joins("JOIN fails ON fails.id = reactions.fail_id").
		Where("fails.user_id = ? AND reactions.user_id <> ?", userID, userID).
		Group("reactions.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return typeCountsToMap(rows), nil
}

func typeCountsToMap(rows []typeCountRow) map[entity.ReactionType]int64 {
	counts := make(map[entity.ReactionType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Total
	}
	return counts
}

func (r *statsRepository) CouragePoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	var stats entity.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return int64(stats.TotalCourageAllTime), nil
}

func (r *statsRepository) FailCreationTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *statsRepository) CommentCreationTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *statsRepository) CountCategoriesUsed(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("user_id = ? AND category_id IS NOT NULL", userID).
		Distinct("category_id").
		Count(&count).Error
	return count, err
}

func (r *statsRepository) MaxReactionsOnSingleFail(ctx context.Context, userID uuid.UUID) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(t.total), 0) FROM (
			SELECT SUM(rc.count) AS total
			FROM reaction_counters rc
			JOIN fails f ON f.id = rc.fail_id
			WHERE f.user_id = ?
			GROUP BY rc.fail_id
		) t`, userID).Scan(&max).Error
	return max, err
}

func (r *statsRepository) MaxCommentsOnSingleFail(ctx context.Context, userID uuid.UUID) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(t.total), 0) FROM (
			SELECT COUNT(*) AS total
			FROM comments c
			JOIN fails f ON f.id = c.fail_id
			WHERE f.user_id = ? AND c.user_id <> f.user_id
			GROUP BY c.fail_id
		) t`, userID).Scan(&max).Error
	return max, err
}

func (r *statsRepository) CountDistinctReactors(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Joins("JOIN fails ON fails.id = reactions.fail_id").
		Where("fails.user_id = ? AND reactions.user_id <> ?", userID, userID).
		Distinct("reactions.user_id").
		Count(&count).Error
	return count, err
}

func (r *statsRepository) CountDistinctAuthorsReactedTo(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Joins("JOIN fails ON fails.id = reactions.fail_id").
		Where("reactions.user_id = ? AND fails.user_id <> ?", userID, userID).
		Distinct("fails.user_id").
		Count(&count).Error
	return count, err
}

func (r *statsRepository) CountPopularFails(ctx context.Context, userID uuid.UUID, minReactions int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			SELECT rc.fail_id
			FROM reaction_counters rc
			JOIN fails f ON f.id = rc.fail_id
			WHERE f.user_id = ?
			GROUP BY rc.fail_id
			HAVING SUM(rc.count) >= ?
		) t`, userID, minReactions).Scan(&count).Error
	return count, err
}

func (r *statsRepository) AccountCreatedAt(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Select("id", "created_at").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return time.Time{}, err
	}
	return user.CreatedAt, nil
}
