package repository

import (
	"context"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CounterMismatch is one (fail, type) pair where the denormalized counter
// disagrees with the actual reaction count.
type CounterMismatch struct {
	FailID uuid.UUID           `json:"fail_id"`
	Type   entity.ReactionType `json:"type"`
	Cached int64               `json:"cached"`
	Actual int64               `json:"actual"`
}

// StaleCourageTotal is a user whose cached all-time total has drifted from
// the summed point log.
type StaleCourageTotal struct {
	UserID uuid.UUID `json:"user_id"`
	Cached int64     `json:"cached"`
	Actual int64     `json:"actual"`
}

type IntegrityRepository interface {
	FindOrphanReactions(ctx context.Context) ([]entity.Reaction, error)
	DeleteOrphanReactions(ctx context.Context) (int64, error)
	FindCounterMismatches(ctx context.Context) ([]CounterMismatch, error)
	FindUsersWithoutStats(ctx context.Context) ([]uuid.UUID, error)
	FindStaleCourageTotals(ctx context.Context) ([]StaleCourageTotal, error)
	RecountReactions(ctx context.Context, failID uuid.UUID) (map[entity.ReactionType]int64, error)
	ReplaceCounters(ctx context.Context, failID uuid.UUID, counts map[entity.ReactionType]int64) error
	SumCouragePoints(ctx context.Context, userID uuid.UUID) (int64, error)
	SetCourageTotal(ctx context.Context, userID uuid.UUID, total int64) error
	FailExists(ctx context.Context, failID uuid.UUID) (bool, error)
}

type integrityRepository struct {
	db *gorm.DB
}

func NewIntegrityRepository(db *gorm.DB) IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) FindOrphanReactions(ctx context.Context) ([]entity.Reaction, error) {
	var orphans []entity.Reaction
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN fails ON fails.id = reactions.fail_id").
		Where("fails.id IS NULL").
		Find(&orphans).Error
	return orphans, err
}

func (r *integrityRepository) DeleteOrphanReactions(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM reactions
		WHERE fail_id NOT IN (SELECT id FROM fails)`)
	return result.RowsAffected, result.Error
}

// FindCounterMismatches compares every cached counter against the actual
// count, both ways: counters with no backing reactions and reaction groups
// with no counter row are mismatches too. Scoped to fails that still exist;
// dangling reactions are FindOrphanReactions territory.
func (r *integrityRepository) FindCounterMismatches(ctx context.Context) ([]CounterMismatch, error) {
	var mismatches []CounterMismatch
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(rc.fail_id, actual.fail_id) AS fail_id,
			COALESCE(rc.type, actual.type) AS type,
			COALESCE(rc.count, 0) AS cached,
			COALESCE(actual.total, 0) AS actual
		FROM reaction_counters rc
		FULL OUTER JOIN (
			SELECT fail_id, type, COUNT(*) AS total
			FROM reactions
			GROUP BY fail_id, type
		) actual ON actual.fail_id = rc.fail_id AND actual.type = rc.type
		WHERE COALESCE(rc.count, 0) <> COALESCE(actual.total, 0)
		  AND COALESCE(rc.fail_id, actual.fail_id) IN (SELECT id FROM fails)`).
		Scan(&mismatches).Error
	return mismatches, err
}

func (r *integrityRepository) FindUsersWithoutStats(ctx context.Context) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT cpl.user_id
		FROM courage_point_logs cpl
		LEFT JOIN user_stats us ON us.user_id = cpl.user_id
		WHERE us.user_id IS NULL`).
		Scan(&userIDs).Error
	return userIDs, err
}

func (r *integrityRepository) FindStaleCourageTotals(ctx context.Context) ([]StaleCourageTotal, error) {
	var stale []StaleCourageTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT us.user_id, us.total_courage_all_time AS cached, COALESCE(SUM(cpl.points), 0) AS actual
		FROM user_stats us
		LEFT JOIN courage_point_logs cpl ON cpl.user_id = us.user_id
		GROUP BY us.user_id, us.total_courage_all_time
		HAVING us.total_courage_all_time <> COALESCE(SUM(cpl.points), 0)`).
		Scan(&stale).Error
	return stale, err
}

func (r *integrityRepository) RecountReactions(ctx context.Context, failID uuid.UUID) (map[entity.ReactionType]int64, error) {
	type row struct {
		Type  entity.ReactionType
		Total int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.Reaction{}).
		Select("type, COUNT(*) as total").
		Where("fail_id = ?", failID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.ReactionType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Total
	}
	return counts, nil
}

// ReplaceCounters overwrites the counter rows for one fail with the given
// recount inside a transaction. A type absent from counts means zero, which
// is stored as no row. Idempotent by construction.
func (r *integrityRepository) ReplaceCounters(ctx context.Context, failID uuid.UUID, counts map[entity.ReactionType]int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fail_id = ?", failID).Delete(&entity.ReactionCounter{}).Error; err != nil {
			return err
		}

		for reactionType, count := range counts {
			if count <= 0 {
				continue
			}
			counter := entity.ReactionCounter{
				FailID: failID,
				Type:   reactionType,
				Count:  count,
			}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *integrityRepository) SumCouragePoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.CouragePointLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

func (r *integrityRepository) SetCourageTotal(ctx context.Context, userID uuid.UUID, total int64) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO user_stats (user_id, total_courage_all_time, last_updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
		SET total_courage_all_time = EXCLUDED.total_courage_all_time,
		    last_updated_at = CURRENT_TIMESTAMP`, userID, total).Error
}

func (r *integrityRepository) FailExists(ctx context.Context, failID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Fail{}).
		Where("id = ?", failID).Count(&count).Error
	return count > 0, err
}
