package repository

import (
	"time"

	"failboard.id/failboard/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository interface {
	CreatePointLog(log *entity.CouragePointLog) error
	UpdateUserStats(userID uuid.UUID, points int) error
	GetDailyShareCount(userID uuid.UUID, date time.Time) (int64, error)
	HasActorAwardExists(actorID uuid.UUID, actionType string, referenceID string) (bool, error)
	GetTopUsers(limit int, timeframe string) ([]entity.UserStats, error)
	GetUserStatsByUserID(userID uuid.UUID) (*entity.UserStats, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) CreatePointLog(log *entity.CouragePointLog) error {
	return r.db.Create(log).Error
}

func (r *leaderboardRepository) UpdateUserStats(userID uuid.UUID, points int) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_courage_all_time": gorm.Expr("user_stats.total_courage_all_time + ?", points),
			"total_courage_monthly":  gorm.Expr("user_stats.total_courage_monthly + ?", points),
			"total_courage_weekly":   gorm.Expr("user_stats.total_courage_weekly + ?", points),
			"last_updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entity.UserStats{
		UserID:              userID,
		TotalCourageAllTime: points,
		TotalCourageMonthly: points,
		TotalCourageWeekly:  points,
	}).Error
}

func (r *leaderboardRepository) GetDailyShareCount(userID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	err := r.db.Model(&entity.CouragePointLog{}).
		Where("user_id = ? AND action_type = ? AND created_at >= ? AND created_at < ?", userID, "share_fail", startOfDay, endOfDay).
		Count(&count).Error
	return count, err
}

// HasActorAwardExists reports whether this actor already funded an award of
// this type for this reference. Guards the react/unreact/react exploit.
func (r *leaderboardRepository) HasActorAwardExists(actorID uuid.UUID, actionType string, referenceID string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.CouragePointLog{}).
		Where("actor_id = ? AND action_type = ? AND reference_id = ?", actorID, actionType, referenceID).
		Count(&count).Error
	return count > 0, err
}

func (r *leaderboardRepository) GetTopUsers(limit int, timeframe string) ([]entity.UserStats, error) {
	var stats []entity.UserStats

	now := time.Now()
	weeklyStartDate := now.AddDate(0, 0, -7)

	if timeframe == "" || timeframe == "all_time" {
		err := r.db.Preload("User").Preload("User.Role").Preload("User.Profile").
			Order("total_courage_all_time DESC").Limit(limit).Find(&stats).Error
		if err != nil {
			return nil, err
		}

		if len(stats) > 0 {
			var userIDs []uuid.UUID
			for _, s := range stats {
				userIDs = append(userIDs, s.UserID)
			}

			weeklyMap, err := r.sumPointsSince(userIDs, weeklyStartDate)
			if err != nil {
				return nil, err
			}
			for i := range stats {
				stats[i].TotalCourageWeekly = weeklyMap[stats[i].UserID]
			}
		}

		return stats, nil
	}

	var startDate time.Time
	switch timeframe {
	case "weekly":
		startDate = weeklyStartDate
	case "monthly":
		startDate = now.AddDate(0, -1, 0)
	}

	type Result struct {
		UserID uuid.UUID
		Score  int
	}
	var results []Result

	err := r.db.Model(&entity.CouragePointLog{}).
		Select("user_id, SUM(points) as score").
		Where("created_at >= ?", startDate).
		Group("user_id").
		Order("score DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return stats, nil
	}

	var userIDs []uuid.UUID
	for _, res := range results {
		userIDs = append(userIDs, res.UserID)
	}

	var users []entity.User
	if err := r.db.Preload("Role").Preload("Profile").Find(&users, userIDs).Error; err != nil {
		return nil, err
	}

	var realStats []entity.UserStats
	r.db.Where("user_id IN ?", userIDs).Find(&realStats)

	userMap := make(map[uuid.UUID]entity.User)
	for _, u := range users {
		userMap[u.ID] = u
	}

	allTimeMap := make(map[uuid.UUID]int)
	for _, rs := range realStats {
		allTimeMap[rs.UserID] = rs.TotalCourageAllTime
	}

	weeklyMap, err := r.sumPointsSince(userIDs, weeklyStartDate)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		s := entity.UserStats{
			UserID:              res.UserID,
			User:                userMap[res.UserID],
			TotalCourageAllTime: allTimeMap[res.UserID], // rank is always all-time
			TotalCourageWeekly:  weeklyMap[res.UserID],
		}

		if timeframe == "weekly" {
			s.TotalCourageWeekly = res.Score
		} else {
			s.TotalCourageMonthly = res.Score
		}

		stats = append(stats, s)
	}

	return stats, nil
}

func (r *leaderboardRepository) sumPointsSince(userIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	type Result struct {
		UserID uuid.UUID
		Score  int
	}
	var results []Result
	err := r.db.Model(&entity.CouragePointLog{}).
		Select("user_id, SUM(points) as score").
		Where("user_id IN ? AND created_at >= ?", userIDs, since).
		Group("user_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int, len(results))
	for _, res := range results {
		out[res.UserID] = res.Score
	}
	return out, nil
}

func (r *leaderboardRepository) GetUserStatsByUserID(userID uuid.UUID) (*entity.UserStats, error) {
	var stats entity.UserStats
	err := r.db.Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &entity.UserStats{UserID: userID}, nil
		}
		return nil, err
	}

	// Weekly score is always recomputed from the log (last 7 days)
	weeklyStartDate := time.Now().AddDate(0, 0, -7)
	var weeklyScore int
	r.db.Model(&entity.CouragePointLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND created_at >= ?", userID, weeklyStartDate).
		Scan(&weeklyScore)

	stats.TotalCourageWeekly = weeklyScore

	return &stats, nil
}
