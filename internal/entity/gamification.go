package entity

import (
	"time"

	"github.com/google/uuid"
)

// CouragePointLog is the append-only record of every courage point award.
// The unique index on (actor_id, action_type, reference_id) blocks the
// react/unreact/react exploit: one actor can fund a given award only once.
type CouragePointLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index:idx_courage_user_date,priority:1;not null" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	ActionType  string     `gorm:"size:50;not null;index:idx_courage_actor,unique,priority:2" json:"action_type"` // 'share_fail', 'reaction_received', 'comment_received'
	Points      int        `gorm:"not null" json:"points"`
	ReferenceID string     `gorm:"size:36;index:idx_courage_actor,unique,priority:3" json:"reference_id"` // UUID of the fail or comment
	ActorID     *uuid.UUID `gorm:"type:uuid;index:idx_courage_actor,unique,priority:1" json:"actor_id"`
	CreatedAt   time.Time  `gorm:"index:idx_courage_user_date,priority:2" json:"created_at"`
}

func (CouragePointLog) TableName() string {
	return "courage_point_logs"
}

// UserStats holds the denormalized courage totals. TotalCourageAllTime is a
// cache over courage_point_logs; the integrity engine rebuilds it when it
// drifts from the summed log.
type UserStats struct {
	UserID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User                User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	TotalCourageAllTime int       `gorm:"default:0" json:"total_courage_all_time"`
	TotalCourageMonthly int       `gorm:"default:0" json:"total_courage_monthly"`
	TotalCourageWeekly  int       `gorm:"default:0" json:"total_courage_weekly"`
	LastUpdatedAt       time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
