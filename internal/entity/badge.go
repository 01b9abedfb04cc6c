package entity

import (
	"time"

	"github.com/google/uuid"
)

// BadgeRarity classifies how hard a badge is to earn.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

func (r BadgeRarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// RequirementType is the statistic a badge threshold is measured against.
// The set is closed: the evaluator has one branch per value and treats
// anything else as never satisfied.
type RequirementType string

const (
	ReqFailCount              RequirementType = "fail_count"
	ReqCommentCount           RequirementType = "comment_count"
	ReqCommentsReceived       RequirementType = "comments_received"
	ReqReactionsGiven         RequirementType = "reactions_given"
	ReqReactionsReceived      RequirementType = "reactions_received"
	ReqHugsGiven              RequirementType = "hugs_given"
	ReqHugsReceived           RequirementType = "hugs_received"
	ReqRespectGiven           RequirementType = "respect_given"
	ReqRespectReceived        RequirementType = "respect_received"
	ReqMeTooGiven             RequirementType = "me_too_given"
	ReqMeTooReceived          RequirementType = "me_too_received"
	ReqLolGiven               RequirementType = "lol_given"
	ReqLolReceived            RequirementType = "lol_received"
	ReqCouragePoints          RequirementType = "courage_points"
	ReqStreakDays             RequirementType = "streak_days"
	ReqCommentStreakDays      RequirementType = "comment_streak_days"
	ReqCategoriesUsed         RequirementType = "categories_used"
	ReqMaxReactionsSingle     RequirementType = "max_reactions_single"
	ReqMaxCommentsSingle      RequirementType = "max_comments_single"
	ReqBadgesUnlocked         RequirementType = "badges_unlocked"
	ReqBadgesPercentage       RequirementType = "badges_percentage"
	ReqAccountAgeDays         RequirementType = "account_age_days"
	ReqFailsSingleDay         RequirementType = "fails_single_day"
	ReqDistinctReactors       RequirementType = "distinct_reactors"
	ReqDistinctAuthorsReacted RequirementType = "distinct_authors_reacted_to"
	ReqWeekendFails           RequirementType = "weekend_fails"
	ReqNightFails             RequirementType = "night_fails"
	ReqEarlyFails             RequirementType = "early_fails"
	ReqPopularFails           RequirementType = "popular_fails"
	ReqTotalActivity          RequirementType = "total_activity"
)

// AllRequirementTypes lists every type the evaluator understands, in a
// stable order. Admin badge CRUD validates against this list.
var AllRequirementTypes = []RequirementType{
	ReqFailCount, ReqCommentCount, ReqCommentsReceived,
	ReqReactionsGiven, ReqReactionsReceived,
	ReqHugsGiven, ReqHugsReceived, ReqRespectGiven, ReqRespectReceived,
	ReqMeTooGiven, ReqMeTooReceived, ReqLolGiven, ReqLolReceived,
	ReqCouragePoints, ReqStreakDays, ReqCommentStreakDays,
	ReqCategoriesUsed, ReqMaxReactionsSingle, ReqMaxCommentsSingle,
	ReqBadgesUnlocked, ReqBadgesPercentage, ReqAccountAgeDays,
	ReqFailsSingleDay, ReqDistinctReactors, ReqDistinctAuthorsReacted,
	ReqWeekendFails, ReqNightFails, ReqEarlyFails,
	ReqPopularFails, ReqTotalActivity,
}

func (t RequirementType) Valid() bool {
	for _, known := range AllRequirementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BadgeDefinition is one row of the badge catalog. The catalog table is the
// single source of truth for which badges exist; there is no compiled-in
// fallback list. Definitions are immutable once referenced by a grant.
type BadgeDefinition struct {
	ID               string          `gorm:"size:100;primaryKey" json:"id"`
	Name             string          `gorm:"size:100;not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	Icon             string          `gorm:"size:100" json:"icon"`
	Category         string          `gorm:"size:50" json:"category"`
	Rarity           BadgeRarity     `gorm:"size:20;not null;default:'common'" json:"rarity"`
	RequirementType  RequirementType `gorm:"size:50;not null" json:"requirement_type"`
	RequirementValue int             `gorm:"not null" json:"requirement_value"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BadgeDefinition) TableName() string {
	return "badge_definitions"
}

// UserBadge records one grant. Append-only: rows are never updated and are
// deleted only through explicit administrative override, never by normal
// flow. The composite unique index is what makes concurrent grant attempts
// idempotent.
type UserBadge struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_user_badge,unique,priority:1" json:"user_id"`
	User       User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BadgeID    string          `gorm:"size:100;not null;index:idx_user_badge,unique,priority:2" json:"badge_id"`
	Badge      BadgeDefinition `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	UnlockedAt time.Time       `gorm:"autoCreateTime" json:"unlocked_at"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
