package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReactionType is the closed set of supported reactions to a fail.
type ReactionType string

const (
	ReactionHug     ReactionType = "hug"
	ReactionRespect ReactionType = "respect"
	ReactionMeToo   ReactionType = "me_too"
	ReactionLol     ReactionType = "lol"
)

var AllReactionTypes = []ReactionType{ReactionHug, ReactionRespect, ReactionMeToo, ReactionLol}

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionHug, ReactionRespect, ReactionMeToo, ReactionLol:
		return true
	}
	return false
}

// Reaction is the source-of-truth record of one user's reaction to one fail.
// A user holds at most one active reaction per fail.
type Reaction struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_reactions_unique,unique,priority:1" json:"user_id"`
	User      User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FailID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_reactions_unique,unique,priority:2;index:idx_reactions_lookup" json:"fail_id"`
	Type      ReactionType `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reaction) TableName() string {
	return "reactions"
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

// ReactionCounter is the denormalized per-fail tally for one reaction type.
// It is a cache over the reactions table: the integrity engine recomputes it
// from source records whenever it drifts.
type ReactionCounter struct {
	FailID    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"fail_id"`
	Type      ReactionType `gorm:"size:20;primaryKey" json:"type"`
	Count     int64        `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ReactionCounter) TableName() string {
	return "reaction_counters"
}
