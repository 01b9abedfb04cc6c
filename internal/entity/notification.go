package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // receiver
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`      // who triggered it
	EntityID   uuid.UUID `gorm:"type:uuid" json:"entity_id"`              // fail, comment or user the notification points at
	EntitySlug string    `gorm:"type:varchar(255)" json:"entity_slug"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"` // 'fail', 'comment', 'badge'
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`        // 'reaction', 'comment', 'badge_unlocked', 'rank_up'
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
