package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite records that ReferrerID referred ReferredID. At most one row exists per
// pair; rows are never updated or deleted.
type Invite struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	ReferrerID string    `gorm:"type:uuid;not null;uniqueIndex:idx_invite_pair,priority:1" json:"referrer_id"`
	ReferredID string    `gorm:"type:uuid;not null;uniqueIndex:idx_invite_pair,priority:2;index" json:"referred_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
