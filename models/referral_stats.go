package models

import "time"

// ReferralStats is a periodically rebuilt snapshot of how many users each member
// referred directly.
type ReferralStats struct {
	UserID          string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	DirectReferrals int64     `gorm:"not null;default:0" json:"direct_referrals"`
	RefreshedAt     time.Time `gorm:"not null" json:"refreshed_at"`
}
