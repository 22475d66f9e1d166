package models

import "time"

// ReferralClicks counts how often a member's referral link was opened.
type ReferralClicks struct {
	UserID        string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	Clicks        int64     `gorm:"not null;default:0" json:"clicks"`
	LastClickedAt time.Time `json:"last_clicked_at"`
}
