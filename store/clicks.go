package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mooosty/bckndmaster/models"
)

type ReferralClicks struct {
	db *gorm.DB
}

func NewReferralClicks(db *gorm.DB) *ReferralClicks {
	return &ReferralClicks{db: db}
}

// Increment adds one click for userID, creating the counter row on first use.
func (s *ReferralClicks) Increment(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	row := models.ReferralClicks{UserID: userID, Clicks: 1, LastClickedAt: now}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"clicks":          gorm.Expr("referral_clicks.clicks + 1"),
				"last_clicked_at": now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("increment referral clicks: %w", err)
	}
	return nil
}

// Get returns the click count of userID, zero when none was recorded.
func (s *ReferralClicks) Get(ctx context.Context, userID string) (int64, error) {
	var row models.ReferralClicks
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query referral clicks: %w", err)
	}
	return row.Clicks, nil
}
