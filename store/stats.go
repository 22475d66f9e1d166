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

type ReferralStats struct {
	db *gorm.DB
}

func NewReferralStats(db *gorm.DB) *ReferralStats {
	return &ReferralStats{db: db}
}

// Replace upserts one snapshot row per referrer.
func (s *ReferralStats) Replace(ctx context.Context, counts []ReferrerCount, at time.Time) error {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]models.ReferralStats, len(counts))
	for i, c := range counts {
		rows[i] = models.ReferralStats{UserID: c.ReferrerID, DirectReferrals: c.Total, RefreshedAt: at}
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direct_referrals", "refreshed_at"}),
		}).
		CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("upsert referral stats: %w", err)
	}
	return nil
}

func (s *ReferralStats) Get(ctx context.Context, userID string) (*models.ReferralStats, error) {
	var st models.ReferralStats
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query referral stats: %w", err)
	}
	return &st, nil
}
