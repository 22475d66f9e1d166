package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mooosty/bckndmaster/models"
)

type Invites struct {
	db *gorm.DB
}

func NewInvites(db *gorm.DB) *Invites {
	return &Invites{db: db}
}

// CreateIfAbsent inserts the edge with ON CONFLICT DO NOTHING against the pair
// index, so concurrent identical requests record it once.
func (s *Invites) CreateIfAbsent(ctx context.Context, referrerID, referredID string) (bool, error) {
	inv := models.Invite{ReferrerID: referrerID, ReferredID: referredID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referrer_id"}, {Name: "referred_id"}},
			DoNothing: true,
		}).
		Create(&inv)
	if res.Error != nil {
		return false, fmt.Errorf("create invite: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FindReferrerOf returns the earliest referrer recorded for referredID.
func (s *Invites) FindReferrerOf(ctx context.Context, referredID string) (string, error) {
	var inv models.Invite
	err := s.db.WithContext(ctx).
		Where("referred_id = ?", referredID).
		Order("created_at ASC").
		Order("id ASC").
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("query invite: %w", err)
	}
	return inv.ReferrerID, nil
}

// ReferrerCount is the number of direct referrals of one user.
type ReferrerCount struct {
	ReferrerID string
	Total      int64
}

// CountByReferrer aggregates direct referrals per referrer.
func (s *Invites) CountByReferrer(ctx context.Context) ([]ReferrerCount, error) {
	var rows []ReferrerCount
	err := s.db.WithContext(ctx).
		Model(&models.Invite{}).
		Select("referrer_id, COUNT(*) AS total").
		Group("referrer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count invites: %w", err)
	}
	return rows, nil
}

// CountForReferrer counts the direct referrals of one user.
func (s *Invites) CountForReferrer(ctx context.Context, referrerID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("referrer_id = ?", referrerID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count invites: %w", err)
	}
	return total, nil
}

// ListByReferrer returns the invites a user created, newest first.
func (s *Invites) ListByReferrer(ctx context.Context, referrerID string, limit int) ([]models.Invite, error) {
	var invites []models.Invite
	q := s.db.WithContext(ctx).Where("referrer_id = ?", referrerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}
