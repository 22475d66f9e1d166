package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mooosty/bckndmaster/models"
)

// profileColumns are the columns a profile save may touch. Reward counters are
// never written here; they only move through IncrementRewards.
var profileColumns = []string{
	"first_name", "last_name", "name", "username", "bio", "short_bio",
	"primary_city", "roles", "profile_image", "twitter_username", "twitter_verified",
	"onboarding_completed", "onboarding_step", "updated_at",
}

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Users) FindByDynamicID(ctx context.Context, dynamicID string) (*models.User, error) {
	if dynamicID == "" {
		return nil, models.ErrNotFound
	}
	return s.first(ctx, "dynamic_id = ?", dynamicID)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Users) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// IncrementRewards adds to the points and winwin counters in a single UPDATE.
func (s *Users) IncrementRewards(ctx context.Context, userID string, points, winwin int64) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"points":         gorm.Expr("points + ?", points),
			"winwin_balance": gorm.Expr("winwin_balance + ?", winwin),
		})
	if res.Error != nil {
		return fmt.Errorf("increment rewards: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Register returns the user with the given email, creating it when absent. A
// non-empty dynamicID is stored on the user either way. An email held by a
// soft-deleted user yields models.ErrDeleted.
func (s *Users) Register(ctx context.Context, email, dynamicID string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Unscoped so a deleted holder of the unique email is seen here, not at insert.
		err := tx.Unscoped().Where("email = ?", email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = models.User{Email: email, DynamicID: dynamicID, OnboardingStep: 1, Status: "ACTIVE"}
			return tx.Create(&u).Error
		}
		if err != nil {
			return err
		}
		if u.DeletedAt.Valid {
			return models.ErrDeleted
		}
		if dynamicID != "" && u.DynamicID != dynamicID {
			if err := tx.Model(&u).Update("dynamic_id", dynamicID).Error; err != nil {
				return err
			}
			u.DynamicID = dynamicID
		}
		return nil
	})
	if errors.Is(err, models.ErrDeleted) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SaveProfile writes the profile columns of u.
func (s *Users) SaveProfile(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).Model(u).Select(profileColumns).Updates(u)
	if res.Error != nil {
		return fmt.Errorf("save profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
