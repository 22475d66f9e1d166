package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// User is a platform member. Points and WinwinBalance are credited by referral
// propagation; GoodwillPoints and CollabPoints belong to the rest of the app.
type User struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	DynamicID string `gorm:"index" json:"dynamic_id,omitempty"` // external auth id or wallet address
	Username  string `gorm:"index" json:"username,omitempty"`

	FirstName    string   `json:"firstname,omitempty"`
	LastName     string   `json:"lastname,omitempty"`
	Name         string   `json:"name,omitempty"`
	Bio          string   `gorm:"type:text" json:"bio,omitempty"`
	ShortBio     string   `json:"short_bio,omitempty"`
	PrimaryCity  string   `json:"primary_city,omitempty"`
	Roles        []string `gorm:"serializer:json;type:text" json:"roles"`
	ProfileImage string   `gorm:"type:text" json:"profile_image,omitempty"`

	TwitterUsername string `json:"twitter_username,omitempty"`
	TwitterVerified bool   `gorm:"default:false" json:"twitter_verified"`

	OnboardingCompleted bool   `gorm:"default:false" json:"onboarding_completed"`
	OnboardingStep      int    `gorm:"default:1" json:"onboarding_step"`
	Status              string `gorm:"default:'ACTIVE'" json:"status"`

	Points         int64 `gorm:"not null;default:0" json:"points"`
	WinwinBalance  int64 `gorm:"not null;default:0" json:"winwin_balance"`
	GoodwillPoints int64 `gorm:"not null;default:0" json:"goodwill_points"`
	CollabPoints   int64 `gorm:"not null;default:0" json:"collab_points"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName joins first and last name when both are set.
func (u *User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return strings.TrimSpace(u.Name)
}

// HasEssentialProfile reports whether the fields required to finish onboarding are present.
func (u *User) HasEssentialProfile() bool {
	return u.FirstName != "" && u.LastName != "" && u.PrimaryCity != "" && len(u.Roles) > 0
}
