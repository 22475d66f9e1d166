// Package store holds the gorm-backed implementations of the user, invite and
// referral stats stores.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mooosty/bckndmaster/models"
)

// Open connects to Postgres. The returned handle is shared by every store and
// lives for the whole process.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables, including the unique index on the
// (referrer, referred) pair of invites.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Invite{},
		&models.ReferralStats{},
		&models.ReferralClicks{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
