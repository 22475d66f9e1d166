// Package referral attributes new members to the member who referred them and
// propagates tiered rewards up the referral chain.
//
// The package only depends on the UserStore and InviteStore interfaces, so both
// registration call sites share one implementation and tests run without a database.
package referral

import (
	"context"
	"errors"

	"github.com/mooosty/bckndmaster/models"
)

var (
	// ErrReferrerNotFound means no probe matched the token to an existing user.
	ErrReferrerNotFound = errors.New("referrer not found")
	// ErrInvalidInput is returned when the new user's identity is missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound means the newly registered user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the user lookup capability the resolver and ledger consume.
// Lookups return models.ErrNotFound on a miss.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByDynamicID(ctx context.Context, dynamicID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// IncrementRewards atomically adds to the points and winwin counters.
	// It returns models.ErrNotFound when the user no longer exists.
	IncrementRewards(ctx context.Context, userID string, points, winwin int64) error
}

// InviteStore persists referral edges.
type InviteStore interface {
	// CreateIfAbsent records referrer -> referred unless the pair already exists.
	// created is false when the edge was already there.
	CreateIfAbsent(ctx context.Context, referrerID, referredID string) (created bool, err error)
	// FindReferrerOf returns the id of the user who referred referredID, or
	// models.ErrNotFound.
	FindReferrerOf(ctx context.Context, referredID string) (string, error)
}

// MaxDepth is the number of ancestor levels credited for one referral.
const MaxDepth = 3

// Tier is the reward credited to one ancestor level.
type Tier struct {
	Points int64
	Winwin int64
}

// Policy holds the reward for each level, index 0 being the direct referrer.
type Policy [MaxDepth]Tier

// DefaultPolicy credits 100, 20 and 10 to levels one to three.
func DefaultPolicy() Policy {
	return Policy{
		{Points: 100, Winwin: 100},
		{Points: 20, Winwin: 20},
		{Points: 10, Winwin: 10},
	}
}

// Status is the terminal state of one attribution attempt.
type Status int

const (
	StatusNotFound Status = iota
	StatusDuplicate
	StatusRejected
	StatusAttributed
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusDuplicate:
		return "duplicate"
	case StatusRejected:
		return "rejected"
	case StatusAttributed:
		return "attributed"
	default:
		return "unknown"
	}
}

// Credit is one reward applied to an ancestor.
type Credit struct {
	Level  int    `json:"level"`
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
	Winwin int64  `json:"winwin"`
}

// Outcome describes what an attribution attempt did.
type Outcome struct {
	Status     Status
	ReferrerID string
	Credited   []Credit
	// Skipped lists levels whose ancestor edge exists but whose user is gone.
	Skipped []int
	// Halted is set when a storage error stopped propagation after the edge was recorded.
	Halted error
}

// Result is the response contract shared by both call sites.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewResult folds an outcome into the caller-facing contract. Not-found and
// duplicate outcomes are successes.
func NewResult(out Outcome, err error) Result {
	if err != nil {
		return Result{Success: false, Error: "failed to process referral"}
	}
	switch out.Status {
	case StatusNotFound:
		return Result{Success: true, Message: "Referrer not found"}
	case StatusDuplicate:
		return Result{Success: true, Message: "Referral already processed"}
	case StatusRejected:
		return Result{Success: true, Message: "Referral not applicable"}
	default:
		return Result{Success: true}
	}
}
