package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/models"
)

// Probe is one interpretation of a referral token.
type Probe struct {
	Name   string
	Match  func(token string) bool
	Lookup func(ctx context.Context, users UserStore, token string) (*models.User, error)
}

// DefaultProbes returns the probes in priority order: primary key, external id
// (UUID-shaped), wallet address, email. Wallet addresses and external ids live in
// the same column, so the second and third probes query the same field.
func DefaultProbes() []Probe {
	byDynamicID := func(ctx context.Context, users UserStore, token string) (*models.User, error) {
		return users.FindByDynamicID(ctx, token)
	}
	return []Probe{
		{
			Name: "primary_key",
			Match: func(token string) bool {
				_, err := uuid.Parse(token)
				return err == nil
			},
			Lookup: func(ctx context.Context, users UserStore, token string) (*models.User, error) {
				id, err := uuid.Parse(token)
				if err != nil {
					return nil, models.ErrNotFound
				}
				return users.FindByID(ctx, id.String())
			},
		},
		{
			Name:   "external_id",
			Match:  func(token string) bool { return strings.Contains(token, "-") },
			Lookup: byDynamicID,
		},
		{
			Name:   "wallet_address",
			Match:  func(token string) bool { return strings.HasPrefix(token, "0x") },
			Lookup: byDynamicID,
		},
		{
			Name:  "email",
			Match: func(token string) bool { return strings.Contains(token, "@") },
			Lookup: func(ctx context.Context, users UserStore, token string) (*models.User, error) {
				return users.FindByEmail(ctx, token)
			},
		},
	}
}

// Resolver maps a referral token of unknown shape to an existing user.
type Resolver struct {
	users  UserStore
	probes []Probe
	logger *zap.Logger
}

func NewResolver(users UserStore, logger *zap.Logger) *Resolver {
	return NewResolverWithProbes(users, DefaultProbes(), logger)
}

func NewResolverWithProbes(users UserStore, probes []Probe, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{users: users, probes: probes, logger: logger.Named("resolver")}
}

// Resolve tries each matching probe in order and returns the first user found.
// A token that no probe can match yields ErrReferrerNotFound; only storage
// failures are returned as other errors.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrReferrerNotFound
	}
	for _, p := range r.probes {
		if !p.Match(token) {
			continue
		}
		user, err := p.Lookup(ctx, r.users, token)
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Debug("probe missed", zap.String("probe", p.Name), zap.String("token", token))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve referrer by %s: %w", p.Name, err)
		}
		r.logger.Debug("probe matched", zap.String("probe", p.Name), zap.String("user_id", user.ID))
		return user, nil
	}
	return nil, ErrReferrerNotFound
}
