package referral

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/models"
)

// Request is the input of one attribution attempt.
type Request struct {
	NewUserEmail string
	Token        string
}

// Processor is the single entry point used at registration and at onboarding
// completion, so both produce the same attribution for the same input.
type Processor struct {
	users    UserStore
	resolver *Resolver
	ledger   *Ledger
	logger   *zap.Logger
}

func NewProcessor(users UserStore, invites InviteStore, policy Policy, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("referral")
	return &Processor{
		users:    users,
		resolver: NewResolver(users, logger),
		ledger:   NewLedger(users, invites, policy, logger),
		logger:   logger,
	}
}

// Process resolves req.Token and attributes the new user to the referrer found.
// An unknown or empty token is a StatusNotFound outcome, not an error.
func (p *Processor) Process(ctx context.Context, req Request) (Outcome, error) {
	if req.NewUserEmail == "" {
		return Outcome{}, fmt.Errorf("%w: new user email is required", ErrInvalidInput)
	}

	referrer, err := p.resolver.Resolve(ctx, req.Token)
	if errors.Is(err, ErrReferrerNotFound) {
		p.logger.Info("referrer not found", zap.String("token", req.Token))
		return Outcome{Status: StatusNotFound}, nil
	}
	if err != nil {
		p.logger.Error("resolve referrer failed", zap.String("token", req.Token), zap.Error(err))
		return Outcome{}, err
	}

	newUser, err := p.users.FindByEmail(ctx, req.NewUserEmail)
	if errors.Is(err, models.ErrNotFound) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUserNotFound, req.NewUserEmail)
	}
	if err != nil {
		p.logger.Error("load new user failed", zap.String("email", req.NewUserEmail), zap.Error(err))
		return Outcome{}, fmt.Errorf("load new user: %w", err)
	}

	out, err := p.ledger.Attribute(ctx, newUser, referrer)
	if err != nil {
		p.logger.Error("attribute referral failed",
			zap.String("referrer_id", referrer.ID), zap.String("referred_id", newUser.ID), zap.Error(err))
		return Outcome{}, err
	}
	p.logger.Info("referral processed",
		zap.String("status", out.Status.String()),
		zap.String("referrer_id", referrer.ID),
		zap.String("referred_id", newUser.ID),
		zap.Int("levels_credited", len(out.Credited)))
	return out, nil
}
