package referral

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/models"
)

// Ledger records referral edges and credits the ancestors of a new member.
type Ledger struct {
	users   UserStore
	invites InviteStore
	policy  Policy
	logger  *zap.Logger
}

func NewLedger(users UserStore, invites InviteStore, policy Policy, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{users: users, invites: invites, policy: policy, logger: logger.Named("ledger")}
}

// Attribute records that referrer referred newUser and credits up to MaxDepth
// ancestors. A nil referrer is a no-op. Errors are only returned when nothing has
// been written yet; once the edge exists, later failures end up in Outcome.Halted.
func (l *Ledger) Attribute(ctx context.Context, newUser, referrer *models.User) (Outcome, error) {
	if referrer == nil {
		return Outcome{Status: StatusNotFound}, nil
	}
	if newUser == nil || newUser.ID == "" {
		return Outcome{}, ErrInvalidInput
	}
	out := Outcome{ReferrerID: referrer.ID}

	if referrer.ID == newUser.ID {
		l.logger.Info("self referral ignored", zap.String("user_id", newUser.ID))
		out.Status = StatusRejected
		return out, nil
	}
	cyclic, err := l.isAncestor(ctx, referrer.ID, newUser.ID)
	if err != nil {
		return Outcome{}, err
	}
	if cyclic {
		l.logger.Info("cycle forming referral ignored",
			zap.String("referrer_id", referrer.ID), zap.String("referred_id", newUser.ID))
		out.Status = StatusRejected
		return out, nil
	}

	created, err := l.invites.CreateIfAbsent(ctx, referrer.ID, newUser.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("record invite: %w", err)
	}
	if !created {
		l.logger.Info("referral already processed",
			zap.String("referrer_id", referrer.ID), zap.String("referred_id", newUser.ID))
		out.Status = StatusDuplicate
		return out, nil
	}
	out.Status = StatusAttributed
	l.logger.Info("invite recorded", zap.String("referrer_id", referrer.ID), zap.String("referred_id", newUser.ID))

	l.propagate(ctx, referrer.ID, &out)
	return out, nil
}

func (l *Ledger) propagate(ctx context.Context, referrerID string, out *Outcome) {
	ancestor := referrerID
	for level := 1; level <= MaxDepth; level++ {
		if level > 1 {
			next, err := l.invites.FindReferrerOf(ctx, ancestor)
			if errors.Is(err, models.ErrNotFound) {
				return
			}
			if err != nil {
				l.halt(out, level, fmt.Errorf("find level %d referrer: %w", level, err))
				return
			}
			ancestor = next
		}

		tier := l.policy[level-1]
		err := l.users.IncrementRewards(ctx, ancestor, tier.Points, tier.Winwin)
		if errors.Is(err, models.ErrNotFound) {
			l.logger.Warn("ancestor missing, level skipped", zap.Int("level", level), zap.String("user_id", ancestor))
			out.Skipped = append(out.Skipped, level)
			continue
		}
		if err != nil {
			l.halt(out, level, fmt.Errorf("credit level %d referrer: %w", level, err))
			return
		}
		out.Credited = append(out.Credited, Credit{Level: level, UserID: ancestor, Points: tier.Points, Winwin: tier.Winwin})
		l.logger.Info("referral reward credited",
			zap.Int("level", level), zap.String("user_id", ancestor),
			zap.Int64("points", tier.Points), zap.Int64("winwin", tier.Winwin))
	}
}

func (l *Ledger) halt(out *Outcome, level int, err error) {
	out.Halted = err
	l.logger.Error("reward propagation halted", zap.Int("level", level), zap.Error(err))
}

// isAncestor reports whether target appears within MaxDepth hops above start.
func (l *Ledger) isAncestor(ctx context.Context, start, target string) (bool, error) {
	current := start
	for i := 0; i < MaxDepth; i++ {
		next, err := l.invites.FindReferrerOf(ctx, current)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("walk referral chain: %w", err)
		}
		if next == target {
			return true, nil
		}
		current = next
	}
	return false, nil
}
