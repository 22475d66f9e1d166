// services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mooosty/bckndmaster/models"
	"github.com/mooosty/bckndmaster/referral"
	"github.com/mooosty/bckndmaster/store"
	"github.com/mooosty/bckndmaster/utils"
)

// The input and lookup sentinels are shared with the referral package so that
// errors.Is matches whichever layer produced them.
var (
	ErrInvalidInput   = referral.ErrInvalidInput
	ErrUserNotFound   = referral.ErrUserNotFound
	ErrNotOnboarded   = errors.New("onboarding not completed")
	ErrAvatarDisabled = errors.New("avatar uploads are not configured")
	ErrAccountDeleted = errors.New("account deleted")
	ErrReferralFailed = errors.New("failed to process referral")
)

const recentReferralsLimit = 10

// AvatarStore uploads a profile image and returns its public URL.
type AvatarStore interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

type UserService struct {
	users     *store.Users
	invites   *store.Invites
	stats     *store.ReferralStats
	clicks    *store.ReferralClicks
	resolver  *referral.Resolver
	referrals *referral.Processor
	avatars   AvatarStore
	appURL    string
	logger    *zap.Logger
}

// NewUserService wires the stores and the referral processor around db.
// avatars may be nil, in which case avatar uploads report ErrAvatarDisabled.
func NewUserService(db *gorm.DB, avatars AvatarStore, appURL string, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	users := store.NewUsers(db)
	invites := store.NewInvites(db)
	return &UserService{
		users:     users,
		invites:   invites,
		stats:     store.NewReferralStats(db),
		clicks:    store.NewReferralClicks(db),
		resolver:  referral.NewResolver(users, logger.Named("clicks")),
		referrals: referral.NewProcessor(users, invites, referral.DefaultPolicy(), logger),
		avatars:   avatars,
		appURL:    strings.TrimRight(appURL, "/"),
		logger:    logger.Named("users"),
	}
}

type SignupInput struct {
	Email      string `json:"email"`
	ReferralID string `json:"referralId"`
	DynamicID  string `json:"dynamicId"`
}

// Signup creates or refreshes the user for in.Email and, when a referral token
// is present, attributes the signup. Unknown or already used tokens are not
// errors. A storage failure while processing the referral returns the user
// together with an ErrReferralFailed error so the caller can retry; a failure
// after the invite was recorded only halts crediting and is logged.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	u, err := s.users.Register(ctx, in.Email, in.DynamicID)
	if errors.Is(err, models.ErrDeleted) {
		return nil, ErrAccountDeleted
	}
	if err != nil {
		return nil, err
	}
	if u.Username == "" {
		u.Username = Handle(u)
		if err := s.users.SaveProfile(ctx, u); err != nil {
			return nil, err
		}
	}

	if in.ReferralID != "" {
		out, err := s.referrals.Process(ctx, referral.Request{NewUserEmail: u.Email, Token: in.ReferralID})
		if err != nil {
			s.logger.Error("signup referral failed", zap.String("email", u.Email), zap.Error(err))
			return u, fmt.Errorf("%w: %w", ErrReferralFailed, err)
		}
		if out.Halted != nil {
			s.logger.Warn("signup referral propagation halted", zap.String("email", u.Email), zap.Error(out.Halted))
		}
	}
	return u, nil
}

// CompleteSignupReferral replays the referral once the user has finished
// onboarding. The same request can be sent any number of times.
func (s *UserService) CompleteSignupReferral(ctx context.Context, email, token string) (referral.Result, error) {
	if email == "" || token == "" {
		return referral.Result{}, fmt.Errorf("%w: email and referralId are required", ErrInvalidInput)
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return referral.Result{}, err
	}
	if !u.OnboardingCompleted {
		return referral.Result{}, ErrNotOnboarded
	}

	out, err := s.referrals.Process(ctx, referral.Request{NewUserEmail: u.Email, Token: token})
	return referral.NewResult(out, err), err
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.userByEmail(ctx, email)
}

// ProfileInput carries the writable profile fields. Nil fields are left untouched.
type ProfileInput struct {
	FirstName       *string  `json:"firstname"`
	LastName        *string  `json:"lastname"`
	Bio             *string  `json:"bio"`
	ShortBio        *string  `json:"short_bio"`
	PrimaryCity     *string  `json:"primary_city"`
	Roles           []string `json:"roles"`
	TwitterUsername *string  `json:"twitter_username"`
	OnboardingStep  *int     `json:"onboarding_step"`
}

func (in ProfileInput) apply(u *models.User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Bio, in.Bio)
	set(&u.ShortBio, in.ShortBio)
	set(&u.PrimaryCity, in.PrimaryCity)
	set(&u.TwitterUsername, in.TwitterUsername)
	if in.Roles != nil {
		roles := make([]string, 0, len(in.Roles))
		for _, r := range in.Roles {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		u.Roles = roles
	}
	if in.OnboardingStep != nil && *in.OnboardingStep > 0 {
		u.OnboardingStep = *in.OnboardingStep
	}
	if name := u.DisplayName(); name != "" {
		u.Name = name
	}
}

// SaveProfile upserts the profile of email. Onboarding counts as completed
// exactly when the essential profile fields are present.
func (s *UserService) SaveProfile(ctx context.Context, email string, in ProfileInput) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		u, err = s.users.Register(ctx, email, "")
	}
	if errors.Is(err, models.ErrDeleted) {
		return nil, ErrAccountDeleted
	}
	if err != nil {
		return nil, err
	}

	in.apply(u)
	u.OnboardingCompleted = u.HasEssentialProfile()
	if u.Username == "" {
		u.Username = Handle(u)
	}
	if err := s.users.SaveProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CompleteOnboarding applies the final onboarding step and marks it done.
func (s *UserService) CompleteOnboarding(ctx context.Context, email string, in ProfileInput) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	in.apply(u)
	u.OnboardingCompleted = true
	if err := s.users.SaveProfile(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("onboarding completed", zap.String("user_id", u.ID))
	return u, nil
}

// UpdateMe edits the caller's own profile. Identity and counters are not writable.
func (s *UserService) UpdateMe(ctx context.Context, email string, in ProfileInput) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	in.apply(u)
	if err := s.users.SaveProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadAvatar stores the image and points the profile at it.
func (s *UserService) UploadAvatar(ctx context.Context, email string, fileHeader *multipart.FileHeader) (*models.User, error) {
	if s.avatars == nil {
		return nil, ErrAvatarDisabled
	}
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	key, err := utils.AvatarKey(u.ID, fileHeader.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	url, err := s.avatars.Upload(ctx, fileHeader, key)
	if err != nil {
		s.logger.Error("avatar upload failed", zap.String("user_id", u.ID), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	u.ProfileImage = url
	if err := s.users.SaveProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ReferralLink is the share link carrying the user's id as referral token.
func (s *UserService) ReferralLink(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.appURL + "/?referral=" + u.ID, nil
}

type RecentReferral struct {
	ReferredID string    `json:"referredId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ReferralSummary struct {
	TotalReferrals int64            `json:"totalReferrals"`
	PointsEarned   int64            `json:"pointsEarned"`
	WinwinBalance  int64            `json:"winwinBalance"`
	Clicks         int64            `json:"clicks"`
	RefreshedAt    *time.Time       `json:"refreshedAt,omitempty"`
	Recent         []RecentReferral `json:"recent"`
}

// ReferralStats reports the caller's referral numbers. Invites are never
// removed, so the live count wins over a snapshot that has not caught up yet.
func (s *UserService) ReferralStats(ctx context.Context, email string) (*ReferralSummary, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	sum := &ReferralSummary{
		PointsEarned:  u.Points,
		WinwinBalance: u.WinwinBalance,
		Recent:        []RecentReferral{},
	}

	if sum.TotalReferrals, err = s.invites.CountForReferrer(ctx, u.ID); err != nil {
		return nil, err
	}
	snap, err := s.stats.Get(ctx, u.ID)
	switch {
	case err == nil:
		sum.TotalReferrals = max(sum.TotalReferrals, snap.DirectReferrals)
		refreshed := snap.RefreshedAt
		sum.RefreshedAt = &refreshed
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	if sum.Clicks, err = s.clicks.Get(ctx, u.ID); err != nil {
		return nil, err
	}

	recent, err := s.invites.ListByReferrer(ctx, u.ID, recentReferralsLimit)
	if err != nil {
		return nil, err
	}
	for _, inv := range recent {
		sum.Recent = append(sum.Recent, RecentReferral{ReferredID: inv.ReferredID, CreatedAt: inv.CreatedAt})
	}
	return sum, nil
}

// TrackClick counts one opening of a referral link. It reports whether refID
// belonged to a user; an unknown refID is not an error.
func (s *UserService) TrackClick(ctx context.Context, refID string) (bool, error) {
	if strings.TrimSpace(refID) == "" {
		return false, fmt.Errorf("%w: refId is required", ErrInvalidInput)
	}
	u, err := s.resolver.Resolve(ctx, refID)
	if errors.Is(err, referral.ErrReferrerNotFound) {
		s.logger.Info("referral click for unknown referrer", zap.String("ref_id", refID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.clicks.Increment(ctx, u.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Handle builds a username from the display name, or the email local part, plus
// the first characters of the id so that equal names stay distinct.
func Handle(u *models.User) string {
	base := slug.Make(u.DisplayName())
	if base == "" {
		local, _, _ := strings.Cut(u.Email, "@")
		base = slug.Make(local)
	}
	if base == "" {
		base = "member"
	}
	suffix := u.ID
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}
