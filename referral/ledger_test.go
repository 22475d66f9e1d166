package referral_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mooosty/bckndmaster/models"
	"github.com/mooosty/bckndmaster/referral"
)

func newLedger(store *memStore) *referral.Ledger {
	return referral.NewLedger(store, store, referral.DefaultPolicy(), zap.NewNop())
}

func requireBalance(t *testing.T, store *memStore, u *models.User, want int64) {
	t.Helper()
	points, winwin := store.balance(u.ID)
	require.Equal(t, want, points, "points of %s", u.Email)
	require.Equal(t, want, winwin, "winwin of %s", u.Email)
}

func TestAttribute_RewardAmounts(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com", "c@example.com")
	a, b, c := users[0], users[1], users[2]
	bystander := store.addUser(t, "x@example.com", "")
	d := store.addUser(t, "d@example.com", "")

	out, err := newLedger(store).Attribute(context.Background(), d, c)
	require.NoError(t, err)
	require.Equal(t, referral.StatusAttributed, out.Status)
	require.NoError(t, out.Halted)
	require.Len(t, out.Credited, 3)

	requireBalance(t, store, c, 100)
	requireBalance(t, store, b, 20)
	requireBalance(t, store, a, 10)
	requireBalance(t, store, d, 0)
	requireBalance(t, store, bystander, 0)

	assert.Equal(t, []referral.Credit{
		{Level: 1, UserID: c.ID, Points: 100, Winwin: 100},
		{Level: 2, UserID: b.ID, Points: 20, Winwin: 20},
		{Level: 3, UserID: a.ID, Points: 10, Winwin: 10},
	}, out.Credited)
}

func TestAttribute_DepthCap(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com", "c@example.com", "d@example.com")
	a, b, c, d := users[0], users[1], users[2], users[3]
	e := store.addUser(t, "e@example.com", "")

	out, err := newLedger(store).Attribute(context.Background(), e, d)
	require.NoError(t, err)
	require.Len(t, out.Credited, 3)

	requireBalance(t, store, d, 100)
	requireBalance(t, store, c, 20)
	requireBalance(t, store, b, 10)
	requireBalance(t, store, a, 0)
}

func TestAttribute_Idempotent(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com")
	a, b := users[0], users[1]
	c := store.addUser(t, "c@example.com", "")
	ledger := newLedger(store)

	first, err := ledger.Attribute(context.Background(), c, b)
	require.NoError(t, err)
	require.Equal(t, referral.StatusAttributed, first.Status)

	second, err := ledger.Attribute(context.Background(), c, b)
	require.NoError(t, err)
	require.Equal(t, referral.StatusDuplicate, second.Status)
	require.Empty(t, second.Credited)

	require.Equal(t, 2, store.inviteCount())
	requireBalance(t, store, b, 100)
	requireBalance(t, store, a, 20)
}

func TestAttribute_NilReferrerIsNoop(t *testing.T) {
	store := newMemStore()
	u := store.addUser(t, "u@example.com", "")

	out, err := newLedger(store).Attribute(context.Background(), u, nil)
	require.NoError(t, err)
	require.Equal(t, referral.StatusNotFound, out.Status)
	require.Zero(t, store.inviteCount())
}

func TestAttribute_MissingNewUser(t *testing.T) {
	store := newMemStore()
	r := store.addUser(t, "r@example.com", "")

	_, err := newLedger(store).Attribute(context.Background(), &models.User{}, r)
	require.ErrorIs(t, err, referral.ErrInvalidInput)
	require.Zero(t, store.inviteCount())
}

func TestAttribute_MissingAncestorSkipped(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com", "c@example.com")
	a, b, c := users[0], users[1], users[2]
	d := store.addUser(t, "d@example.com", "")
	store.deleteUser(b)

	out, err := newLedger(store).Attribute(context.Background(), d, c)
	require.NoError(t, err)
	require.Equal(t, referral.StatusAttributed, out.Status)
	require.Equal(t, []int{2}, out.Skipped)
	require.NoError(t, out.Halted)

	requireBalance(t, store, c, 100)
	// The edge above the deleted user is still followed.
	requireBalance(t, store, a, 10)
}

func TestAttribute_MissingDirectReferrerStillRecordsEdge(t *testing.T) {
	store := newMemStore()
	r := store.addUser(t, "r@example.com", "")
	n := store.addUser(t, "n@example.com", "")
	ghost := *r
	store.deleteUser(r)

	out, err := newLedger(store).Attribute(context.Background(), n, &ghost)
	require.NoError(t, err)
	require.Equal(t, referral.StatusAttributed, out.Status)
	require.Equal(t, []int{1}, out.Skipped)
	require.Equal(t, 1, store.inviteCount())
}

func TestAttribute_SelfReferralRejected(t *testing.T) {
	store := newMemStore()
	u := store.addUser(t, "u@example.com", "")

	out, err := newLedger(store).Attribute(context.Background(), u, u)
	require.NoError(t, err)
	require.Equal(t, referral.StatusRejected, out.Status)
	require.Zero(t, store.inviteCount())
	requireBalance(t, store, u, 0)
}

func TestAttribute_CycleRejected(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com", "c@example.com")
	a, c := users[0], users[2]

	// a is an ancestor of c, so c referring a would close a loop.
	out, err := newLedger(store).Attribute(context.Background(), a, c)
	require.NoError(t, err)
	require.Equal(t, referral.StatusRejected, out.Status)
	require.Equal(t, 2, store.inviteCount())
	requireBalance(t, store, c, 0)
}

func TestAttribute_FailureBeforeEdge(t *testing.T) {
	store := newMemStore()
	r := store.addUser(t, "r@example.com", "")
	n := store.addUser(t, "n@example.com", "")
	store.createErr = errors.New("connection reset")

	_, err := newLedger(store).Attribute(context.Background(), n, r)
	require.Error(t, err)
	require.Zero(t, store.inviteCount())
	requireBalance(t, store, r, 0)
}

func TestAttribute_FailureAfterEdgeHaltsButSucceeds(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com", "c@example.com")
	a, b, c := users[0], users[1], users[2]
	d := store.addUser(t, "d@example.com", "")
	store.incrementErr[b.ID] = errors.New("timeout")

	out, err := newLedger(store).Attribute(context.Background(), d, c)
	require.NoError(t, err)
	require.Equal(t, referral.StatusAttributed, out.Status)
	require.Error(t, out.Halted)

	requireBalance(t, store, c, 100)
	requireBalance(t, store, b, 0)
	requireBalance(t, store, a, 0)
}

func TestAttribute_ChainLookupFailureWritesNothing(t *testing.T) {
	store := newMemStore()
	users := store.chain(t, "a@example.com", "b@example.com")
	b := users[1]
	c := store.addUser(t, "c@example.com", "")
	store.referrerErr[b.ID] = errors.New("broken pipe")

	_, err := newLedger(store).Attribute(context.Background(), c, b)
	require.Error(t, err)
	require.Equal(t, 1, store.inviteCount())
	requireBalance(t, store, b, 0)
}

func TestDefaultPolicy(t *testing.T) {
	p := referral.DefaultPolicy()
	require.Equal(t, referral.Tier{Points: 100, Winwin: 100}, p[0])
	require.Equal(t, referral.Tier{Points: 20, Winwin: 20}, p[1])
	require.Equal(t, referral.Tier{Points: 10, Winwin: 10}, p[2])
}
