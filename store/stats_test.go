package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mooosty/bckndmaster/models"
	"github.com/mooosty/bckndmaster/store"
	"github.com/mooosty/bckndmaster/store/storetest"
)

func TestReferralStats_ReplaceUpserts(t *testing.T) {
	stats := store.NewReferralStats(storetest.NewDB(t))
	ctx := context.Background()
	id := uuid.NewString()

	_, err := stats.Get(ctx, id)
	require.ErrorIs(t, err, models.ErrNotFound)

	t1 := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, stats.Replace(ctx, []store.ReferrerCount{{ReferrerID: id, Total: 2}}, t1))
	require.NoError(t, stats.Replace(ctx, []store.ReferrerCount{{ReferrerID: id, Total: 5}}, t1.Add(time.Minute)))

	got, err := stats.Get(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.DirectReferrals)
	require.True(t, got.RefreshedAt.Equal(t1.Add(time.Minute)))

	require.NoError(t, stats.Replace(ctx, nil, time.Now()))
}
