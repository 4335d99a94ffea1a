package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

func TestCacheApplyDeltaOncePerSortKey(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	dealID, actor := uuid.New(), uuid.New()
	at := time.Now().UTC()

	delta := dealrequest.StatusCountDelta{
		DealID:     dealID,
		SortKey:    dealrequest.LogSortKey(dealrequest.StatusRequested, actor, at),
		FromStatus: dealrequest.StatusUnknown,
		ToStatus:   dealrequest.StatusRequested,
	}
	require.NoError(t, c.ApplyDelta(ctx, delta))
	require.NoError(t, c.ApplyDelta(ctx, delta))
	assert.Equal(t, int64(1), c.Counts(dealID)[dealrequest.StatusRequested])

	// a second request reaching the same status with its own key still counts
	other := delta
	other.SortKey = dealrequest.LogSortKey(dealrequest.StatusRequested, uuid.New(), at)
	require.NoError(t, c.ApplyDelta(ctx, other))
	assert.Equal(t, int64(2), c.Counts(dealID)[dealrequest.StatusRequested])
}

func TestCacheApplyDeltaWithoutSortKeyAlwaysApplies(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	dealID := uuid.New()
	delta := dealrequest.StatusCountDelta{DealID: dealID, FromStatus: dealrequest.StatusRequested, ToStatus: dealrequest.StatusDenied}

	require.NoError(t, c.ApplyDelta(ctx, delta))
	require.NoError(t, c.ApplyDelta(ctx, delta))
	counts := c.Counts(dealID)
	assert.Equal(t, int64(-2), counts[dealrequest.StatusRequested])
	assert.Equal(t, int64(2), counts[dealrequest.StatusDenied])
}
