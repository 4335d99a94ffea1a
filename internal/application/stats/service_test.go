package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/domain/dealrequest/mocks"
)

func TestRecompute(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	recorder := mocks.NewMockStatsRecorder(ctrl)

	now := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	account := uuid.New()
	svc := NewService(store, recorder, zerolog.Nop())
	svc.now = func() time.Time { return now }

	store.EXPECT().CountCompletedSince(gomock.Any(), account, now.Add(-RecentWindow)).Return(7, nil)
	recorder.EXPECT().StoreRecent(gomock.Any(), dealrequest.RecentStats{
		AccountID: account, CompletedCount: 7, Window: "30d", ComputedAt: now,
	}).Return(nil)

	require.NoError(t, svc.Recompute(context.Background(), account))
}

func TestRecompute_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	recorder := mocks.NewMockStatsRecorder(ctrl)
	svc := NewService(store, recorder, zerolog.Nop())

	store.EXPECT().CountCompletedSince(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, assert.AnError)

	assert.ErrorIs(t, svc.Recompute(context.Background(), uuid.New()), assert.AnError)
}

func TestApplyDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockStatsRecorder(ctrl)
	svc := NewService(mocks.NewMockStore(ctrl), recorder, zerolog.Nop())

	delta := dealrequest.StatusCountDelta{DealID: uuid.New(), FromStatus: dealrequest.StatusRequested, ToStatus: dealrequest.StatusInProgress}
	recorder.EXPECT().ApplyDelta(gomock.Any(), delta).Return(nil)
	require.NoError(t, svc.ApplyDelta(context.Background(), delta))

	// Marker-only writes never move a counter.
	same := dealrequest.StatusCountDelta{DealID: delta.DealID, FromStatus: dealrequest.StatusCancelled, ToStatus: dealrequest.StatusCancelled}
	require.NoError(t, svc.ApplyDelta(context.Background(), same))
}
