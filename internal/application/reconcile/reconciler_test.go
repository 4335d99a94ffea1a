package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	reconcilemocks "github.com/dealhub/dealhub/internal/application/reconcile/mocks"
	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/domain/dealrequest/mocks"
)

type harness struct {
	deals      *mocks.MockDealRepository
	engine     *reconcilemocks.MockTransitioner
	propagator *reconcilemocks.MockPropagator
	groups     *mocks.MockGroupRegistry
	pending    *mocks.MockPendingCache
	search     *mocks.MockSearchIndex
	dispatcher *mocks.MockDispatcher
	reconciler *Reconciler
	deal       *dealrequest.Deal
	groupID    uuid.UUID
	requester  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	ctrl := gomock.NewController(t)
	h := &harness{
		deals:      mocks.NewMockDealRepository(ctrl),
		engine:     reconcilemocks.NewMockTransitioner(ctrl),
		propagator: reconcilemocks.NewMockPropagator(ctrl),
		groups:     mocks.NewMockGroupRegistry(ctrl),
		pending:    mocks.NewMockPendingCache(ctrl),
		search:     mocks.NewMockSearchIndex(ctrl),
		dispatcher: mocks.NewMockDispatcher(ctrl),
		groupID:    uuid.New(),
		requester:  uuid.New(),
	}
	h.deal = &dealrequest.Deal{ID: uuid.New(), PublisherAccountID: uuid.New(), DealGroupID: &h.groupID}
	h.reconciler = NewReconciler(h.deals, h.engine, h.propagator, h.groups, h.pending, h.search, h.dispatcher, zerolog.Nop())
	return h
}

func (h *harness) update(from, to dealrequest.Status) *dealrequest.RequestUpdated {
	return &dealrequest.RequestUpdated{
		StatusUpdated: dealrequest.StatusUpdated{
			DealID:             h.deal.ID,
			PublisherAccountID: h.requester,
			FromStatus:         from,
			ToStatus:           to,
			OccurredOn:         time.Date(2026, 7, 9, 8, 30, 0, 0, time.UTC),
			UpdatedBy:          h.requester,
		},
		Request: &dealrequest.DealRequest{
			DealID:                 h.deal.ID,
			PublisherAccountID:     h.requester,
			Status:                 to,
			DealPublisherAccountID: h.deal.PublisherAccountID,
		},
	}
}

func (h *harness) expectInvalidate(ev *dealrequest.RequestUpdated) {
	id := ev.Key().CompositeID()
	h.dispatcher.EXPECT().
		Publish(gomock.Any(), dealrequest.QueueLowPriority, dealrequest.TopicInvalidate, id, dealrequest.Invalidate{CompositeID: id}).
		Return(nil)
}

func TestHandleRequestUpdated(t *testing.T) {
	ctx := context.Background()

	t.Run("new request claims group slot", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusUnknown, dealrequest.StatusRequested)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().Active(gomock.Any(), h.groupID, h.requester).Return(uuid.Nil, false, nil)
		h.groups.EXPECT().SetActive(gomock.Any(), h.groupID, h.requester, h.deal.ID).Return(nil)
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), &ev.StatusUpdated, false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("held group slot is left alone", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusRequested, dealrequest.StatusInProgress)
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().Active(gomock.Any(), h.groupID, h.requester).Return(h.deal.ID, true, nil)
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("redeemed releases group slot", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusInProgress, dealrequest.StatusRedeemed)
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().ClearActive(gomock.Any(), h.groupID, h.requester).Return(nil)
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("completion recomputes stats for both parties", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusRedeemed, dealrequest.StatusCompleted)
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().ClearActive(gomock.Any(), h.groupID, h.requester).Return(nil)
		for _, account := range []uuid.UUID{h.requester, h.deal.PublisherAccountID} {
			h.dispatcher.EXPECT().
				Publish(gomock.Any(), dealrequest.QueueLowPriority, dealrequest.TopicStatsRecompute, account.String(),
					dealrequest.StatsRecompute{AccountID: account}).
				Return(nil)
		}
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("leaving invited flags organic request", func(t *testing.T) {
		h := newHarness(t)
		h.deal.DealGroupID = nil
		ev := h.update(dealrequest.StatusInvited, dealrequest.StatusRequested)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.search.EXPECT().AppendRequestedBy(gomock.Any(), h.deal.ID, h.requester).Return(nil)
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("deleted request not cancelled is repaired silently", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusRequested, dealrequest.StatusInProgress)
		ev.Request.Deleted = true
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().ClearActive(gomock.Any(), h.groupID, h.requester).Return(nil)
		h.engine.EXPECT().RequestTransition(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error) {
				assert.Equal(t, dealrequest.StatusCancelled, cmd.To)
				assert.True(t, cmd.Silent)
				assert.True(t, cmd.MarkDeleted)
				require.NotNil(t, cmd.ExpectedFrom)
				assert.Equal(t, dealrequest.StatusInProgress, *cmd.ExpectedFrom)
				return dealrequest.Outcome{Kind: dealrequest.OutcomeCommitted}, nil
			})
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("marker-only update skips propagation", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusCancelled, dealrequest.StatusCancelled)
		ev.Request.Deleted = true
		ev.Silent = true
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().ClearActive(gomock.Any(), h.groupID, h.requester).Return(nil)
		h.expectInvalidate(ev)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})

	t.Run("restore out of cancelled re-claims slot", func(t *testing.T) {
		h := newHarness(t)
		ev := h.update(dealrequest.StatusCancelled, dealrequest.StatusInProgress)
		h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
		h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
		h.groups.EXPECT().Active(gomock.Any(), h.groupID, h.requester).Return(uuid.Nil, false, nil)
		h.groups.EXPECT().SetActive(gomock.Any(), h.groupID, h.requester, h.deal.ID).Return(nil)
		h.expectInvalidate(ev)
		h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

		require.NoError(t, h.reconciler.HandleRequestUpdated(ctx, ev))
	})
}

func TestHandleRequestUpdated_RepairFailuresDoNotBlockPropagation(t *testing.T) {
	h := newHarness(t)
	ev := h.update(dealrequest.StatusInProgress, dealrequest.StatusRedeemed)
	h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(assert.AnError)
	h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(nil, assert.AnError)
	h.dispatcher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(assert.AnError)
	h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(nil)

	assert.NoError(t, h.reconciler.HandleRequestUpdated(context.Background(), ev))
}

func TestHandleRequestUpdated_PropagatorErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.deal.DealGroupID = nil
	ev := h.update(dealrequest.StatusRequested, dealrequest.StatusDenied)
	h.pending.EXPECT().InvalidateRecentPending(gomock.Any(), h.deal.ID).Return(nil)
	h.deals.EXPECT().GetByID(gomock.Any(), h.deal.ID).Return(h.deal, nil)
	h.expectInvalidate(ev)
	h.propagator.EXPECT().HandleStatusUpdated(gomock.Any(), gomock.Any(), false).Return(dealrequest.ErrUnhandledStatus)

	err := h.reconciler.HandleRequestUpdated(context.Background(), ev)
	assert.ErrorIs(t, err, dealrequest.ErrUnhandledStatus)
}

func TestHandleRequestUpdated_MissingRequestIsPermanent(t *testing.T) {
	h := newHarness(t)
	ev := h.update(dealrequest.StatusRequested, dealrequest.StatusDenied)
	ev.Request = nil

	err := h.reconciler.HandleRequestUpdated(context.Background(), ev)
	assert.ErrorIs(t, err, dealrequest.ErrPermanent)
}
