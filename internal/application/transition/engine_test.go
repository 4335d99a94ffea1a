package transition

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/domain/dealrequest/mocks"
	"github.com/dealhub/dealhub/internal/infrastructure/memory"
	"github.com/dealhub/dealhub/internal/infrastructure/queue"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// tickingClock returns start and advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur := now
		now = now.Add(time.Second)
		return cur
	}
}

type fixture struct {
	store      *memory.Store
	deals      *memory.Deals
	groups     *memory.Groups
	dispatcher *queue.Memory
	engine     *Engine
	deal       *dealrequest.Deal
	owner      uuid.UUID
	creator    uuid.UUID
	key        dealrequest.Key
}

func newFixture(t *testing.T, autoApprove bool, opts ...Option) *fixture {
	t.Helper()
	groupID := uuid.New()
	f := &fixture{
		store:      memory.NewStore(),
		groups:     memory.NewGroups(),
		dispatcher: queue.NewMemory(),
		owner:      uuid.New(),
		creator:    uuid.New(),
	}
	f.deal = &dealrequest.Deal{
		ID:                  uuid.New(),
		Title:               "Spring tasting menu",
		WorkspaceID:         uuid.New(),
		PublisherAccountID:  f.owner,
		DealGroupID:         &groupID,
		AutoApproveRequests: autoApprove,
		ApprovalNotes:       "Show this message at the front desk.",
	}
	f.deals = memory.NewDeals(f.deal)
	f.key = dealrequest.Key{DealID: f.deal.ID, PublisherAccountID: f.creator}
	opts = append([]Option{WithClock(tickingClock(t0))}, opts...)
	f.engine = NewEngine(f.store, f.deals, f.dispatcher, f.groups, zerolog.Nop(), opts...)
	return f
}

func (f *fixture) transition(t *testing.T, to dealrequest.Status, by uuid.UUID) dealrequest.Outcome {
	t.Helper()
	hours := 48
	out, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
		Key:                    f.key,
		To:                     to,
		UpdatedBy:              by,
		HoursAllowedInProgress: &hours,
		HoursAllowedRedeemed:   &hours,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) current(t *testing.T) *dealrequest.DealRequest {
	t.Helper()
	req, err := f.store.Get(context.Background(), f.key)
	require.NoError(t, err)
	require.NotNil(t, req)
	return req
}

func publishedTopics(m *queue.Memory) []string {
	var topics []string
	for _, p := range m.History() {
		topics = append(topics, p.Topic)
	}
	return topics
}

func TestShouldApplyInline(t *testing.T) {
	creator := uuid.New()
	owner := uuid.New()
	req := &dealrequest.DealRequest{PublisherAccountID: creator}

	assert.True(t, ShouldApplyInline(creator, req, &dealrequest.Deal{PublisherAccountID: owner}))
	assert.True(t, ShouldApplyInline(owner, req, &dealrequest.Deal{PublisherAccountID: owner, AutoApproveRequests: true}))
	assert.False(t, ShouldApplyInline(owner, req, &dealrequest.Deal{PublisherAccountID: owner}))
	assert.False(t, ShouldApplyInline(owner, req, nil))
}

func TestRequestTransition_Create(t *testing.T) {
	f := newFixture(t, false)

	out := f.transition(t, dealrequest.StatusRequested, f.creator)

	assert.Equal(t, dealrequest.OutcomeCommitted, out.Kind)
	assert.Equal(t, dealrequest.StatusUnknown, out.From)
	assert.Equal(t, dealrequest.StatusRequested, out.To)
	assert.Empty(t, out.FollowUps)

	req := f.current(t)
	assert.Equal(t, dealrequest.StatusRequested, req.Status)
	assert.Equal(t, t0, req.StatusAnchorTimestamp)
	assert.Equal(t, f.owner, req.DealPublisherAccountID)
	assert.Equal(t, f.deal.WorkspaceID, req.DealWorkspaceID)
	assert.Equal(t, 48, req.HoursAllowedInProgress)

	history := f.dispatcher.History()
	require.Len(t, history, 1)
	assert.Equal(t, dealrequest.QueuePrimary, history[0].Queue)
	assert.Equal(t, dealrequest.TopicRequestUpdated, history[0].Topic)
	assert.Equal(t, f.key.CompositeID(), history[0].Key)

	var ev dealrequest.RequestUpdated
	require.NoError(t, json.Unmarshal(history[0].Payload, &ev))
	assert.Equal(t, dealrequest.StatusUnknown, ev.FromStatus)
	assert.Equal(t, dealrequest.StatusRequested, ev.ToStatus)
	assert.Equal(t, f.creator, ev.UpdatedBy)
}

func TestRequestTransition_AutoApproveChain(t *testing.T) {
	f := newFixture(t, true)

	out := f.transition(t, dealrequest.StatusRequested, f.creator)

	require.True(t, out.Committed())
	require.Len(t, out.FollowUps, 2)
	assert.Equal(t, dealrequest.StatusRequested, out.FollowUps[0].From)
	assert.Equal(t, dealrequest.StatusInProgress, out.FollowUps[0].To)
	assert.Equal(t, dealrequest.StatusInProgress, out.FollowUps[1].From)
	assert.Equal(t, dealrequest.StatusRedeemed, out.FollowUps[1].To)
	assert.Equal(t, dealrequest.StatusRedeemed, out.Final().To)

	req := f.current(t)
	assert.Equal(t, dealrequest.StatusRedeemed, req.Status)
	assert.Equal(t, t0.Add(2*time.Second), req.StatusAnchorTimestamp)

	var updates []dealrequest.RequestUpdated
	for _, p := range f.dispatcher.History() {
		require.Equal(t, dealrequest.TopicRequestUpdated, p.Topic)
		var ev dealrequest.RequestUpdated
		require.NoError(t, json.Unmarshal(p.Payload, &ev))
		updates = append(updates, ev)
	}
	require.Len(t, updates, 3)
	assert.Equal(t, f.creator, updates[0].UpdatedBy)
	assert.Equal(t, f.owner, updates[1].UpdatedBy)
	assert.Equal(t, f.deal.ApprovalNotes, updates[1].Reason)
	assert.Equal(t, f.creator, updates[2].UpdatedBy)
	assert.Equal(t, reasonAutoRedeem, updates[2].Reason)
}

func TestRequestTransition_OwnerApprovalDefersRedeem(t *testing.T) {
	f := newFixture(t, false)
	f.transition(t, dealrequest.StatusRequested, f.creator)

	out := f.transition(t, dealrequest.StatusInProgress, f.owner)

	assert.True(t, out.Committed())
	assert.Empty(t, out.FollowUps)
	assert.Equal(t, dealrequest.StatusInProgress, f.current(t).Status)

	history := f.dispatcher.History()
	last := history[len(history)-1]
	assert.Equal(t, dealrequest.QueueRequestAffinity, last.Queue)
	assert.Equal(t, dealrequest.TopicTransition, last.Topic)

	var cmd dealrequest.TransitionCommand
	require.NoError(t, json.Unmarshal(last.Payload, &cmd))
	assert.Equal(t, dealrequest.StatusRedeemed, cmd.To)
	assert.Equal(t, f.creator, cmd.UpdatedBy)
	require.NotNil(t, cmd.ExpectedFrom)
	assert.Equal(t, dealrequest.StatusInProgress, *cmd.ExpectedFrom)

	// Replaying the deferred command finishes the chain.
	replayed, err := f.engine.RequestTransition(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, replayed.Committed())
	assert.Equal(t, dealrequest.StatusRedeemed, f.current(t).Status)
}

func TestRequestTransition_Rejections(t *testing.T) {
	t.Run("illegal edge", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)

		_, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
			Key: f.key, To: dealrequest.StatusCompleted, UpdatedBy: f.owner,
		})
		assert.ErrorIs(t, err, dealrequest.ErrInvalidTransition)
		assert.Equal(t, dealrequest.StatusRequested, f.current(t).Status)
	})

	t.Run("same status is not applicable", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)

		out, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
			Key: f.key, To: dealrequest.StatusRequested, UpdatedBy: f.creator,
		})
		require.NoError(t, err)
		assert.Equal(t, dealrequest.OutcomeNotApplicable, out.Kind)
		assert.Len(t, f.dispatcher.History(), 1)
	})

	t.Run("expected status guard", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)
		f.transition(t, dealrequest.StatusDenied, f.owner)

		expected := dealrequest.StatusRequested
		out, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
			Key: f.key, To: dealrequest.StatusInProgress, UpdatedBy: f.owner, ExpectedFrom: &expected,
		})
		require.NoError(t, err)
		assert.Equal(t, dealrequest.OutcomeNotApplicable, out.Kind)
		assert.Equal(t, dealrequest.StatusDenied, f.current(t).Status)
	})

	t.Run("administrative edge needs flag", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)
		f.transition(t, dealrequest.StatusCancelled, f.creator)

		_, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
			Key: f.key, To: dealrequest.StatusInProgress, UpdatedBy: f.owner,
		})
		assert.ErrorIs(t, err, dealrequest.ErrInvalidTransition)
	})

	t.Run("unknown deal", func(t *testing.T) {
		f := newFixture(t, false)
		key := dealrequest.Key{DealID: uuid.New(), PublisherAccountID: f.creator}

		_, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
			Key: key, To: dealrequest.StatusRequested, UpdatedBy: f.creator,
		})
		assert.ErrorIs(t, err, dealrequest.ErrDealNotFound)
	})
}

func TestRequestTransition_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	deal := &dealrequest.Deal{ID: uuid.New(), PublisherAccountID: uuid.New()}
	key := dealrequest.Key{DealID: deal.ID, PublisherAccountID: uuid.New()}

	store.EXPECT().Get(gomock.Any(), key).Return(&dealrequest.DealRequest{
		DealID: key.DealID, PublisherAccountID: key.PublisherAccountID, Status: dealrequest.StatusRequested,
	}, nil)
	store.EXPECT().ConditionalUpdate(gomock.Any(), key, dealrequest.StatusRequested, gomock.Any()).
		Return(dealrequest.UpdateResult{Current: dealrequest.StatusCancelled}, nil)

	engine := NewEngine(store, memory.NewDeals(deal), dispatcher, nil, zerolog.Nop())
	out, err := engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
		Key: key, To: dealrequest.StatusDenied, UpdatedBy: deal.PublisherAccountID,
	})

	require.NoError(t, err)
	assert.Equal(t, dealrequest.OutcomeConflict, out.Kind)
	assert.True(t, IsConflict(out, err))
}

func TestRequestTransition_PublishFailureDoesNotFailCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().
		Publish(gomock.Any(), dealrequest.QueuePrimary, dealrequest.TopicRequestUpdated, gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	deal := &dealrequest.Deal{ID: uuid.New(), PublisherAccountID: uuid.New()}
	store := memory.NewStore()
	engine := NewEngine(store, memory.NewDeals(deal), dispatcher, nil, zerolog.Nop())
	key := dealrequest.Key{DealID: deal.ID, PublisherAccountID: uuid.New()}

	out, err := engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
		Key: key, To: dealrequest.StatusRequested, UpdatedBy: key.PublisherAccountID,
	})
	require.NoError(t, err)
	assert.True(t, out.Committed())

	req, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, dealrequest.StatusRequested, req.Status)
}

func TestRequestTransition_ChainBound(t *testing.T) {
	f := newFixture(t, true, WithMaxChain(2))

	out, err := f.engine.RequestTransition(context.Background(), dealrequest.TransitionCommand{
		Key: f.key, To: dealrequest.StatusRequested, UpdatedBy: f.creator,
	})

	assert.ErrorIs(t, err, dealrequest.ErrChainExhausted)
	assert.True(t, out.Committed())
	require.Len(t, out.FollowUps, 1)
	assert.Equal(t, dealrequest.StatusInProgress, f.current(t).Status)
}

func TestDeleteRequest(t *testing.T) {
	t.Run("active request is cancelled and marked deleted", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)

		out, err := f.engine.DeleteRequest(context.Background(), f.key, f.creator)
		require.NoError(t, err)
		assert.True(t, out.Committed())

		req := f.current(t)
		assert.Equal(t, dealrequest.StatusCancelled, req.Status)
		assert.True(t, req.Deleted)
		assert.Equal(t, []string{dealrequest.TopicRequestUpdated, dealrequest.TopicRequestUpdated}, publishedTopics(f.dispatcher))
	})

	t.Run("cancelled request only gets the marker", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)
		f.transition(t, dealrequest.StatusCancelled, f.creator)
		anchor := f.current(t).StatusAnchorTimestamp

		out, err := f.engine.DeleteRequest(context.Background(), f.key, f.creator)
		require.NoError(t, err)
		assert.Equal(t, dealrequest.StatusCancelled, out.From)
		assert.Equal(t, dealrequest.StatusCancelled, out.To)

		req := f.current(t)
		assert.True(t, req.Deleted)
		assert.Equal(t, anchor, req.StatusAnchorTimestamp)

		history := f.dispatcher.History()
		var ev dealrequest.RequestUpdated
		require.NoError(t, json.Unmarshal(history[len(history)-1].Payload, &ev))
		assert.True(t, ev.Silent)
		assert.False(t, ev.Changed())
	})

	t.Run("deleted request is not applicable", func(t *testing.T) {
		f := newFixture(t, false)
		f.transition(t, dealrequest.StatusRequested, f.creator)
		_, err := f.engine.DeleteRequest(context.Background(), f.key, f.creator)
		require.NoError(t, err)

		out, err := f.engine.DeleteRequest(context.Background(), f.key, f.creator)
		require.NoError(t, err)
		assert.Equal(t, dealrequest.OutcomeNotApplicable, out.Kind)
	})

	t.Run("missing request", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.engine.DeleteRequest(context.Background(), f.key, f.creator)
		assert.ErrorIs(t, err, dealrequest.ErrNotFound)
	})
}
