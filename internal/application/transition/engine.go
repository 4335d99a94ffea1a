package transition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

const (
	DefaultMaxChain = 4

	reasonAutoRedeem = "auto-redeemed"
	reasonDeleted    = "request deleted"
)

// Engine validates and commits deal request status changes.
type Engine struct {
	store      dealrequest.Store
	deals      dealrequest.DealRepository
	dispatcher dealrequest.Dispatcher
	groups     dealrequest.GroupRegistry
	maxChain   int
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxChain bounds the number of transitions applied by one call.
func WithMaxChain(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChain = n
		}
	}
}

// NewEngine creates a transition engine.
func NewEngine(
	store dealrequest.Store,
	deals dealrequest.DealRepository,
	dispatcher dealrequest.Dispatcher,
	groups dealrequest.GroupRegistry,
	logger zerolog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:      store,
		deals:      deals,
		dispatcher: dispatcher,
		groups:     groups,
		maxChain:   DefaultMaxChain,
		now:        func() time.Time { return time.Now().UTC() },
		metrics:    metrics.Get(),
		logger:     logger.With().Str("service", "transition").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ShouldApplyInline decides whether a follow-up transition runs in-band.
// It does when the acting party is the requester or the deal auto-approves;
// otherwise the follow-up is deferred to the request-affinity queue.
func ShouldApplyInline(actor uuid.UUID, req *dealrequest.DealRequest, deal *dealrequest.Deal) bool {
	if req != nil && actor == req.PublisherAccountID {
		return true
	}
	return deal != nil && deal.AutoApproveRequests
}

// RequestTransition commits cmd and then drains the follow-up transitions it
// triggers. The returned outcome describes cmd; inline follow-ups are listed
// in FollowUps.
func (e *Engine) RequestTransition(ctx context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error) {
	deal, err := e.deals.GetByID(ctx, cmd.Key.DealID)
	if err != nil {
		return dealrequest.Outcome{}, fmt.Errorf("failed to load deal: %w", err)
	}

	var first dealrequest.Outcome
	work := []dealrequest.TransitionCommand{cmd}
	for step := 0; len(work) > 0; step++ {
		if step >= e.maxChain {
			e.logger.Error().
				Str("deal_id", cmd.Key.DealID.String()).
				Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
				Int("max_chain", e.maxChain).
				Msg("follow-up chain exhausted")
			return first, dealrequest.ErrChainExhausted
		}
		next := work[0]
		work = work[1:]

		out, followUps, err := e.apply(ctx, deal, next)
		if err != nil {
			if step == 0 {
				return dealrequest.Outcome{}, err
			}
			return first, fmt.Errorf("follow-up transition to %s: %w", next.To, err)
		}
		if step == 0 {
			first = out
		} else {
			first.FollowUps = append(first.FollowUps, out)
		}
		if !out.Committed() {
			continue
		}

		for _, f := range followUps {
			if ShouldApplyInline(next.UpdatedBy, out.Request, deal) {
				work = append(work, f)
				continue
			}
			e.deferTransition(ctx, f)
		}
	}
	return first, nil
}

func (e *Engine) apply(ctx context.Context, deal *dealrequest.Deal, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, []dealrequest.TransitionCommand, error) {
	current, err := e.store.Get(ctx, cmd.Key)
	if err != nil {
		return dealrequest.Outcome{}, nil, fmt.Errorf("failed to load deal request: %w", err)
	}
	from := dealrequest.StatusUnknown
	if current != nil {
		from = current.Status
	}

	if cmd.To == "" || cmd.To == from {
		return dealrequest.NotApplicable(from), nil, nil
	}
	if cmd.ExpectedFrom != nil && *cmd.ExpectedFrom != from {
		e.logger.Debug().
			Str("deal_id", cmd.Key.DealID.String()).
			Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
			Str("expected", string(*cmd.ExpectedFrom)).
			Str("current", string(from)).
			Str("to", string(cmd.To)).
			Msg("skip transition; request moved on")
		return dealrequest.NotApplicable(from), nil, nil
	}
	if !dealrequest.CanTransition(from, cmd.To, cmd.Administrative) {
		return dealrequest.Outcome{}, nil, fmt.Errorf("%w: %s -> %s", dealrequest.ErrInvalidTransition, from, cmd.To)
	}

	now := e.now()
	var res dealrequest.UpdateResult
	if current == nil {
		if deal == nil {
			return dealrequest.Outcome{}, nil, fmt.Errorf("%w: %s", dealrequest.ErrDealNotFound, cmd.Key.DealID)
		}
		req := newRequest(cmd, deal, now)
		res, err = e.store.Create(ctx, req)
	} else {
		res, err = e.store.ConditionalUpdate(ctx, cmd.Key, from, func(r *dealrequest.DealRequest) error {
			r.Status = cmd.To
			r.StatusAnchorTimestamp = now
			r.UpdatedAt = now
			if cmd.HoursAllowedInProgress != nil {
				r.HoursAllowedInProgress = *cmd.HoursAllowedInProgress
			}
			if cmd.HoursAllowedRedeemed != nil {
				r.HoursAllowedRedeemed = *cmd.HoursAllowedRedeemed
			}
			if cmd.MarkDeleted {
				r.Deleted = true
			}
			return nil
		})
	}
	if err != nil {
		return dealrequest.Outcome{}, nil, fmt.Errorf("failed to write deal request: %w", err)
	}
	if !res.Committed {
		e.metrics.Transitions.WithLabelValues(string(from), string(cmd.To), string(dealrequest.OutcomeConflict)).Inc()
		e.logger.Info().
			Str("deal_id", cmd.Key.DealID.String()).
			Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
			Str("from", string(from)).
			Str("to", string(cmd.To)).
			Str("current", string(res.Current)).
			Msg("transition lost write race")
		return dealrequest.Conflict(from, cmd.To), nil, nil
	}

	e.metrics.Transitions.WithLabelValues(string(from), string(cmd.To), string(dealrequest.OutcomeCommitted)).Inc()
	e.logger.Info().
		Str("deal_id", cmd.Key.DealID.String()).
		Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
		Str("from", string(from)).
		Str("to", string(cmd.To)).
		Str("updated_by", cmd.UpdatedBy.String()).
		Msg("deal request transition committed")

	e.publishUpdated(ctx, updatedEvent(cmd, from, now, res.Request))

	out := dealrequest.Outcome{
		Kind:    dealrequest.OutcomeCommitted,
		From:    from,
		To:      cmd.To,
		Request: res.Request,
	}
	return out, followUpsFor(cmd, res.Request, deal), nil
}

// followUpsFor returns the transitions a commit schedules.
func followUpsFor(cmd dealrequest.TransitionCommand, req *dealrequest.DealRequest, deal *dealrequest.Deal) []dealrequest.TransitionCommand {
	switch cmd.To {
	case dealrequest.StatusInProgress:
		// InProgress never rests: redeem on behalf of the requester.
		expected := dealrequest.StatusInProgress
		return []dealrequest.TransitionCommand{{
			Key:          cmd.Key,
			To:           dealrequest.StatusRedeemed,
			Reason:       reasonAutoRedeem,
			UpdatedBy:    req.PublisherAccountID,
			ExpectedFrom: &expected,
		}}
	case dealrequest.StatusRequested:
		if deal == nil || !deal.AutoApproveRequests {
			return nil
		}
		expected := dealrequest.StatusRequested
		return []dealrequest.TransitionCommand{{
			Key:          cmd.Key,
			To:           dealrequest.StatusInProgress,
			Reason:       deal.ApprovalNotes,
			UpdatedBy:    deal.PublisherAccountID,
			ExpectedFrom: &expected,
		}}
	default:
		return nil
	}
}

func (e *Engine) deferTransition(ctx context.Context, cmd dealrequest.TransitionCommand) {
	err := e.dispatcher.Publish(ctx, dealrequest.QueueRequestAffinity, dealrequest.TopicTransition, cmd.Key.CompositeID(), cmd)
	if err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("defer_transition").Inc()
		e.logger.Error().Err(err).
			Str("deal_id", cmd.Key.DealID.String()).
			Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
			Str("to", string(cmd.To)).
			Msg("failed to schedule follow-up transition")
	}
}

func (e *Engine) publishUpdated(ctx context.Context, ev *dealrequest.RequestUpdated) {
	err := e.dispatcher.Publish(ctx, dealrequest.QueuePrimary, dealrequest.TopicRequestUpdated, ev.Key().CompositeID(), ev)
	if err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("publish_request_updated").Inc()
		e.logger.Error().Err(err).
			Str("deal_id", ev.DealID.String()).
			Str("publisher_account_id", ev.PublisherAccountID.String()).
			Str("to", string(ev.ToStatus)).
			Msg("failed to publish request update")
	}
}

// DeleteRequest cancels a request and marks it deleted in one write.
func (e *Engine) DeleteRequest(ctx context.Context, key dealrequest.Key, updatedBy uuid.UUID) (dealrequest.Outcome, error) {
	current, err := e.store.Get(ctx, key)
	if err != nil {
		return dealrequest.Outcome{}, fmt.Errorf("failed to load deal request: %w", err)
	}
	if current == nil {
		return dealrequest.Outcome{}, dealrequest.ErrNotFound
	}
	if current.Deleted {
		return dealrequest.NotApplicable(current.Status), nil
	}
	if current.Status != dealrequest.StatusCancelled {
		expected := current.Status
		return e.RequestTransition(ctx, dealrequest.TransitionCommand{
			Key:          key,
			To:           dealrequest.StatusCancelled,
			Reason:       reasonDeleted,
			UpdatedBy:    updatedBy,
			ExpectedFrom: &expected,
			MarkDeleted:  true,
		})
	}

	now := e.now()
	res, err := e.store.ConditionalUpdate(ctx, key, dealrequest.StatusCancelled, func(r *dealrequest.DealRequest) error {
		r.Deleted = true
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return dealrequest.Outcome{}, fmt.Errorf("failed to write deal request: %w", err)
	}
	if !res.Committed {
		return dealrequest.Conflict(dealrequest.StatusCancelled, dealrequest.StatusCancelled), nil
	}
	cmd := dealrequest.TransitionCommand{Key: key, To: dealrequest.StatusCancelled, Reason: reasonDeleted, UpdatedBy: updatedBy}
	ev := updatedEvent(cmd, dealrequest.StatusCancelled, now, res.Request)
	ev.Silent = true
	e.publishUpdated(ctx, ev)
	return dealrequest.Outcome{
		Kind:    dealrequest.OutcomeCommitted,
		From:    dealrequest.StatusCancelled,
		To:      dealrequest.StatusCancelled,
		Request: res.Request,
	}, nil
}

func newRequest(cmd dealrequest.TransitionCommand, deal *dealrequest.Deal, now time.Time) *dealrequest.DealRequest {
	req := &dealrequest.DealRequest{
		DealID:                 cmd.Key.DealID,
		PublisherAccountID:     cmd.Key.PublisherAccountID,
		Status:                 cmd.To,
		StatusAnchorTimestamp:  now,
		DealWorkspaceID:        deal.WorkspaceID,
		DealPublisherAccountID: deal.PublisherAccountID,
		DealContextWorkspaceID: deal.ContextWorkspaceID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if cmd.HoursAllowedInProgress != nil {
		req.HoursAllowedInProgress = *cmd.HoursAllowedInProgress
	}
	if cmd.HoursAllowedRedeemed != nil {
		req.HoursAllowedRedeemed = *cmd.HoursAllowedRedeemed
	}
	return req
}

func updatedEvent(cmd dealrequest.TransitionCommand, from dealrequest.Status, now time.Time, req *dealrequest.DealRequest) *dealrequest.RequestUpdated {
	return &dealrequest.RequestUpdated{
		StatusUpdated: dealrequest.StatusUpdated{
			DealID:             cmd.Key.DealID,
			PublisherAccountID: cmd.Key.PublisherAccountID,
			FromStatus:         from,
			ToStatus:           cmd.To,
			OccurredOn:         now,
			UpdatedBy:          cmd.UpdatedBy,
			Reason:             cmd.Reason,
			Lat:                cmd.Lat,
			Long:               cmd.Long,
		},
		Request: req,
		Silent:  cmd.Silent,
	}
}

// IsConflict reports whether err or out describes a lost write race.
func IsConflict(out dealrequest.Outcome, err error) bool {
	return out.Kind == dealrequest.OutcomeConflict || errors.Is(err, dealrequest.ErrConflict)
}
