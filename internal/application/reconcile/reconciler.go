package reconcile

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_reconcile.go -package=mocks . Propagator,Transitioner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

type Transitioner interface {
	RequestTransition(ctx context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error)
}

type Propagator interface {
	HandleStatusUpdated(ctx context.Context, ev *dealrequest.StatusUpdated, silent bool) error
}

// Reconciler repairs state derived from a persisted request after every
// write and hands status changes on to the propagator.
type Reconciler struct {
	deals      dealrequest.DealRepository
	engine     Transitioner
	propagator Propagator
	groups     dealrequest.GroupRegistry
	pending    dealrequest.PendingCache
	search     dealrequest.SearchIndex
	dispatcher dealrequest.Dispatcher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewReconciler(
	deals dealrequest.DealRepository,
	engine Transitioner,
	propagator Propagator,
	groups dealrequest.GroupRegistry,
	pending dealrequest.PendingCache,
	search dealrequest.SearchIndex,
	dispatcher dealrequest.Dispatcher,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		deals:      deals,
		engine:     engine,
		propagator: propagator,
		groups:     groups,
		pending:    pending,
		search:     search,
		dispatcher: dispatcher,
		metrics:    metrics.Get(),
		logger:     logger.With().Str("service", "reconcile").Logger(),
	}
}

// HandleRequestUpdated runs after every persisted write. Repairs are best
// effort; the propagator's error is returned so the message is redelivered.
func (r *Reconciler) HandleRequestUpdated(ctx context.Context, ev *dealrequest.RequestUpdated) error {
	req := ev.Request
	if req == nil {
		return fmt.Errorf("%w: request update for %s carries no request", dealrequest.ErrPermanent, ev.Key())
	}

	if !req.Status.IsPending() {
		if err := r.pending.InvalidateRecentPending(ctx, req.DealID); err != nil {
			r.failed(ev, "invalidate_recent_pending", err)
		}
	}

	r.syncGroup(ctx, ev)

	if req.Deleted && req.Status != dealrequest.StatusCancelled {
		r.repairDeleted(ctx, ev)
	}

	if ev.Changed() && (ev.FromStatus == dealrequest.StatusCompleted || ev.ToStatus == dealrequest.StatusCompleted) {
		for _, account := range []dealrequest.StatsRecompute{
			{AccountID: req.PublisherAccountID},
			{AccountID: req.DealPublisherAccountID},
		} {
			err := r.dispatcher.Publish(ctx, dealrequest.QueueLowPriority, dealrequest.TopicStatsRecompute, account.AccountID.String(), account)
			if err != nil {
				r.failed(ev, "stats_recompute", err)
			}
		}
	}

	if ev.Changed() && ev.FromStatus == dealrequest.StatusInvited && r.search != nil {
		if err := r.search.AppendRequestedBy(ctx, req.DealID, req.PublisherAccountID); err != nil {
			r.failed(ev, "search_requested_by", err)
		}
	}

	compositeID := req.Key().CompositeID()
	err := r.dispatcher.Publish(ctx, dealrequest.QueueLowPriority, dealrequest.TopicInvalidate, compositeID,
		dealrequest.Invalidate{CompositeID: compositeID})
	if err != nil {
		r.failed(ev, "invalidate", err)
	}

	if !ev.Changed() {
		return nil
	}
	return r.propagator.HandleStatusUpdated(ctx, &ev.StatusUpdated, ev.Silent)
}

// syncGroup keeps the group-active entry in step with the request: set while
// the request is active and before redemption, cleared once it reaches
// REDEEMED or later or is deleted. A restore out of CANCELLED lands on an
// active status and re-claims the entry.
func (r *Reconciler) syncGroup(ctx context.Context, ev *dealrequest.RequestUpdated) {
	if r.groups == nil {
		return
	}
	deal, err := r.deals.GetByID(ctx, ev.DealID)
	if err != nil {
		r.failed(ev, "load_deal", err)
		return
	}
	if deal == nil || deal.DealGroupID == nil {
		return
	}
	groupID := *deal.DealGroupID
	req := ev.Request

	if req.Deleted || ev.ToStatus.AtOrAfterRedeemed() {
		if err := r.groups.ClearActive(ctx, groupID, req.PublisherAccountID); err != nil {
			r.failed(ev, "group_clear_active", err)
		}
		return
	}
	if !req.Status.IsActive() {
		return
	}
	if _, ok, err := r.groups.Active(ctx, groupID, req.PublisherAccountID); err != nil {
		r.failed(ev, "group_lookup", err)
		return
	} else if ok {
		return
	}
	if err := r.groups.SetActive(ctx, groupID, req.PublisherAccountID, req.DealID); err != nil {
		r.failed(ev, "group_set_active", err)
	}
}

// repairDeleted forces a soft-deleted request into CANCELLED without
// notifying anyone again.
func (r *Reconciler) repairDeleted(ctx context.Context, ev *dealrequest.RequestUpdated) {
	req := ev.Request
	expected := req.Status
	out, err := r.engine.RequestTransition(ctx, dealrequest.TransitionCommand{
		Key:          req.Key(),
		To:           dealrequest.StatusCancelled,
		Reason:       "request deleted",
		UpdatedBy:    ev.UpdatedBy,
		ExpectedFrom: &expected,
		Silent:       true,
		MarkDeleted:  true,
	})
	if err != nil {
		r.failed(ev, "repair_deleted", err)
		return
	}
	if out.Committed() {
		r.logger.Warn().
			Str("deal_id", req.DealID.String()).
			Str("publisher_account_id", req.PublisherAccountID.String()).
			Str("from", string(expected)).
			Msg("deleted request was not cancelled; repaired")
	}
}

func (r *Reconciler) failed(ev *dealrequest.RequestUpdated, effect string, err error) {
	r.metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	r.logger.Error().Err(err).
		Str("effect", effect).
		Str("deal_id", ev.DealID.String()).
		Str("publisher_account_id", ev.PublisherAccountID.String()).
		Str("from", string(ev.FromStatus)).
		Str("to", string(ev.ToStatus)).
		Msg("reconcile step failed")
}
