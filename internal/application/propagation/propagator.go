package propagation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

// DefaultDelinquentReason is sent when a request turns delinquent without a reason.
const DefaultDelinquentReason = "Content was not delivered within the agreed time."

// Propagator applies the side effects of a committed status change.
type Propagator struct {
	store       dealrequest.Store
	deals       dealrequest.DealRepository
	dispatcher  dealrequest.Dispatcher
	notifier    dealrequest.Notifier
	alerts      dealrequest.OpsAlerter
	connections dealrequest.ConnectionAuthorizer
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewPropagator(
	store dealrequest.Store,
	deals dealrequest.DealRepository,
	dispatcher dealrequest.Dispatcher,
	notifier dealrequest.Notifier,
	alerts dealrequest.OpsAlerter,
	connections dealrequest.ConnectionAuthorizer,
	logger zerolog.Logger,
) *Propagator {
	return &Propagator{
		store:       store,
		deals:       deals,
		dispatcher:  dispatcher,
		notifier:    notifier,
		alerts:      alerts,
		connections: connections,
		metrics:     metrics.Get(),
		logger:      logger.With().Str("service", "propagation").Logger(),
	}
}

// HandleStatusUpdated writes the audit row for ev and runs the side effects
// for its target status. Silent events get the audit row and counters but no
// notifications or alerts. Side-effect failures are logged and counted; only
// the audit write, an unknown deal or an unhandled status return an error.
func (p *Propagator) HandleStatusUpdated(ctx context.Context, ev *dealrequest.StatusUpdated, silent bool) error {
	row := dealrequest.NewLogRow(ev)
	if err := p.store.AppendLog(ctx, row); err != nil {
		return fmt.Errorf("failed to append status change log: %w", err)
	}

	deal, err := p.deals.GetByID(ctx, ev.DealID)
	if err != nil {
		return fmt.Errorf("failed to load deal: %w", err)
	}
	if deal == nil {
		return fmt.Errorf("%w: %w: %s", dealrequest.ErrPermanent, dealrequest.ErrDealNotFound, ev.DealID)
	}

	if ev.Changed() {
		p.publishCountDelta(ctx, ev, row.SortKey)
	}

	s := &sideEffects{p: p, ev: ev, deal: deal, silent: silent}
	switch ev.ToStatus {
	case dealrequest.StatusInProgress:
		s.authorizeConnection(ctx)
	case dealrequest.StatusDenied:
		s.notify(ctx, deal.PublisherAccountID, ev.PublisherAccountID, ev.Reason)
		s.alert(ctx)
	case dealrequest.StatusCancelled, dealrequest.StatusCompleted:
		from, to := s.direction()
		s.notify(ctx, from, to, ev.Reason)
		s.alert(ctx)
	case dealrequest.StatusRequested:
		if err := s.requested(ctx); err != nil {
			return err
		}
		s.alert(ctx)
	case dealrequest.StatusRedeemed:
		from, to := s.direction()
		s.notify(ctx, from, to, s.redeemedBody(ctx))
		s.alert(ctx)
	case dealrequest.StatusDelinquent:
		reason := ev.Reason
		if reason == "" {
			reason = DefaultDelinquentReason
		}
		s.notify(ctx, deal.PublisherAccountID, ev.PublisherAccountID, reason)
	case dealrequest.StatusInvited:
		s.notifyType = dealrequest.NotificationInvite
		s.notify(ctx, deal.PublisherAccountID, ev.PublisherAccountID, ev.Reason)
	default:
		p.logger.Error().
			Str("deal_id", ev.DealID.String()).
			Str("publisher_account_id", ev.PublisherAccountID.String()).
			Str("to", string(ev.ToStatus)).
			Msg("no side effects defined for status")
		return fmt.Errorf("%w: %s", dealrequest.ErrUnhandledStatus, ev.ToStatus)
	}
	return nil
}

// publishCountDelta is repeated on every redelivery of ev; the recorder
// applies a sort key once.
func (p *Propagator) publishCountDelta(ctx context.Context, ev *dealrequest.StatusUpdated, sortKey string) {
	delta := dealrequest.StatusCountDelta{
		DealID:     ev.DealID,
		SortKey:    sortKey,
		FromStatus: ev.FromStatus,
		ToStatus:   ev.ToStatus,
		OccurredOn: ev.OccurredOn,
	}
	err := p.dispatcher.Publish(ctx, dealrequest.QueueFifo, dealrequest.TopicStatusCountDelta, ev.DealID.String(), delta)
	if err != nil {
		p.failed(ev, "status_count_delta", err)
	}
}

func (p *Propagator) failed(ev *dealrequest.StatusUpdated, effect string, err error) {
	p.metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	p.logger.Error().Err(err).
		Str("effect", effect).
		Str("deal_id", ev.DealID.String()).
		Str("publisher_account_id", ev.PublisherAccountID.String()).
		Str("from", string(ev.FromStatus)).
		Str("to", string(ev.ToStatus)).
		Msg("side effect failed")
}

// sideEffects carries one event through the dispatch table.
type sideEffects struct {
	p          *Propagator
	ev         *dealrequest.StatusUpdated
	deal       *dealrequest.Deal
	silent     bool
	notifyType dealrequest.NotificationType
}

// direction returns sender and recipient of the contextual message. It flows
// owner to requester when the owner acted or the target is REDEEMED, and
// requester to owner otherwise.
func (s *sideEffects) direction() (from, to uuid.UUID) {
	owner, requester := s.deal.PublisherAccountID, s.ev.PublisherAccountID
	if s.ev.UpdatedBy == owner || s.ev.ToStatus == dealrequest.StatusRedeemed {
		return owner, requester
	}
	return requester, owner
}

func (s *sideEffects) notify(ctx context.Context, from, to uuid.UUID, body string) {
	if s.silent || s.p.notifier == nil {
		return
	}
	kind := s.notifyType
	if kind == "" {
		kind = dealrequest.NotificationDealRequest
	}
	err := s.p.notifier.Notify(ctx, dealrequest.Notification{
		From:        from,
		To:          to,
		DealID:      s.deal.ID,
		BodyKey:     BodyKey(s.ev.ToStatus),
		Body:        body,
		Title:       s.deal.Title,
		Type:        kind,
		WorkspaceID: s.deal.WorkspaceID,
	})
	if err != nil {
		s.p.failed(s.ev, "notify", err)
	}
}

func (s *sideEffects) alert(ctx context.Context) {
	if s.silent || s.p.alerts == nil {
		return
	}
	err := s.p.alerts.Alert(ctx, dealrequest.OpsAlert{
		DealID:             s.ev.DealID,
		PublisherAccountID: s.ev.PublisherAccountID,
		FromStatus:         s.ev.FromStatus,
		ToStatus:           s.ev.ToStatus,
		UpdatedBy:          s.ev.UpdatedBy,
		Reason:             s.ev.Reason,
		OccurredOn:         s.ev.OccurredOn,
	})
	if err != nil {
		s.p.failed(s.ev, "ops_alert", err)
	}
}

func (s *sideEffects) authorizeConnection(ctx context.Context) {
	if s.p.connections == nil {
		return
	}
	if err := s.p.connections.Authorize(ctx, s.deal.PublisherAccountID, s.ev.PublisherAccountID); err != nil {
		s.p.failed(s.ev, "authorize_connection", err)
	}
}

// requested tells the owner about a new request. An auto-approve deal whose
// request is still REQUESTED stays quiet: the engine commits the approval
// as a follow-up of the same call.
func (s *sideEffects) requested(ctx context.Context) error {
	if s.deal.AutoApproveRequests {
		current, err := s.p.store.Get(ctx, s.ev.Key())
		if err != nil {
			return fmt.Errorf("failed to load deal request: %w", err)
		}
		if current != nil && current.Status == dealrequest.StatusRequested {
			return nil
		}
	}
	s.notify(ctx, s.ev.PublisherAccountID, s.deal.PublisherAccountID, s.ev.Reason)
	return nil
}

// redeemedBody picks the message shown to the requester on redemption.
func (s *sideEffects) redeemedBody(ctx context.Context) string {
	if s.deal.AutoApproveRequests {
		return s.deal.ApprovalNotes
	}
	inProgress := dealrequest.StatusInProgress
	rows, err := s.p.store.ListLog(ctx, dealrequest.LogQuery{
		DealID:             s.ev.DealID,
		PublisherAccountID: s.ev.PublisherAccountID,
		ToStatus:           &inProgress,
	})
	if err != nil {
		s.p.failed(s.ev, "load_approval_reason", err)
		return ""
	}
	if len(rows) == 0 {
		return ""
	}
	return rows[len(rows)-1].Reason
}

// BodyKey is the localization key of a status notification.
func BodyKey(status dealrequest.Status) string {
	return "deal_request." + strings.ToLower(string(status))
}
