package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

const maxWriteAttempts = 3

// Service records completion media and charges usage at most once.
type Service struct {
	store      dealrequest.Store
	media      dealrequest.MediaResolver
	ledger     dealrequest.UsageLedger
	dispatcher dealrequest.Dispatcher
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(
	store dealrequest.Store,
	media dealrequest.MediaResolver,
	ledger dealrequest.UsageLedger,
	dispatcher dealrequest.Dispatcher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:      store,
		media:      media,
		ledger:     ledger,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
		metrics:    metrics.Get(),
		logger:     logger.With().Str("service", "completion").Logger(),
	}
}

// RecordCompletionMedia resolves refs and stores them on the request. The
// same write stamps usageChargedOn with the ledger's charge time when the
// request was not stamped before, whether this call or an earlier failed
// one made the charge.
func (s *Service) RecordCompletionMedia(ctx context.Context, key dealrequest.Key, refs []string) (*dealrequest.DealRequest, error) {
	current, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal request: %w", err)
	}
	if current == nil {
		return nil, dealrequest.ErrNotFound
	}

	ids, err := s.media.Resolve(ctx, key, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve completion media: %w", err)
	}

	var charge dealrequest.ChargeResult
	if current.UsageChargedOn == 0 {
		charge, err = s.ledger.ChargeOnce(ctx, key)
		if err != nil {
			// Media is still recorded; the next call retries the charge.
			s.metrics.SideEffectFailures.WithLabelValues("charge_usage").Inc()
			s.logger.Error().Err(err).
				Str("deal_id", key.DealID.String()).
				Str("publisher_account_id", key.PublisherAccountID.String()).
				Msg("usage charge failed")
			charge = dealrequest.ChargeResult{}
		}
	}

	for attempt := 1; ; attempt++ {
		res, err := s.store.ConditionalUpdate(ctx, key, current.Status, func(r *dealrequest.DealRequest) error {
			r.SetCompletionMedia(ids)
			// ChargedOn is set for a fresh charge and for one an earlier
			// attempt made but failed to stamp.
			if !charge.ChargedOn.IsZero() && r.UsageChargedOn == 0 {
				r.UsageChargedOn = charge.ChargedOn.UnixMilli()
			}
			r.UpdatedAt = s.now()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write completion media: %w", err)
		}
		if res.Committed {
			s.publishUpdated(ctx, key, res.Request)
			s.logger.Info().
				Str("deal_id", key.DealID.String()).
				Str("publisher_account_id", key.PublisherAccountID.String()).
				Int("media", len(res.Request.CompletionMediaIDs)).
				Bool("charged", charge.Charged).
				Msg("completion media recorded")
			return res.Request, nil
		}
		if attempt >= maxWriteAttempts {
			return nil, fmt.Errorf("%w: completion media for %s", dealrequest.ErrConflict, key)
		}
		// Status moved under us; retry against the new status with the
		// same charge outcome.
		current, err = s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to reload deal request: %w", err)
		}
		if current == nil {
			return nil, dealrequest.ErrNotFound
		}
	}
}

func (s *Service) publishUpdated(ctx context.Context, key dealrequest.Key, req *dealrequest.DealRequest) {
	ev := &dealrequest.RequestUpdated{
		StatusUpdated: dealrequest.StatusUpdated{
			DealID:             key.DealID,
			PublisherAccountID: key.PublisherAccountID,
			FromStatus:         req.Status,
			ToStatus:           req.Status,
			OccurredOn:         req.UpdatedAt,
		},
		Request: req,
		Silent:  true,
	}
	err := s.dispatcher.Publish(ctx, dealrequest.QueuePrimary, dealrequest.TopicRequestUpdated, key.CompositeID(), ev)
	if err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("publish_request_updated").Inc()
		s.logger.Error().Err(err).
			Str("deal_id", key.DealID.String()).
			Str("publisher_account_id", key.PublisherAccountID.String()).
			Msg("failed to publish request update")
	}
}
