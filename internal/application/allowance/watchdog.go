package allowance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/metrics"
)

const (
	ReasonExpired = "allowance expired"

	defaultConcurrency = 4
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_transitioner.go -package=mocks . Transitioner

// Transitioner is the part of the transition engine the watchdog drives.
type Transitioner interface {
	RequestTransition(ctx context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error)
}

// Watchdog cancels requests that outstayed their allowed time in
// IN_PROGRESS or REDEEMED.
type Watchdog struct {
	store       dealrequest.Store
	engine      Transitioner
	concurrency int
	now         func() time.Time
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

type Option func(*Watchdog)

func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) {
		w.now = now
	}
}

// WithConcurrency bounds the number of parallel checks during a sweep.
func WithConcurrency(n int) Option {
	return func(w *Watchdog) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func NewWatchdog(store dealrequest.Store, engine Transitioner, logger zerolog.Logger, opts ...Option) *Watchdog {
	w := &Watchdog{
		store:       store,
		engine:      engine,
		concurrency: defaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
		metrics:     metrics.Get(),
		logger:      logger.With().Str("service", "allowance").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CheckAllowance forces the request to CANCELLED when its allowance ran out.
// It is safe to call repeatedly and concurrently for the same key.
func (w *Watchdog) CheckAllowance(ctx context.Context, key dealrequest.Key) (dealrequest.Outcome, error) {
	req, err := w.store.Get(ctx, key)
	if err != nil {
		return dealrequest.Outcome{}, fmt.Errorf("failed to load deal request: %w", err)
	}
	if req == nil {
		return dealrequest.Outcome{}, dealrequest.ErrNotFound
	}
	deadline, ok := req.AllowanceDeadline()
	if !ok || w.now().Before(deadline) {
		return dealrequest.NotApplicable(req.Status), nil
	}

	observed := req.Status
	out, err := w.engine.RequestTransition(ctx, dealrequest.TransitionCommand{
		Key:          key,
		To:           dealrequest.StatusCancelled,
		Reason:       ReasonExpired,
		UpdatedBy:    req.DealPublisherAccountID,
		ExpectedFrom: &observed,
	})
	if err != nil {
		return out, fmt.Errorf("failed to cancel expired request: %w", err)
	}

	switch out.Kind {
	case dealrequest.OutcomeCommitted:
		w.metrics.AllowanceExpired.Inc()
		w.logger.Info().
			Str("deal_id", key.DealID.String()).
			Str("publisher_account_id", key.PublisherAccountID.String()).
			Str("from", string(observed)).
			Time("deadline", deadline).
			Msg("allowance expired; request cancelled")
	case dealrequest.OutcomeConflict:
		// Another writer moved the request between our read and write.
		current, err := w.store.Get(ctx, key)
		if err != nil {
			return out, fmt.Errorf("failed to reload deal request: %w", err)
		}
		if current != nil {
			return dealrequest.NotApplicable(current.Status), nil
		}
	}
	return out, nil
}

// Sweep checks up to limit candidates and returns how many were cancelled.
func (w *Watchdog) Sweep(ctx context.Context, limit int) (int, error) {
	keys, err := w.store.ListAllowanceCandidates(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list allowance candidates: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var cancelled atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			out, err := w.CheckAllowance(gctx, key)
			if err != nil {
				// One bad request must not stop the sweep.
				w.logger.Error().Err(err).
					Str("deal_id", key.DealID.String()).
					Str("publisher_account_id", key.PublisherAccountID.String()).
					Msg("allowance check failed")
				return nil
			}
			if out.Committed() {
				cancelled.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(cancelled.Load()), err
	}

	w.logger.Debug().Int("candidates", len(keys)).Int64("cancelled", cancelled.Load()).Msg("allowance sweep finished")
	return int(cancelled.Load()), nil
}
