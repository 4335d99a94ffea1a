package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

type Transitioner interface {
	RequestTransition(ctx context.Context, cmd dealrequest.TransitionCommand) (dealrequest.Outcome, error)
}

type Reconciler interface {
	HandleRequestUpdated(ctx context.Context, ev *dealrequest.RequestUpdated) error
}

type Stats interface {
	Recompute(ctx context.Context, accountID uuid.UUID) error
	ApplyDelta(ctx context.Context, delta dealrequest.StatusCountDelta) error
}

// Consumers binds dispatcher topics to the services that handle them.
type Consumers struct {
	engine      Transitioner
	reconciler  Reconciler
	stats       Stats
	invalidator dealrequest.Invalidator
	logger      zerolog.Logger
}

func NewConsumers(engine Transitioner, reconciler Reconciler, stats Stats, invalidator dealrequest.Invalidator, logger zerolog.Logger) *Consumers {
	return &Consumers{
		engine:      engine,
		reconciler:  reconciler,
		stats:       stats,
		invalidator: invalidator,
		logger:      logger.With().Str("service", "consumers").Logger(),
	}
}

// Register subscribes every consumer on d.
func (c *Consumers) Register(d dealrequest.Dispatcher) {
	d.Subscribe(dealrequest.TopicRequestUpdated, c.requestUpdated)
	d.Subscribe(dealrequest.TopicTransition, c.transition)
	d.Subscribe(dealrequest.TopicStatusCountDelta, c.statusCountDelta)
	d.Subscribe(dealrequest.TopicStatsRecompute, c.statsRecompute)
	d.Subscribe(dealrequest.TopicInvalidate, c.invalidate)
}

func (c *Consumers) requestUpdated(ctx context.Context, payload json.RawMessage) error {
	var ev dealrequest.RequestUpdated
	if err := decode(payload, &ev); err != nil {
		return err
	}
	return c.reconciler.HandleRequestUpdated(ctx, &ev)
}

// transition runs a deferred follow-up. A lost write race is returned so
// the queue redelivers; the expected-status guard turns stale commands into
// no-ops on the next attempt.
func (c *Consumers) transition(ctx context.Context, payload json.RawMessage) error {
	var cmd dealrequest.TransitionCommand
	if err := decode(payload, &cmd); err != nil {
		return err
	}
	out, err := c.engine.RequestTransition(ctx, cmd)
	switch {
	case errors.Is(err, dealrequest.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", dealrequest.ErrPermanent, err)
	case errors.Is(err, dealrequest.ErrChainExhausted):
		c.logger.Error().Err(err).
			Str("deal_id", cmd.Key.DealID.String()).
			Str("publisher_account_id", cmd.Key.PublisherAccountID.String()).
			Str("to", string(cmd.To)).
			Msg("deferred transition chain exhausted")
		return nil
	case err != nil:
		return err
	}
	if out.Kind == dealrequest.OutcomeConflict {
		return fmt.Errorf("%w: %s -> %s", dealrequest.ErrConflict, out.From, out.To)
	}
	return nil
}

func (c *Consumers) statusCountDelta(ctx context.Context, payload json.RawMessage) error {
	var delta dealrequest.StatusCountDelta
	if err := decode(payload, &delta); err != nil {
		return err
	}
	return c.stats.ApplyDelta(ctx, delta)
}

func (c *Consumers) statsRecompute(ctx context.Context, payload json.RawMessage) error {
	var job dealrequest.StatsRecompute
	if err := decode(payload, &job); err != nil {
		return err
	}
	return c.stats.Recompute(ctx, job.AccountID)
}

func (c *Consumers) invalidate(ctx context.Context, payload json.RawMessage) error {
	var msg dealrequest.Invalidate
	if err := decode(payload, &msg); err != nil {
		return err
	}
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Invalidate(ctx, msg.CompositeID)
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: invalid payload: %w", dealrequest.ErrPermanent, err)
	}
	return nil
}
