package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// RecentWindow is the look-back period of recent statistics.
const RecentWindow = 30 * 24 * time.Hour

type Service struct {
	store    dealrequest.Store
	recorder dealrequest.StatsRecorder
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(store dealrequest.Store, recorder dealrequest.StatsRecorder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("service", "stats").Logger(),
	}
}

// Recompute rebuilds the recent statistics of one account.
func (s *Service) Recompute(ctx context.Context, accountID uuid.UUID) error {
	now := s.now()
	count, err := s.store.CountCompletedSince(ctx, accountID, now.Add(-RecentWindow))
	if err != nil {
		return fmt.Errorf("failed to count completed requests: %w", err)
	}
	stats := dealrequest.RecentStats{
		AccountID:      accountID,
		CompletedCount: count,
		Window:         "30d",
		ComputedAt:     now,
	}
	if err := s.recorder.StoreRecent(ctx, stats); err != nil {
		return fmt.Errorf("failed to store recent stats: %w", err)
	}
	s.logger.Debug().Str("account_id", accountID.String()).Int("completed", count).Msg("recent stats recomputed")
	return nil
}

// ApplyDelta moves one request between the per-deal status counters. It
// must be fed in transition order per deal.
func (s *Service) ApplyDelta(ctx context.Context, delta dealrequest.StatusCountDelta) error {
	if delta.FromStatus == delta.ToStatus {
		return nil
	}
	if err := s.recorder.ApplyDelta(ctx, delta); err != nil {
		return fmt.Errorf("failed to apply status count delta: %w", err)
	}
	return nil
}
