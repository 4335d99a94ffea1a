package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

const reasonUncancel = "restored by operator"

// RestorableStatus returns the status a cancelled request can be restored to.
// The most recent row must be a cancellation, the row before it must be
// IN_PROGRESS or REDEEMED, and no row may ever have reached COMPLETED.
func RestorableStatus(rows []*dealrequest.StatusChangeLogRow) (dealrequest.Status, error) {
	for _, row := range rows {
		if row.ToStatus == dealrequest.StatusCompleted {
			return "", fmt.Errorf("%w: request was completed on %s and cannot be restored",
				dealrequest.ErrInvalidTransitionHistory, row.OccurredOn.Format("2006-01-02"))
		}
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: request has no status history", dealrequest.ErrInvalidTransitionHistory)
	}
	last := rows[len(rows)-1]
	if last.ToStatus != dealrequest.StatusCancelled {
		return "", fmt.Errorf("%w: most recent status is %s, not %s",
			dealrequest.ErrInvalidTransitionHistory, last.ToStatus, dealrequest.StatusCancelled)
	}
	if len(rows) < 2 {
		return "", fmt.Errorf("%w: no status recorded before cancellation", dealrequest.ErrInvalidTransitionHistory)
	}
	prior := rows[len(rows)-2].ToStatus
	if prior != dealrequest.StatusInProgress && prior != dealrequest.StatusRedeemed {
		return "", fmt.Errorf("%w: status before cancellation was %s; only %s or %s can be restored",
			dealrequest.ErrInvalidTransitionHistory, prior, dealrequest.StatusInProgress, dealrequest.StatusRedeemed)
	}
	return prior, nil
}

// Uncancel restores a cancelled request to the status it held before the
// cancellation and reports the result in plain language. Only storage
// failures are returned as errors.
func (e *Engine) Uncancel(ctx context.Context, key dealrequest.Key, operator uuid.UUID) (string, error) {
	current, err := e.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load deal request: %w", err)
	}
	if current == nil {
		return "deal request not found", nil
	}
	if current.Deleted {
		return "deal request was deleted and cannot be restored", nil
	}
	if current.Status != dealrequest.StatusCancelled {
		return fmt.Sprintf("deal request is %s, not %s", current.Status, dealrequest.StatusCancelled), nil
	}

	rows, err := e.store.ListLog(ctx, dealrequest.LogQuery{DealID: key.DealID, PublisherAccountID: key.PublisherAccountID})
	if err != nil {
		return "", fmt.Errorf("failed to read status history: %w", err)
	}
	target, err := RestorableStatus(rows)
	if err != nil {
		if errors.Is(err, dealrequest.ErrInvalidTransitionHistory) {
			return "cannot un-cancel: " + unwrapReason(err), nil
		}
		return "", err
	}

	expected := dealrequest.StatusCancelled
	out, err := e.RequestTransition(ctx, dealrequest.TransitionCommand{
		Key:            key,
		To:             target,
		Reason:         reasonUncancel,
		UpdatedBy:      operator,
		ExpectedFrom:   &expected,
		Administrative: true,
	})
	if err != nil && !out.Committed() {
		return "", err
	}
	switch out.Kind {
	case dealrequest.OutcomeConflict, dealrequest.OutcomeNotApplicable:
		return "deal request changed while restoring; try again", nil
	}

	final := out.Final()
	e.registerGroupSlot(ctx, key, final.To)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("deal_id", key.DealID.String()).
			Str("publisher_account_id", key.PublisherAccountID.String()).
			Msg("un-cancel follow-up failed")
	}
	return fmt.Sprintf("deal request restored to %s", target), nil
}

// registerGroupSlot re-claims the deal group slot for a restored request.
// Failures are logged only; the restore message does not report them.
func (e *Engine) registerGroupSlot(ctx context.Context, key dealrequest.Key, status dealrequest.Status) {
	if e.groups == nil || !status.IsActive() {
		return
	}
	deal, err := e.deals.GetByID(ctx, key.DealID)
	if err != nil || deal == nil || deal.DealGroupID == nil {
		return
	}
	if err := e.groups.SetActive(ctx, *deal.DealGroupID, key.PublisherAccountID, key.DealID); err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("group_set_active").Inc()
		e.logger.Warn().Err(err).
			Str("deal_id", key.DealID.String()).
			Str("publisher_account_id", key.PublisherAccountID.String()).
			Msg("failed to re-register deal group slot")
	}
}

func unwrapReason(err error) string {
	msg := err.Error()
	prefix := dealrequest.ErrInvalidTransitionHistory.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
