package opsalert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

var ErrNonBoolFilter = errors.New("ops alert filter did not evaluate to boolean")

// Alerter writes ops alerts to a zerolog sink. An optional govaluate filter
// decides which alerts are written, for example
//
//	toStatus == 'CANCELLED' && reason != 'allowance expired'
//
// Filter parameters: dealId, publisherAccountId, fromStatus, toStatus,
// updatedBy, reason and selfService (the requester acted on their own request).
type Alerter struct {
	filter *govaluate.EvaluableExpression
	logger zerolog.Logger
}

// New compiles filter; an empty filter or "true" passes every alert.
func New(filter string, logger zerolog.Logger) (*Alerter, error) {
	a := &Alerter{logger: logger.With().Str("service", "opsalert").Logger()}
	cond := strings.TrimSpace(filter)
	if cond == "" || strings.EqualFold(cond, "true") {
		return a, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return nil, fmt.Errorf("invalid ops alert filter: %w", err)
	}
	a.filter = expr
	return a, nil
}

func (a *Alerter) Alert(ctx context.Context, alert dealrequest.OpsAlert) error {
	ok, err := a.matches(alert)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	a.logger.Warn().
		Str("deal_id", alert.DealID.String()).
		Str("publisher_account_id", alert.PublisherAccountID.String()).
		Str("from", string(alert.FromStatus)).
		Str("to", string(alert.ToStatus)).
		Str("updated_by", alert.UpdatedBy.String()).
		Str("reason", alert.Reason).
		Time("occurred_on", alert.OccurredOn).
		Msg("deal request status changed")
	return nil
}

func (a *Alerter) matches(alert dealrequest.OpsAlert) (bool, error) {
	if a.filter == nil {
		return true, nil
	}
	result, err := a.filter.Evaluate(params(alert))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate ops alert filter: %w", err)
	}
	v, ok := result.(bool)
	if !ok {
		return false, ErrNonBoolFilter
	}
	return v, nil
}

func params(alert dealrequest.OpsAlert) map[string]interface{} {
	return map[string]interface{}{
		"dealId":             alert.DealID.String(),
		"publisherAccountId": alert.PublisherAccountID.String(),
		"fromStatus":         string(alert.FromStatus),
		"toStatus":           string(alert.ToStatus),
		"updatedBy":          alert.UpdatedBy.String(),
		"reason":             alert.Reason,
		"selfService":        alert.UpdatedBy == alert.PublisherAccountID,
	}
}
