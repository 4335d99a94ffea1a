package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// UsageLedger implements dealrequest.UsageLedger. The primary key on
// usage_charges makes the first insert the only charge.
type UsageLedger struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewUsageLedger(pool *pgxpool.Pool) *UsageLedger {
	return &UsageLedger{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (l *UsageLedger) ChargeOnce(ctx context.Context, key dealrequest.Key) (dealrequest.ChargeResult, error) {
	var chargedOn time.Time
	err := l.pool.QueryRow(ctx, `
		INSERT INTO usage_charges (deal_id, publisher_account_id, charged_on)
		VALUES ($1,$2,$3)
		ON CONFLICT (deal_id, publisher_account_id) DO NOTHING
		RETURNING charged_on
	`, key.DealID, key.PublisherAccountID, l.now()).Scan(&chargedOn)
	if err == nil {
		return dealrequest.ChargeResult{Charged: true, ChargedOn: chargedOn}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return dealrequest.ChargeResult{}, fmt.Errorf("failed to record usage charge: %w", err)
	}

	err = l.pool.QueryRow(ctx, `
		SELECT charged_on FROM usage_charges WHERE deal_id=$1 AND publisher_account_id=$2
	`, key.DealID, key.PublisherAccountID).Scan(&chargedOn)
	if err != nil {
		return dealrequest.ChargeResult{}, fmt.Errorf("failed to read usage charge: %w", err)
	}
	return dealrequest.ChargeResult{ChargedOn: chargedOn}, nil
}

// MediaResolver implements dealrequest.MediaResolver on media_assets.
type MediaResolver struct {
	pool *pgxpool.Pool
}

func NewMediaResolver(pool *pgxpool.Pool) *MediaResolver {
	return &MediaResolver{pool: pool}
}

// Resolve maps external references to media ids, preserving order. Unknown
// references fail the whole call.
func (m *MediaResolver) Resolve(ctx context.Context, key dealrequest.Key, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	rows, err := m.pool.Query(ctx, `
		SELECT external_ref, media_id FROM media_assets WHERE external_ref = ANY($1)
	`, refs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byRef := make(map[string]string, len(refs))
	for rows.Next() {
		var ref, id string
		if err := rows.Scan(&ref, &id); err != nil {
			return nil, err
		}
		byRef[ref] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, ok := byRef[ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s", dealrequest.ErrUnknownMedia, ref)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
