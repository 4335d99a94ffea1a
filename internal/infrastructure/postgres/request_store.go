package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

const requestColumns = `deal_id, publisher_account_id, status, status_anchor_timestamp, hours_allowed_in_progress, hours_allowed_redeemed,
	completion_media_ids, usage_charged_on, deal_workspace_id, deal_publisher_account_id, deal_context_workspace_id, deleted, created_at, updated_at`

// RequestStore implements dealrequest.Store.
type RequestStore struct {
	pool *pgxpool.Pool
}

func NewRequestStore(pool *pgxpool.Pool) *RequestStore {
	return &RequestStore{pool: pool}
}

func (s *RequestStore) Get(ctx context.Context, key dealrequest.Key) (*dealrequest.DealRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM deal_requests WHERE deal_id=$1 AND publisher_account_id=$2
	`, key.DealID, key.PublisherAccountID)
	return scanRequest(row)
}

func (s *RequestStore) Create(ctx context.Context, req *dealrequest.DealRequest) (dealrequest.UpdateResult, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO deal_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (deal_id, publisher_account_id) DO NOTHING
	`, requestArgs(req)...)
	if err != nil {
		return dealrequest.UpdateResult{}, err
	}
	if tag.RowsAffected() == 1 {
		return dealrequest.UpdateResult{Committed: true, Request: req.Clone()}, nil
	}
	existing, err := s.Get(ctx, req.Key())
	if err != nil {
		return dealrequest.UpdateResult{}, err
	}
	if existing == nil {
		return dealrequest.UpdateResult{Current: dealrequest.StatusUnknown}, nil
	}
	return dealrequest.UpdateResult{Current: existing.Status}, nil
}

// ConditionalUpdate locks the row, checks the expected status and writes the
// mutated request in one transaction.
func (s *RequestStore) ConditionalUpdate(ctx context.Context, key dealrequest.Key, expected dealrequest.Status, mutate func(*dealrequest.DealRequest) error) (dealrequest.UpdateResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dealrequest.UpdateResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM deal_requests WHERE deal_id=$1 AND publisher_account_id=$2
		FOR UPDATE
	`, key.DealID, key.PublisherAccountID)
	stored, err := scanRequest(row)
	if err != nil {
		return dealrequest.UpdateResult{}, err
	}
	if stored == nil {
		return dealrequest.UpdateResult{}, dealrequest.ErrNotFound
	}
	if stored.Status != expected {
		return dealrequest.UpdateResult{Current: stored.Status}, nil
	}
	if err := mutate(stored); err != nil {
		return dealrequest.UpdateResult{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE deal_requests SET status=$3, status_anchor_timestamp=$4, hours_allowed_in_progress=$5, hours_allowed_redeemed=$6,
			completion_media_ids=$7, usage_charged_on=$8, deleted=$9, updated_at=$10
		WHERE deal_id=$1 AND publisher_account_id=$2
	`, key.DealID, key.PublisherAccountID, stored.Status, stored.StatusAnchorTimestamp, stored.HoursAllowedInProgress, stored.HoursAllowedRedeemed,
		mediaIDs(stored.CompletionMediaIDs), stored.UsageChargedOn, stored.Deleted, stored.UpdatedAt)
	if err != nil {
		return dealrequest.UpdateResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dealrequest.UpdateResult{}, err
	}
	return dealrequest.UpdateResult{Committed: true, Request: stored}, nil
}

func (s *RequestStore) AppendLog(ctx context.Context, row *dealrequest.StatusChangeLogRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deal_request_status_log
		(deal_id, sort_key, publisher_account_id, from_status, to_status, occurred_on, updated_by, reason, lat, long)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (deal_id, sort_key) DO NOTHING
	`, row.DealID, row.SortKey, row.PublisherAccountID, row.FromStatus, row.ToStatus, row.OccurredOn,
		row.UpdatedByPublisherAccountID, row.Reason, row.Lat, row.Long)
	return err
}

func (s *RequestStore) ListLog(ctx context.Context, q dealrequest.LogQuery) ([]*dealrequest.StatusChangeLogRow, error) {
	var toStatus *string
	if q.ToStatus != nil {
		v := string(*q.ToStatus)
		toStatus = &v
	}
	rows, err := s.pool.Query(ctx, `
		SELECT deal_id, sort_key, publisher_account_id, from_status, to_status, occurred_on, updated_by, reason, lat, long
		FROM deal_request_status_log
		WHERE deal_id=$1 AND publisher_account_id=$2 AND ($3::text IS NULL OR to_status=$3)
		ORDER BY occurred_on ASC, sort_key ASC
	`, q.DealID, q.PublisherAccountID, toStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*dealrequest.StatusChangeLogRow
	for rows.Next() {
		var r dealrequest.StatusChangeLogRow
		if err := rows.Scan(&r.DealID, &r.SortKey, &r.PublisherAccountID, &r.FromStatus, &r.ToStatus, &r.OccurredOn,
			&r.UpdatedByPublisherAccountID, &r.Reason, &r.Lat, &r.Long); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ListAllowanceCandidates returns requests with a dwell limit, earliest
// deadline first. A limit of zero returns all of them.
func (s *RequestStore) ListAllowanceCandidates(ctx context.Context, limit int) ([]dealrequest.Key, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT deal_id, publisher_account_id FROM deal_requests
		WHERE (status='IN_PROGRESS' AND hours_allowed_in_progress > 0)
		   OR (status='REDEEMED' AND hours_allowed_redeemed > 0)
		ORDER BY status_anchor_timestamp + make_interval(hours => CASE status
			WHEN 'IN_PROGRESS' THEN hours_allowed_in_progress
			ELSE hours_allowed_redeemed END) ASC
		LIMIT NULLIF($1::int, 0)
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []dealrequest.Key
	for rows.Next() {
		var k dealrequest.Key
		if err := rows.Scan(&k.DealID, &k.PublisherAccountID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *RequestStore) CountCompletedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM deal_requests
		WHERE status='COMPLETED' AND status_anchor_timestamp >= $2
		  AND (publisher_account_id=$1 OR deal_publisher_account_id=$1)
	`, accountID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed requests: %w", err)
	}
	return n, nil
}

func scanRequest(row pgx.Row) (*dealrequest.DealRequest, error) {
	var r dealrequest.DealRequest
	err := row.Scan(&r.DealID, &r.PublisherAccountID, &r.Status, &r.StatusAnchorTimestamp, &r.HoursAllowedInProgress, &r.HoursAllowedRedeemed,
		&r.CompletionMediaIDs, &r.UsageChargedOn, &r.DealWorkspaceID, &r.DealPublisherAccountID, &r.DealContextWorkspaceID, &r.Deleted,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(r.CompletionMediaIDs) == 0 {
		r.CompletionMediaIDs = nil
	}
	return &r, nil
}

func requestArgs(r *dealrequest.DealRequest) []any {
	return []any{
		r.DealID, r.PublisherAccountID, r.Status, r.StatusAnchorTimestamp, r.HoursAllowedInProgress, r.HoursAllowedRedeemed,
		mediaIDs(r.CompletionMediaIDs), r.UsageChargedOn, r.DealWorkspaceID, r.DealPublisherAccountID, r.DealContextWorkspaceID, r.Deleted,
		r.CreatedAt, r.UpdatedAt,
	}
}

// mediaIDs keeps the NOT NULL array column satisfied.
func mediaIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
