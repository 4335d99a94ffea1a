package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// DealRepository implements dealrequest.DealRepository.
type DealRepository struct {
	pool *pgxpool.Pool
}

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

func (r *DealRepository) GetByID(ctx context.Context, dealID uuid.UUID) (*dealrequest.Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, workspace_id, publisher_account_id, context_workspace_id, deal_group_id, auto_approve_requests, approval_notes
		FROM deals WHERE id=$1
	`, dealID)
	var d dealrequest.Deal
	if err := row.Scan(&d.ID, &d.Title, &d.WorkspaceID, &d.PublisherAccountID, &d.ContextWorkspaceID, &d.DealGroupID,
		&d.AutoApproveRequests, &d.ApprovalNotes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// SearchIndex implements dealrequest.SearchIndex on the deal_search table.
type SearchIndex struct {
	pool *pgxpool.Pool
}

func NewSearchIndex(pool *pgxpool.Pool) *SearchIndex {
	return &SearchIndex{pool: pool}
}

func (s *SearchIndex) AppendRequestedBy(ctx context.Context, dealID, publisherAccountID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deal_search (deal_id, requested_by, updated_at)
		VALUES ($1, ARRAY[$2::uuid], NOW())
		ON CONFLICT (deal_id) DO UPDATE
		SET requested_by = array_append(deal_search.requested_by, $2::uuid), updated_at = NOW()
		WHERE NOT ($2::uuid = ANY(deal_search.requested_by))
	`, dealID, publisherAccountID)
	return err
}

// Connections implements dealrequest.ConnectionAuthorizer.
type Connections struct {
	pool *pgxpool.Pool
}

func NewConnections(pool *pgxpool.Pool) *Connections {
	return &Connections{pool: pool}
}

func (c *Connections) Authorize(ctx context.Context, a, b uuid.UUID) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO account_connections (account_id, connected_account_id)
		VALUES ($1,$2), ($2,$1)
		ON CONFLICT DO NOTHING
	`, a, b)
	return err
}
