//go:build integration
// +build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/migrations"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, RunMigrations(ctx, pool, migrations.FS))
	return pool
}

func seedDeal(t *testing.T, pool *pgxpool.Pool, autoApprove bool) *dealrequest.Deal {
	t.Helper()
	groupID := uuid.New()
	d := &dealrequest.Deal{
		ID:                  uuid.New(),
		Title:               "Tasting menu",
		WorkspaceID:         uuid.New(),
		PublisherAccountID:  uuid.New(),
		DealGroupID:         &groupID,
		AutoApproveRequests: autoApprove,
		ApprovalNotes:       "Ask for Sam.",
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO deals (id, title, workspace_id, publisher_account_id, deal_group_id, auto_approve_requests, approval_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, d.ID, d.Title, d.WorkspaceID, d.PublisherAccountID, d.DealGroupID, d.AutoApproveRequests, d.ApprovalNotes)
	require.NoError(t, err)
	return d
}

func newRequest(deal *dealrequest.Deal, now time.Time) *dealrequest.DealRequest {
	return &dealrequest.DealRequest{
		DealID:                 deal.ID,
		PublisherAccountID:     uuid.New(),
		Status:                 dealrequest.StatusRequested,
		StatusAnchorTimestamp:  now,
		HoursAllowedInProgress: 24,
		DealWorkspaceID:        deal.WorkspaceID,
		DealPublisherAccountID: deal.PublisherAccountID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func TestMigrationsAreRepeatable(t *testing.T) {
	pool := newTestPool(t)
	assert.NoError(t, RunMigrations(context.Background(), pool, migrations.FS))
}

func TestDealRepository(t *testing.T) {
	pool := newTestPool(t)
	deal := seedDeal(t, pool, true)
	repo := NewDealRepository(pool)

	got, err := repo.GetByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal, got)

	missing, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRequestStore(t *testing.T) {
	pool := newTestPool(t)
	store := NewRequestStore(pool)
	ctx := context.Background()
	deal := seedDeal(t, pool, false)
	now := time.Now().UTC().Truncate(time.Microsecond)
	req := newRequest(deal, now)

	res, err := store.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Committed)

	res, err = store.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, dealrequest.StatusRequested, res.Current)

	res, err = store.ConditionalUpdate(ctx, req.Key(), dealrequest.StatusInProgress, func(r *dealrequest.DealRequest) error {
		t.Fatal("mutate must not run on a status mismatch")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, dealrequest.StatusRequested, res.Current)

	res, err = store.ConditionalUpdate(ctx, req.Key(), dealrequest.StatusRequested, func(r *dealrequest.DealRequest) error {
		r.Status = dealrequest.StatusInProgress
		r.StatusAnchorTimestamp = now.Add(time.Minute)
		r.SetCompletionMedia([]string{"m1", "m1", "m2"})
		return nil
	})
	require.NoError(t, err)
	require.True(t, res.Committed)

	stored, err := store.Get(ctx, req.Key())
	require.NoError(t, err)
	assert.Equal(t, dealrequest.StatusInProgress, stored.Status)
	assert.Equal(t, []string{"m1", "m2"}, stored.CompletionMediaIDs)

	keys, err := store.ListAllowanceCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, keys, req.Key())

	_, err = store.ConditionalUpdate(ctx, dealrequest.Key{DealID: deal.ID, PublisherAccountID: uuid.New()}, dealrequest.StatusRequested,
		func(r *dealrequest.DealRequest) error { return nil })
	assert.ErrorIs(t, err, dealrequest.ErrNotFound)
}

func TestRequestStore_ConcurrentUpdatesCommitOnce(t *testing.T) {
	pool := newTestPool(t)
	store := NewRequestStore(pool)
	ctx := context.Background()
	req := newRequest(seedDeal(t, pool, false), time.Now().UTC())
	_, err := store.Create(ctx, req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.ConditionalUpdate(ctx, req.Key(), dealrequest.StatusRequested, func(r *dealrequest.DealRequest) error {
				r.Status = dealrequest.StatusCancelled
				return nil
			})
			assert.NoError(t, err)
			if res.Committed {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, committed)
}

func TestStatusLog(t *testing.T) {
	pool := newTestPool(t)
	store := NewRequestStore(pool)
	ctx := context.Background()
	deal := seedDeal(t, pool, false)
	requester := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	events := []*dealrequest.StatusUpdated{
		{DealID: deal.ID, PublisherAccountID: requester, FromStatus: dealrequest.StatusUnknown, ToStatus: dealrequest.StatusRequested, OccurredOn: base, UpdatedBy: requester},
		{DealID: deal.ID, PublisherAccountID: requester, FromStatus: dealrequest.StatusRequested, ToStatus: dealrequest.StatusInProgress, OccurredOn: base.Add(time.Second), UpdatedBy: deal.PublisherAccountID, Reason: "welcome"},
	}
	for _, ev := range events {
		require.NoError(t, store.AppendLog(ctx, dealrequest.NewLogRow(ev)))
		require.NoError(t, store.AppendLog(ctx, dealrequest.NewLogRow(ev)))
	}

	rows, err := store.ListLog(ctx, dealrequest.LogQuery{DealID: deal.ID, PublisherAccountID: requester})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dealrequest.StatusRequested, rows[0].ToStatus)

	inProgress := dealrequest.StatusInProgress
	rows, err = store.ListLog(ctx, dealrequest.LogQuery{DealID: deal.ID, PublisherAccountID: requester, ToStatus: &inProgress})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "welcome", rows[0].Reason)
}

func TestUsageLedger(t *testing.T) {
	pool := newTestPool(t)
	ledger := NewUsageLedger(pool)
	key := dealrequest.Key{DealID: uuid.New(), PublisherAccountID: uuid.New()}

	first, err := ledger.ChargeOnce(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, first.Charged)

	second, err := ledger.ChargeOnce(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, second.Charged)
	assert.True(t, first.ChargedOn.Equal(second.ChargedOn))
}

func TestSearchAndConnections(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	search := NewSearchIndex(pool)
	dealID, account := uuid.New(), uuid.New()

	require.NoError(t, search.AppendRequestedBy(ctx, dealID, account))
	require.NoError(t, search.AppendRequestedBy(ctx, dealID, account))
	var requestedBy []uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `SELECT requested_by FROM deal_search WHERE deal_id=$1`, dealID).Scan(&requestedBy))
	assert.Equal(t, []uuid.UUID{account}, requestedBy)

	conns := NewConnections(pool)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, conns.Authorize(ctx, a, b))
	require.NoError(t, conns.Authorize(ctx, b, a))
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM account_connections WHERE account_id IN ($1,$2)`, a, b).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMediaResolver(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	ref1, ref2 := "ext-"+uuid.NewString(), "ext-"+uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO media_assets (media_id, external_ref) VALUES ($1,$2), ($3,$4)`, "m-"+ref1, ref1, "m-"+ref2, ref2)
	require.NoError(t, err)
	resolver := NewMediaResolver(pool)
	key := dealrequest.Key{DealID: uuid.New(), PublisherAccountID: uuid.New()}

	ids, err := resolver.Resolve(ctx, key, []string{ref2, ref1})
	require.NoError(t, err)
	assert.Equal(t, []string{"m-" + ref2, "m-" + ref1}, ids)

	_, err = resolver.Resolve(ctx, key, []string{ref1, "missing"})
	assert.ErrorIs(t, err, dealrequest.ErrUnknownMedia)
}
