package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// Cache implements the cache-side collaborators (pending view, invalidation
// and stat counters) in process memory.
type Cache struct {
	mu          sync.Mutex
	pending     map[uuid.UUID]int
	invalidated map[string]int
	counts      map[uuid.UUID]map[dealrequest.Status]int64
	applied     map[uuid.UUID]map[string]struct{}
	recent      map[uuid.UUID]dealrequest.RecentStats
}

func NewCache() *Cache {
	return &Cache{
		pending:     make(map[uuid.UUID]int),
		invalidated: make(map[string]int),
		counts:      make(map[uuid.UUID]map[dealrequest.Status]int64),
		applied:     make(map[uuid.UUID]map[string]struct{}),
		recent:      make(map[uuid.UUID]dealrequest.RecentStats),
	}
}

func (c *Cache) InvalidateRecentPending(ctx context.Context, dealID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[dealID]++
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, compositeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated[compositeID]++
	return nil
}

func (c *Cache) ApplyDelta(ctx context.Context, delta dealrequest.StatusCountDelta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if delta.SortKey != "" {
		seen, ok := c.applied[delta.DealID]
		if !ok {
			seen = make(map[string]struct{})
			c.applied[delta.DealID] = seen
		}
		if _, dup := seen[delta.SortKey]; dup {
			return nil
		}
		seen[delta.SortKey] = struct{}{}
	}
	counts, ok := c.counts[delta.DealID]
	if !ok {
		counts = make(map[dealrequest.Status]int64)
		c.counts[delta.DealID] = counts
	}
	if delta.FromStatus != dealrequest.StatusUnknown && delta.FromStatus != "" {
		counts[delta.FromStatus]--
	}
	counts[delta.ToStatus]++
	return nil
}

func (c *Cache) StoreRecent(ctx context.Context, stats dealrequest.RecentStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent[stats.AccountID] = stats
	return nil
}

// Counts returns the status counters of a deal.
func (c *Cache) Counts(dealID uuid.UUID) map[dealrequest.Status]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[dealrequest.Status]int64, len(c.counts[dealID]))
	for s, n := range c.counts[dealID] {
		out[s] = n
	}
	return out
}

// Recent returns the last stored statistics of an account.
func (c *Cache) Recent(accountID uuid.UUID) (dealrequest.RecentStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.recent[accountID]
	return stats, ok
}

// Invalidations returns how often compositeID was invalidated.
func (c *Cache) Invalidations(compositeID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated[compositeID]
}

// Connections implements dealrequest.ConnectionAuthorizer in process memory.
type Connections struct {
	mu    sync.Mutex
	pairs map[[2]uuid.UUID]struct{}
}

func NewConnections() *Connections {
	return &Connections{pairs: make(map[[2]uuid.UUID]struct{})}
}

func (c *Connections) Authorize(ctx context.Context, a, b uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs[[2]uuid.UUID{a, b}] = struct{}{}
	c.pairs[[2]uuid.UUID{b, a}] = struct{}{}
	return nil
}

// Connected reports whether a may reach b.
func (c *Connections) Connected(a, b uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pairs[[2]uuid.UUID{a, b}]
	return ok
}

// Search implements dealrequest.SearchIndex in process memory.
type Search struct {
	mu          sync.Mutex
	requestedBy map[uuid.UUID][]uuid.UUID
}

func NewSearch() *Search {
	return &Search{requestedBy: make(map[uuid.UUID][]uuid.UUID)}
}

func (s *Search) AppendRequestedBy(ctx context.Context, dealID, publisherAccountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.requestedBy[dealID] {
		if id == publisherAccountID {
			return nil
		}
	}
	s.requestedBy[dealID] = append(s.requestedBy[dealID], publisherAccountID)
	return nil
}

// RequestedBy returns the accounts that requested dealID organically.
func (s *Search) RequestedBy(dealID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.requestedBy[dealID]...)
}
