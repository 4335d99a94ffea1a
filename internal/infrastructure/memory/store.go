package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/domain/dealrequest"
)

// Store implements dealrequest.Store in process memory.
type Store struct {
	mu       sync.Mutex
	requests map[dealrequest.Key]*dealrequest.DealRequest
	logs     map[uuid.UUID]map[string]*dealrequest.StatusChangeLogRow
}

func NewStore() *Store {
	return &Store{
		requests: make(map[dealrequest.Key]*dealrequest.DealRequest),
		logs:     make(map[uuid.UUID]map[string]*dealrequest.StatusChangeLogRow),
	}
}

func (s *Store) Get(ctx context.Context, key dealrequest.Key) (*dealrequest.DealRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key].Clone(), nil
}

func (s *Store) Create(ctx context.Context, req *dealrequest.DealRequest) (dealrequest.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := req.Key()
	if existing, ok := s.requests[key]; ok {
		return dealrequest.UpdateResult{Current: existing.Status}, nil
	}
	s.requests[key] = req.Clone()
	return dealrequest.UpdateResult{Committed: true, Request: req.Clone()}, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, key dealrequest.Key, expected dealrequest.Status, mutate func(*dealrequest.DealRequest) error) (dealrequest.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[key]
	if !ok {
		return dealrequest.UpdateResult{}, dealrequest.ErrNotFound
	}
	if stored.Status != expected {
		return dealrequest.UpdateResult{Current: stored.Status}, nil
	}
	next := stored.Clone()
	if err := mutate(next); err != nil {
		return dealrequest.UpdateResult{}, err
	}
	s.requests[key] = next
	return dealrequest.UpdateResult{Committed: true, Request: next.Clone()}, nil
}

func (s *Store) AppendLog(ctx context.Context, row *dealrequest.StatusChangeLogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.logs[row.DealID]
	if !ok {
		rows = make(map[string]*dealrequest.StatusChangeLogRow)
		s.logs[row.DealID] = rows
	}
	if _, exists := rows[row.SortKey]; exists {
		return nil
	}
	cp := *row
	rows[row.SortKey] = &cp
	return nil
}

func (s *Store) ListLog(ctx context.Context, q dealrequest.LogQuery) ([]*dealrequest.StatusChangeLogRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*dealrequest.StatusChangeLogRow
	for _, row := range s.logs[q.DealID] {
		if row.PublisherAccountID != q.PublisherAccountID {
			continue
		}
		if q.ToStatus != nil && row.ToStatus != *q.ToStatus {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].SortKey < out[j].SortKey
		}
		return out[i].OccurredOn.Before(out[j].OccurredOn)
	})
	return out, nil
}

func (s *Store) ListAllowanceCandidates(ctx context.Context, limit int) ([]dealrequest.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []dealrequest.Key
	for key, r := range s.requests {
		if r.AllowedHours() <= 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CompositeID() < keys[j].CompositeID()
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *Store) CountCompletedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.requests {
		if r.Status != dealrequest.StatusCompleted || r.StatusAnchorTimestamp.Before(since) {
			continue
		}
		if r.PublisherAccountID == accountID || r.DealPublisherAccountID == accountID {
			count++
		}
	}
	return count, nil
}

// Deals implements dealrequest.DealRepository in process memory.
type Deals struct {
	mu    sync.RWMutex
	deals map[uuid.UUID]*dealrequest.Deal
}

func NewDeals(deals ...*dealrequest.Deal) *Deals {
	d := &Deals{deals: make(map[uuid.UUID]*dealrequest.Deal)}
	for _, deal := range deals {
		d.Put(deal)
	}
	return d
}

func (d *Deals) Put(deal *dealrequest.Deal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *deal
	d.deals[deal.ID] = &cp
}

func (d *Deals) GetByID(ctx context.Context, dealID uuid.UUID) (*dealrequest.Deal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	deal, ok := d.deals[dealID]
	if !ok {
		return nil, nil
	}
	cp := *deal
	return &cp, nil
}
