package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type groupSlot struct {
	groupID            uuid.UUID
	publisherAccountID uuid.UUID
}

// Groups implements dealrequest.GroupRegistry in process memory.
type Groups struct {
	mu     sync.Mutex
	active map[groupSlot]uuid.UUID
}

func NewGroups() *Groups {
	return &Groups{active: make(map[groupSlot]uuid.UUID)}
}

func (g *Groups) SetActive(ctx context.Context, groupID, publisherAccountID, dealID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active[groupSlot{groupID, publisherAccountID}] = dealID
	return nil
}

func (g *Groups) ClearActive(ctx context.Context, groupID, publisherAccountID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, groupSlot{groupID, publisherAccountID})
	return nil
}

func (g *Groups) Active(ctx context.Context, groupID, publisherAccountID uuid.UUID) (uuid.UUID, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	dealID, ok := g.active[groupSlot{groupID, publisherAccountID}]
	return dealID, ok, nil
}
