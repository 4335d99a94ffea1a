package dealrequest

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Store,DealRepository,Dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UpdateResult is the outcome of a conditional write. Callers must branch on
// Committed; a nil error alone does not mean the write happened.
type UpdateResult struct {
	Committed bool
	Request   *DealRequest
	// Current is the stored status observed when the write was refused.
	Current Status
}

// LogQuery selects status-change log rows of one request.
type LogQuery struct {
	DealID             uuid.UUID
	PublisherAccountID uuid.UUID
	ToStatus           *Status
}

// Store persists deal requests and their status-change log.
type Store interface {
	// Get returns nil when the request does not exist.
	Get(ctx context.Context, key Key) (*DealRequest, error)
	// Create inserts a new request; Committed is false when one already exists.
	Create(ctx context.Context, req *DealRequest) (UpdateResult, error)
	// ConditionalUpdate applies mutate to the freshly stored request and
	// writes it only if its status still equals expected.
	ConditionalUpdate(ctx context.Context, key Key, expected Status, mutate func(*DealRequest) error) (UpdateResult, error)
	// AppendLog stores a log row; rows with an existing sort key are ignored.
	AppendLog(ctx context.Context, row *StatusChangeLogRow) error
	// ListLog returns rows ordered by occurrence, oldest first.
	ListLog(ctx context.Context, q LogQuery) ([]*StatusChangeLogRow, error)
	// ListAllowanceCandidates returns requests resting in a status with a dwell limit.
	ListAllowanceCandidates(ctx context.Context, limit int) ([]Key, error)
	// CountCompletedSince counts completed requests where account is either party.
	CountCompletedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error)
}

// DealRepository reads deals.
type DealRepository interface {
	// GetByID returns nil when the deal does not exist.
	GetByID(ctx context.Context, dealID uuid.UUID) (*Deal, error)
}

// Queue names one of the deferred dispatcher's logical queues.
type Queue string

const (
	// QueuePrimary is ordered per entity and carries the canonical request events.
	QueuePrimary Queue = "primary"
	// QueueFifo keeps strict per-key order; used for counter deltas.
	QueueFifo Queue = "fifo"
	// QueueLowPriority is best-effort and unordered.
	QueueLowPriority Queue = "low_priority"
	// QueueRequestAffinity serializes transition attempts for one request.
	QueueRequestAffinity Queue = "request_affinity"
)

const (
	TopicRequestUpdated   = "deal_request.updated"
	TopicTransition       = "deal_request.transition"
	TopicStatusCountDelta = "deal_request.status_count_delta"
	TopicStatsRecompute   = "stats.recompute"
	TopicInvalidate       = "cache.invalidate"
)

// Handler consumes one delivered message. Returning an error asks for redelivery.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher is the deferred dispatcher. Delivery is at least once.
type Dispatcher interface {
	Publish(ctx context.Context, queue Queue, topic, key string, payload any) error
	Subscribe(topic string, handler Handler)
}
