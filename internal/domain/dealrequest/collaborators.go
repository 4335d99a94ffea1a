package dealrequest

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_collaborators.go -package=mocks . Notifier,OpsAlerter,SearchIndex,ConnectionAuthorizer,GroupRegistry,PendingCache,Invalidator,StatsRecorder,UsageLedger,MediaResolver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPermanent marks a delivery failure that must not be retried.
var ErrPermanent = errors.New("permanent failure")

// NotificationType classifies a notification for the transport.
type NotificationType string

const (
	NotificationDealRequest NotificationType = "DEAL_REQUEST"
	NotificationInvite      NotificationType = "DEAL_INVITE"
)

// Notification is one message between the two parties of a request.
type Notification struct {
	From        uuid.UUID        `json:"from"`
	To          uuid.UUID        `json:"to"`
	DealID      uuid.UUID        `json:"dealId"`
	BodyKey     string           `json:"bodyKey"`
	Body        string           `json:"body,omitempty"`
	Title       string           `json:"title"`
	Type        NotificationType `json:"type"`
	WorkspaceID uuid.UUID        `json:"workspaceId"`
}

// Notifier delivers notifications; delivery itself is out of scope here.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// OpsAlert is a best-effort operational signal.
type OpsAlert struct {
	DealID             uuid.UUID `json:"dealId"`
	PublisherAccountID uuid.UUID `json:"publisherAccountId"`
	FromStatus         Status    `json:"fromStatus"`
	ToStatus           Status    `json:"toStatus"`
	UpdatedBy          uuid.UUID `json:"updatedBy"`
	Reason             string    `json:"reason,omitempty"`
	OccurredOn         time.Time `json:"occurredOn"`
}

// OpsAlerter publishes ops alerts. Failures never abort a transition.
type OpsAlerter interface {
	Alert(ctx context.Context, alert OpsAlert) error
}

// SearchIndex updates deal search documents.
type SearchIndex interface {
	// AppendRequestedBy adds publisherAccountID to the deal's requested-by
	// list when it is not already present.
	AppendRequestedBy(ctx context.Context, dealID, publisherAccountID uuid.UUID) error
}

// ConnectionAuthorizer connects two accounts in both directions.
type ConnectionAuthorizer interface {
	Authorize(ctx context.Context, a, b uuid.UUID) error
}

// GroupRegistry tracks which deal a publisher holds active in a deal group.
type GroupRegistry interface {
	SetActive(ctx context.Context, groupID, publisherAccountID, dealID uuid.UUID) error
	ClearActive(ctx context.Context, groupID, publisherAccountID uuid.UUID) error
	Active(ctx context.Context, groupID, publisherAccountID uuid.UUID) (uuid.UUID, bool, error)
}

// PendingCache holds the "recent pending requests" view per deal.
type PendingCache interface {
	InvalidateRecentPending(ctx context.Context, dealID uuid.UUID) error
}

// Invalidator drops cached and indexed copies of a request.
type Invalidator interface {
	Invalidate(ctx context.Context, compositeID string) error
}

// RecentStats is the recomputed activity summary of an account.
type RecentStats struct {
	AccountID      uuid.UUID `json:"accountId"`
	CompletedCount int       `json:"completedCount"`
	Window         string    `json:"window"`
	ComputedAt     time.Time `json:"computedAt"`
}

// StatsRecorder stores status counters and recent statistics.
type StatsRecorder interface {
	ApplyDelta(ctx context.Context, delta StatusCountDelta) error
	StoreRecent(ctx context.Context, stats RecentStats) error
}

// ChargeResult reports whether this call performed the usage charge.
type ChargeResult struct {
	Charged   bool
	ChargedOn time.Time
}

// UsageLedger charges a request's usage at most once.
type UsageLedger interface {
	ChargeOnce(ctx context.Context, key Key) (ChargeResult, error)
}

// MediaResolver maps external media references to internal ids.
type MediaResolver interface {
	Resolve(ctx context.Context, key Key, refs []string) ([]string, error)
}
