package dealrequest

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("deal request not found")
	ErrDealNotFound   = errors.New("deal not found")
	ErrConflict       = errors.New("deal request status changed concurrently")
	ErrChainExhausted = errors.New("transition follow-up chain exhausted")
	ErrUnknownMedia   = errors.New("unknown media reference")
	// ErrInvalidTransitionHistory is returned when un-cancel preconditions are unmet.
	ErrInvalidTransitionHistory = errors.New("invalid transition history")
)

// Key identifies a deal request.
type Key struct {
	DealID             uuid.UUID `json:"dealId"`
	PublisherAccountID uuid.UUID `json:"publisherAccountId"`
}

// CompositeID is the cache/search identifier of a request.
func (k Key) CompositeID() string {
	return k.DealID.String() + ":" + k.PublisherAccountID.String()
}

func (k Key) String() string {
	return k.CompositeID()
}

// DealRequest is one creator's engagement record against a deal.
type DealRequest struct {
	DealID                 uuid.UUID  `json:"dealId"`
	PublisherAccountID     uuid.UUID  `json:"publisherAccountId"`
	Status                 Status     `json:"status"`
	StatusAnchorTimestamp  time.Time  `json:"statusAnchorTimestamp"`
	HoursAllowedInProgress int        `json:"hoursAllowedInProgress"`
	HoursAllowedRedeemed   int        `json:"hoursAllowedRedeemed"`
	CompletionMediaIDs     []string   `json:"completionMediaIds,omitempty"`
	UsageChargedOn         int64      `json:"usageChargedOn"`
	DealWorkspaceID        uuid.UUID  `json:"dealWorkspaceId"`
	DealPublisherAccountID uuid.UUID  `json:"dealPublisherAccountId"`
	DealContextWorkspaceID *uuid.UUID `json:"dealContextWorkspaceId,omitempty"`
	Deleted                bool       `json:"deleted"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// Key returns the request key.
func (r *DealRequest) Key() Key {
	return Key{DealID: r.DealID, PublisherAccountID: r.PublisherAccountID}
}

// AllowedHours returns the dwell limit for the current status; zero means no limit.
func (r *DealRequest) AllowedHours() int {
	switch r.Status {
	case StatusInProgress:
		return r.HoursAllowedInProgress
	case StatusRedeemed:
		return r.HoursAllowedRedeemed
	default:
		return 0
	}
}

// AllowanceDeadline returns when the current status times out.
func (r *DealRequest) AllowanceDeadline() (time.Time, bool) {
	hours := r.AllowedHours()
	if hours <= 0 {
		return time.Time{}, false
	}
	return r.StatusAnchorTimestamp.Add(time.Duration(hours) * time.Hour), true
}

// SetCompletionMedia replaces completion media, keeping ids unique.
func (r *DealRequest) SetCompletionMedia(ids []string) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	r.CompletionMediaIDs = out
}

// Clone returns a deep copy.
func (r *DealRequest) Clone() *DealRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.CompletionMediaIDs != nil {
		c.CompletionMediaIDs = append([]string(nil), r.CompletionMediaIDs...)
	}
	if r.DealContextWorkspaceID != nil {
		id := *r.DealContextWorkspaceID
		c.DealContextWorkspaceID = &id
	}
	return &c
}

// StatusChangeLogRow is one append-only audit entry.
type StatusChangeLogRow struct {
	DealID                      uuid.UUID `json:"dealId"`
	SortKey                     string    `json:"sortKey"`
	PublisherAccountID          uuid.UUID `json:"publisherAccountId"`
	FromStatus                  Status    `json:"fromStatus"`
	ToStatus                    Status    `json:"toStatus"`
	OccurredOn                  time.Time `json:"occurredOn"`
	UpdatedByPublisherAccountID uuid.UUID `json:"updatedByPublisherAccountId"`
	Reason                      string    `json:"reason,omitempty"`
	Lat                         *float64  `json:"lat,omitempty"`
	Long                        *float64  `json:"long,omitempty"`
}

// LogSortKey derives the sort key from status, actor and timestamp.
func LogSortKey(to Status, updatedBy uuid.UUID, occurredOn time.Time) string {
	return fmt.Sprintf("%s#%s#%s", to, updatedBy, strconv.FormatInt(occurredOn.UnixNano(), 10))
}

// NewLogRow builds the audit row for a committed status change.
func NewLogRow(ev *StatusUpdated) *StatusChangeLogRow {
	return &StatusChangeLogRow{
		DealID:                      ev.DealID,
		SortKey:                     LogSortKey(ev.ToStatus, ev.UpdatedBy, ev.OccurredOn),
		PublisherAccountID:          ev.PublisherAccountID,
		FromStatus:                  ev.FromStatus,
		ToStatus:                    ev.ToStatus,
		OccurredOn:                  ev.OccurredOn,
		UpdatedByPublisherAccountID: ev.UpdatedBy,
		Reason:                      ev.Reason,
		Lat:                         ev.Lat,
		Long:                        ev.Long,
	}
}

// Deal is the read-only offer a request is made against.
type Deal struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	WorkspaceID         uuid.UUID  `json:"workspaceId"`
	PublisherAccountID  uuid.UUID  `json:"publisherAccountId"`
	ContextWorkspaceID  *uuid.UUID `json:"contextWorkspaceId,omitempty"`
	DealGroupID         *uuid.UUID `json:"dealGroupId,omitempty"`
	AutoApproveRequests bool       `json:"autoApproveRequests"`
	ApprovalNotes       string     `json:"approvalNotes,omitempty"`
}

// IsOwner reports whether account owns the deal.
func (d *Deal) IsOwner(account uuid.UUID) bool {
	return d != nil && d.PublisherAccountID == account
}
