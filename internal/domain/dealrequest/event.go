package dealrequest

import (
	"time"

	"github.com/google/uuid"
)

// StatusUpdated is the canonical event of a committed status change.
type StatusUpdated struct {
	DealID             uuid.UUID `json:"dealId"`
	PublisherAccountID uuid.UUID `json:"publisherAccountId"`
	FromStatus         Status    `json:"fromStatus"`
	ToStatus           Status    `json:"toStatus"`
	OccurredOn         time.Time `json:"occurredOn"`
	UpdatedBy          uuid.UUID `json:"updatedBy"`
	Reason             string    `json:"reason,omitempty"`
	Lat                *float64  `json:"lat,omitempty"`
	Long               *float64  `json:"long,omitempty"`
}

// Key returns the request key.
func (e *StatusUpdated) Key() Key {
	return Key{DealID: e.DealID, PublisherAccountID: e.PublisherAccountID}
}

// Changed reports whether the event carries an actual status change.
func (e *StatusUpdated) Changed() bool {
	return e.ToStatus != "" && e.FromStatus != e.ToStatus
}

// RequestUpdated is published after every persisted write of a request.
type RequestUpdated struct {
	StatusUpdated
	Request *DealRequest `json:"request"`
	// Silent suppresses notifications; the audit row is still written.
	Silent bool `json:"silent,omitempty"`
}

// StatusCountDelta moves one request between per-deal status counters.
// SortKey is the status-change log key of the transition; a delta with a
// sort key is applied at most once.
type StatusCountDelta struct {
	DealID     uuid.UUID `json:"dealId"`
	SortKey    string    `json:"sortKey,omitempty"`
	FromStatus Status    `json:"fromStatus"`
	ToStatus   Status    `json:"toStatus"`
	OccurredOn time.Time `json:"occurredOn"`
}

// StatsRecompute asks for recent statistics of one account to be rebuilt.
type StatsRecompute struct {
	AccountID uuid.UUID `json:"accountId"`
}

// Invalidate signals caches and search to drop the composite id.
type Invalidate struct {
	CompositeID string `json:"compositeId"`
}

// TransitionCommand describes one requested status change.
type TransitionCommand struct {
	Key                    Key       `json:"key"`
	To                     Status    `json:"to"`
	Reason                 string    `json:"reason,omitempty"`
	UpdatedBy              uuid.UUID `json:"updatedBy"`
	Lat                    *float64  `json:"lat,omitempty"`
	Long                   *float64  `json:"long,omitempty"`
	HoursAllowedInProgress *int      `json:"hoursAllowedInProgress,omitempty"`
	HoursAllowedRedeemed   *int      `json:"hoursAllowedRedeemed,omitempty"`
	// ExpectedFrom turns the command into a no-op unless the request is
	// still in this status when it runs.
	ExpectedFrom   *Status `json:"expectedFrom,omitempty"`
	Silent         bool    `json:"silent,omitempty"`
	Administrative bool    `json:"administrative,omitempty"`
	MarkDeleted    bool    `json:"markDeleted,omitempty"`
}

// OutcomeKind classifies the result of a transition attempt.
type OutcomeKind string

const (
	OutcomeCommitted     OutcomeKind = "COMMITTED"
	OutcomeNotApplicable OutcomeKind = "NOT_APPLICABLE"
	OutcomeConflict      OutcomeKind = "CONFLICT"
)

// Outcome is the result of a transition attempt.
type Outcome struct {
	Kind    OutcomeKind  `json:"kind"`
	From    Status       `json:"from,omitempty"`
	To      Status       `json:"to,omitempty"`
	Request *DealRequest `json:"request,omitempty"`
	// FollowUps holds outcomes of follow-up transitions applied inline.
	FollowUps []Outcome `json:"followUps,omitempty"`
}

// Committed reports whether the transition was written.
func (o Outcome) Committed() bool {
	return o.Kind == OutcomeCommitted
}

// Final returns the last outcome in the chain.
func (o Outcome) Final() Outcome {
	if len(o.FollowUps) == 0 {
		return o
	}
	return o.FollowUps[len(o.FollowUps)-1]
}

func NotApplicable(current Status) Outcome {
	return Outcome{Kind: OutcomeNotApplicable, From: current, To: current}
}

func Conflict(from, to Status) Outcome {
	return Outcome{Kind: OutcomeConflict, From: from, To: to}
}
