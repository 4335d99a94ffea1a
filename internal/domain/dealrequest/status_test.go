package dealrequest

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	ok := [][2]Status{
		{StatusUnknown, StatusRequested},
		{StatusUnknown, StatusInvited},
		{StatusInvited, StatusRequested},
		{StatusRequested, StatusInProgress},
		{StatusInProgress, StatusRedeemed},
		{StatusRedeemed, StatusDelinquent},
		{StatusDelinquent, StatusCompleted},
		{StatusCompleted, StatusCancelled},
		{StatusDenied, StatusCancelled},
	}
	for _, e := range ok {
		if !CanTransition(e[0], e[1], false) {
			t.Fatalf("expected %s -> %s to be allowed", e[0], e[1])
		}
	}
	bad := [][2]Status{
		{StatusUnknown, StatusCompleted},
		{StatusRequested, StatusRedeemed},
		{StatusCompleted, StatusRedeemed},
		{StatusCancelled, StatusRequested},
		{StatusCancelled, StatusInProgress},
		{StatusDenied, StatusRequested},
	}
	for _, e := range bad {
		if CanTransition(e[0], e[1], false) {
			t.Fatalf("expected %s -> %s to be rejected", e[0], e[1])
		}
	}
}

func TestAdministrativeEdgesOnlyLeaveCancelled(t *testing.T) {
	if !CanTransition(StatusCancelled, StatusInProgress, true) || !CanTransition(StatusCancelled, StatusRedeemed, true) {
		t.Fatalf("expected un-cancel edges to be allowed administratively")
	}
	if CanTransition(StatusCancelled, StatusCompleted, true) {
		t.Fatalf("expected CANCELLED -> COMPLETED to stay rejected")
	}
	if CanTransition(StatusCompleted, StatusRedeemed, true) {
		t.Fatalf("administrative flag must not open other edges")
	}
}

func TestStageHelpers(t *testing.T) {
	for _, s := range []Status{StatusInvited, StatusRequested} {
		if !s.IsPending() || !s.IsActive() || s.AtOrAfterRedeemed() {
			t.Fatalf("unexpected stage for %s", s)
		}
	}
	if StatusInProgress.IsPending() || !StatusInProgress.IsActive() {
		t.Fatalf("unexpected stage for IN_PROGRESS")
	}
	for _, s := range []Status{StatusRedeemed, StatusDelinquent, StatusCompleted, StatusDenied, StatusCancelled} {
		if !s.AtOrAfterRedeemed() || s.IsActive() {
			t.Fatalf("unexpected stage for %s", s)
		}
	}
	if Status("PAUSED").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}

func TestAllowanceDeadline(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &DealRequest{Status: StatusRedeemed, StatusAnchorTimestamp: anchor, HoursAllowedInProgress: 2, HoursAllowedRedeemed: 48}
	deadline, ok := r.AllowanceDeadline()
	if !ok || !deadline.Equal(anchor.Add(48*time.Hour)) {
		t.Fatalf("unexpected deadline %v %v", deadline, ok)
	}
	r.Status = StatusCompleted
	if _, ok := r.AllowanceDeadline(); ok {
		t.Fatalf("completed requests have no deadline")
	}
	r.Status = StatusInProgress
	r.HoursAllowedInProgress = 0
	if _, ok := r.AllowanceDeadline(); ok {
		t.Fatalf("zero hours means no limit")
	}
}

func TestSetCompletionMediaDeduplicates(t *testing.T) {
	r := &DealRequest{}
	r.SetCompletionMedia([]string{"m1", "", "m2", "m1"})
	if len(r.CompletionMediaIDs) != 2 || r.CompletionMediaIDs[0] != "m1" || r.CompletionMediaIDs[1] != "m2" {
		t.Fatalf("unexpected media ids %v", r.CompletionMediaIDs)
	}
}

func TestCloneIsDeep(t *testing.T) {
	ws := uuid.New()
	r := &DealRequest{CompletionMediaIDs: []string{"m1"}, DealContextWorkspaceID: &ws}
	c := r.Clone()
	c.CompletionMediaIDs[0] = "changed"
	*c.DealContextWorkspaceID = uuid.New()
	if r.CompletionMediaIDs[0] != "m1" || *r.DealContextWorkspaceID != ws {
		t.Fatalf("clone shares state with the original")
	}
}

func TestLogSortKeyIsStable(t *testing.T) {
	actor := uuid.New()
	at := time.Unix(1700000000, 42)
	ev := &StatusUpdated{DealID: uuid.New(), PublisherAccountID: uuid.New(), FromStatus: StatusRequested, ToStatus: StatusInProgress, UpdatedBy: actor, OccurredOn: at}
	a, b := NewLogRow(ev), NewLogRow(ev)
	if a.SortKey != b.SortKey {
		t.Fatalf("sort key must be derived from the event only")
	}
	if a.SortKey != "IN_PROGRESS#"+actor.String()+"#1700000000000000042" {
		t.Fatalf("unexpected sort key %s", a.SortKey)
	}
}

func TestOutcomeFinal(t *testing.T) {
	out := Outcome{Kind: OutcomeCommitted, To: StatusRequested, FollowUps: []Outcome{
		{Kind: OutcomeCommitted, To: StatusInProgress},
		{Kind: OutcomeCommitted, To: StatusRedeemed},
	}}
	if out.Final().To != StatusRedeemed {
		t.Fatalf("expected final outcome to be the last follow-up")
	}
	if NotApplicable(StatusDenied).Final().To != StatusDenied {
		t.Fatalf("expected outcome without follow-ups to be its own final")
	}
}
