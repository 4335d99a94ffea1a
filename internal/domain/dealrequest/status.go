package dealrequest

import "errors"

// Status represents deal request status.
type Status string

const (
	StatusUnknown    Status = "UNKNOWN"
	StatusInvited    Status = "INVITED"
	StatusRequested  Status = "REQUESTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusRedeemed   Status = "REDEEMED"
	StatusCompleted  Status = "COMPLETED"
	StatusDelinquent Status = "DELINQUENT"
	StatusDenied     Status = "DENIED"
	StatusCancelled  Status = "CANCELLED"
)

var (
	ErrInvalidTransition = errors.New("invalid deal request status transition")
	ErrUnhandledStatus   = errors.New("unhandled deal request status")
)

var transitions = map[Status][]Status{
	StatusUnknown:    {StatusRequested, StatusInvited},
	StatusInvited:    {StatusRequested, StatusDenied, StatusCancelled},
	StatusRequested:  {StatusInProgress, StatusDenied, StatusCancelled},
	StatusInProgress: {StatusRedeemed, StatusCancelled},
	StatusRedeemed:   {StatusCompleted, StatusDelinquent, StatusCancelled},
	StatusDelinquent: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusCancelled},
	StatusDenied:     {StatusCancelled},
	StatusCancelled:  {},
}

// administrativeTransitions are reachable only through operator un-cancel.
var administrativeTransitions = map[Status][]Status{
	StatusCancelled: {StatusInProgress, StatusRedeemed},
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition validates a status edge. Administrative edges are only
// allowed when administrative is set.
func CanTransition(from, to Status, administrative bool) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	if !administrative {
		return false
	}
	for _, s := range administrativeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsPending reports whether the request still awaits a decision.
func (s Status) IsPending() bool {
	return s == StatusInvited || s == StatusRequested
}

// IsActive reports whether the status holds the publisher's slot in a deal group.
func (s Status) IsActive() bool {
	switch s {
	case StatusInvited, StatusRequested, StatusInProgress:
		return true
	default:
		return false
	}
}

// AtOrAfterRedeemed reports whether s is REDEEMED or any later or terminal stage.
func (s Status) AtOrAfterRedeemed() bool {
	switch s {
	case StatusRedeemed, StatusDelinquent, StatusCompleted, StatusDenied, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}
