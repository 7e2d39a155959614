package domain

import "fmt"

// allowedTransitions enumerates every legal status edge as data. Any pair not
// listed is denied. Terminal statuses carry empty edge sets on purpose;
// Resolved keeps a reopen edge back to InProgress.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusPending, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusInProgress},
	TicketStatusClosed:     {},
	TicketStatusCancelled:  {},
}

// IsTransitionAllowed reports whether the edge from -> to is legal.
func IsTransitionAllowed(from, to TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionTargets returns the legal target statuses from the given status.
func TransitionTargets(from TicketStatus) []TicketStatus {
	targets := allowedTransitions[from]
	out := make([]TicketStatus, len(targets))
	copy(out, targets)
	return out
}

// AllStatuses lists every defined ticket status.
func AllStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusInProgress,
		TicketStatusPending,
		TicketStatusResolved,
		TicketStatusClosed,
		TicketStatusCancelled,
	}
}

// TransitionError signals a denied status change and carries both endpoints
// for diagnostics.
type TransitionError struct {
	From TicketStatus
	To   TicketStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition from %s to %s is not allowed", e.From, e.To)
}

// NewTransitionError constructs a TransitionError.
func NewTransitionError(from, to TicketStatus) *TransitionError {
	return &TransitionError{From: from, To: to}
}
