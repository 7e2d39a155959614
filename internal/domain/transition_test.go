package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allowedEdges is the full expected edge set; every pair outside it must be
// denied.
var allowedEdges = [][2]TicketStatus{
	{TicketStatusOpen, TicketStatusInProgress},
	{TicketStatusOpen, TicketStatusCancelled},
	{TicketStatusInProgress, TicketStatusPending},
	{TicketStatusInProgress, TicketStatusResolved},
	{TicketStatusInProgress, TicketStatusCancelled},
	{TicketStatusPending, TicketStatusInProgress},
	{TicketStatusPending, TicketStatusResolved},
	{TicketStatusPending, TicketStatusCancelled},
	{TicketStatusResolved, TicketStatusClosed},
	{TicketStatusResolved, TicketStatusInProgress},
}

func TestIsTransitionAllowed_CrossProduct(t *testing.T) {
	expected := make(map[[2]TicketStatus]bool, len(allowedEdges))
	for _, edge := range allowedEdges {
		expected[edge] = true
	}
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := expected[[2]TicketStatus{from, to}]
			assert.Equal(t, want, IsTransitionAllowed(from, to),
				"edge %s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range AllStatuses() {
		if !from.IsTerminal() {
			continue
		}
		assert.Empty(t, TransitionTargets(from), "terminal status %s", from)
	}
}

func TestResolvedToClosedIsAllowed(t *testing.T) {
	// Auto-close depends on this edge.
	require.True(t, IsTransitionAllowed(TicketStatusResolved, TicketStatusClosed))
}

func TestSelfTransitionsDenied(t *testing.T) {
	for _, status := range AllStatuses() {
		assert.False(t, IsTransitionAllowed(status, status), "status %s", status)
	}
}

func TestTransitionError(t *testing.T) {
	err := NewTransitionError(TicketStatusClosed, TicketStatusOpen)
	require.EqualError(t, err, "transition from CLOSED to OPEN is not allowed")
	assert.Equal(t, TicketStatusClosed, err.From)
	assert.Equal(t, TicketStatusOpen, err.To)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, TicketStatusClosed.IsTerminal())
	assert.True(t, TicketStatusCancelled.IsTerminal())
	assert.False(t, TicketStatusResolved.IsTerminal())
	assert.False(t, TicketStatusOpen.IsTerminal())
	assert.False(t, TicketStatusInProgress.IsTerminal())
	assert.False(t, TicketStatusPending.IsTerminal())
}
