package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newLifecycleFixture(ticket *domain.Ticket) (*LifecycleService, *fakeTicketRepo, *fakeHistoryRepo, *fakeDispatcher) {
	repo := newFakeTicketRepo(ticket)
	history := &fakeHistoryRepo{}
	dispatcher := &fakeDispatcher{}
	svc := NewLifecycleService(repo, history, dispatcher, zap.NewNop()).
		WithClock(func() time.Time { return testNow })
	return svc, repo, history, dispatcher
}

func TestTransition_AllowedEdge(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}
	svc, repo, history, dispatcher := newLifecycleFixture(ticket)

	updated, err := svc.Transition(context.Background(), "t1", domain.TicketStatusInProgress, events.SystemActor(), "picked up")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	stored, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)

	require.Len(t, history.entries, 1)
	assert.Equal(t, domain.ChangeTypeStatus, history.entries[0].ChangeType)

	require.Len(t, dispatcher.published, 1)
	event := dispatcher.published[0]
	assert.Equal(t, events.EventTicketTransitioned, event.Type)
	payload := event.Payload.(events.TicketTransitionedPayload)
	assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusInProgress, payload.NewStatus)
}

func TestTransition_DeniedEdgeLeavesTicketUntouched(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}
	svc, repo, history, dispatcher := newLifecycleFixture(ticket)

	_, err := svc.Transition(context.Background(), "t1", domain.TicketStatusClosed, events.SystemActor(), "")
	var transitionErr *domain.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.TicketStatusOpen, transitionErr.From)
	assert.Equal(t, domain.TicketStatusClosed, transitionErr.To)

	stored, getErr := repo.GetByID(context.Background(), "t1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
	assert.Zero(t, repo.updates)
	assert.Empty(t, history.entries)
	assert.Empty(t, dispatcher.published)
}

// Transition must succeed exactly when the table allows the edge.
func TestTransition_MatchesTableAcrossCrossProduct(t *testing.T) {
	for _, from := range domain.AllStatuses() {
		for _, to := range domain.AllStatuses() {
			ticket := &domain.Ticket{ID: "t1", Status: from}
			svc, _, _, _ := newLifecycleFixture(ticket)

			_, err := svc.Transition(context.Background(), "t1", to, events.SystemActor(), "")
			if domain.IsTransitionAllowed(from, to) {
				assert.NoError(t, err, "edge %s -> %s", from, to)
			} else {
				assert.Error(t, err, "edge %s -> %s", from, to)
			}
		}
	}
}

func TestTransition_SetsResolvedAtOnce(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusInProgress}
	svc, repo, _, _ := newLifecycleFixture(ticket)
	ctx := context.Background()

	_, err := svc.Transition(ctx, "t1", domain.TicketStatusResolved, events.SystemActor(), "")
	require.NoError(t, err)
	stored, _ := repo.GetByID(ctx, "t1")
	require.NotNil(t, stored.ResolvedAt)
	firstResolved := *stored.ResolvedAt

	// Reopen and resolve again; the original timestamp survives.
	_, err = svc.Transition(ctx, "t1", domain.TicketStatusInProgress, events.SystemActor(), "reopen")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "t1", domain.TicketStatusResolved, events.SystemActor(), "")
	require.NoError(t, err)

	stored, _ = repo.GetByID(ctx, "t1")
	require.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, firstResolved, *stored.ResolvedAt)
}

func TestTransition_SetsClosedAt(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusResolved}
	svc, repo, _, _ := newLifecycleFixture(ticket)

	_, err := svc.Transition(context.Background(), "t1", domain.TicketStatusClosed, events.SystemActor(), "")
	require.NoError(t, err)
	stored, _ := repo.GetByID(context.Background(), "t1")
	require.NotNil(t, stored.ClosedAt)
	assert.Equal(t, testNow, *stored.ClosedAt)
}

func TestTransition_StoreFailurePropagates(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}
	svc, repo, _, dispatcher := newLifecycleFixture(ticket)
	repo.failSave = errStoreDown

	_, err := svc.Transition(context.Background(), "t1", domain.TicketStatusInProgress, events.SystemActor(), "")
	require.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, dispatcher.published)
}
