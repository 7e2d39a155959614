package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-automation/internal/config"
	"github.com/spec-kit/ticket-automation/internal/domain"
	"github.com/spec-kit/ticket-automation/internal/events"
)

// scriptedDispatcher fails the first failUntil attempts, then succeeds.
type scriptedDispatcher struct {
	failUntil int
	outcome   domain.AutomationOutcome
	attempts  []int
}

func (d *scriptedDispatcher) Run(ctx context.Context, task domain.AutomationTask) (domain.AutomationOutcome, error) {
	d.attempts = append(d.attempts, task.Attempt)
	if len(d.attempts) <= d.failUntil {
		return domain.AutomationOutcome{}, fmt.Errorf("boom %d", len(d.attempts))
	}
	return d.outcome, nil
}

// fakeTimer fires immediately and records the requested delays.
type fakeTimer struct {
	delays []time.Duration
	ch     chan time.Time
}

func (t *fakeTimer) Start(duration time.Duration) {
	t.delays = append(t.delays, duration)
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	t.ch = ch
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time {
	return t.ch
}

type fakeRunRepo struct {
	runs []domain.TaskRun
}

func (r *fakeRunRepo) RecordAttempt(ctx context.Context, run *domain.TaskRun) error {
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeRunRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TaskRun, error) {
	return r.runs, nil
}

type fakeReporter struct {
	reported []error
}

func (r *fakeReporter) Report(err error) {
	r.reported = append(r.reported, err)
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *capturingBus) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func runnerConfig() config.AutomationConfig {
	return config.AutomationConfig{
		MaxAttempts:           3,
		BackoffSeconds:        []int{60, 180, 600},
		AttemptTimeoutSeconds: 300,
	}
}

func testTask() domain.AutomationTask {
	return domain.AutomationTask{ID: "task1", TicketID: "t1", Type: domain.TaskReminder}
}

func newRunnerFixture(dispatcher Dispatcher) (*TaskRunner, *fakeRunRepo, *fakeReporter, *capturingBus, *fakeTimer) {
	runs := &fakeRunRepo{}
	reporter := &fakeReporter{}
	bus := &capturingBus{}
	timer := &fakeTimer{}
	runner := NewTaskRunner(dispatcher, runs, reporter, bus, nil, zap.NewNop(), runnerConfig()).
		WithTimer(timer)
	return runner, runs, reporter, bus, timer
}

func TestExecute_SucceedsFirstAttempt(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcome: domain.AutomationOutcome{
		TaskID: "task1", TicketID: "t1", Status: domain.OutcomeCompleted,
	}}
	runner, runs, reporter, bus, timer := newRunnerFixture(dispatcher)

	err := runner.Execute(context.Background(), testTask())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, dispatcher.attempts)
	assert.Empty(t, timer.delays)
	assert.Empty(t, reporter.reported)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, domain.TaskRunProcessed, runs.runs[0].Status)
	require.Len(t, bus.published, 1)
	assert.Equal(t, events.EventAutomationOutcome, bus.published[0].Type)
}

func TestExecute_RetriesThenSucceeds(t *testing.T) {
	dispatcher := &scriptedDispatcher{failUntil: 2, outcome: domain.AutomationOutcome{
		TaskID: "task1", TicketID: "t1", Status: domain.OutcomeCompleted,
		Warnings: []string{"notify assignee: mail down"},
	}}
	runner, runs, reporter, bus, timer := newRunnerFixture(dispatcher)

	err := runner.Execute(context.Background(), testTask())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, dispatcher.attempts)
	assert.Equal(t, []time.Duration{60 * time.Second, 180 * time.Second}, timer.delays)
	assert.Empty(t, reporter.reported)

	var failed int
	for _, run := range runs.runs {
		if run.Status == domain.TaskRunFailed {
			failed++
		}
	}
	assert.Zero(t, failed)
	final := runs.runs[len(runs.runs)-1]
	assert.Equal(t, domain.TaskRunProcessed, final.Status)
	assert.Equal(t, 3, final.Attempt)

	require.Len(t, bus.published, 1)
	payload := bus.published[0].Payload.(events.AutomationOutcomePayload)
	assert.Equal(t, []string{"notify assignee: mail down"}, payload.Warnings)
}

func TestExecute_ExhaustsAttempts(t *testing.T) {
	dispatcher := &scriptedDispatcher{failUntil: 3}
	runner, runs, reporter, bus, timer := newRunnerFixture(dispatcher)

	err := runner.Execute(context.Background(), testTask())
	require.EqualError(t, err, "boom 3")
	assert.Equal(t, []int{1, 2, 3}, dispatcher.attempts)
	assert.Equal(t, []time.Duration{60 * time.Second, 180 * time.Second}, timer.delays)

	require.Len(t, reporter.reported, 1)
	assert.EqualError(t, reporter.reported[0], "boom 3")

	final := runs.runs[len(runs.runs)-1]
	assert.Equal(t, domain.TaskRunFailed, final.Status)
	require.NotNil(t, final.LastError)
	assert.Equal(t, "boom 3", *final.LastError)
	assert.Empty(t, bus.published)
}

func TestExecute_RejectedNeverRetries(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcome: domain.AutomationOutcome{
		TaskID: "task1", TicketID: "t1",
		Status: domain.OutcomeRejected,
		Reason: domain.ReasonUnknownTaskType,
	}}
	runner, runs, reporter, bus, timer := newRunnerFixture(dispatcher)

	err := runner.Execute(context.Background(), testTask())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, dispatcher.attempts)
	assert.Empty(t, timer.delays)
	assert.Empty(t, reporter.reported)
	assert.Empty(t, bus.published)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, domain.TaskRunFailed, runs.runs[0].Status)
	require.NotNil(t, runs.runs[0].LastError)
	assert.Equal(t, domain.ReasonUnknownTaskType, *runs.runs[0].LastError)
}

func TestExecute_ContextCancelledStopsRetrying(t *testing.T) {
	dispatcher := &scriptedDispatcher{failUntil: 3}
	runner, _, _, _, _ := newRunnerFixture(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Execute(ctx, testTask())
	require.Error(t, err)
	assert.LessOrEqual(t, len(dispatcher.attempts), 1)
}

func TestScheduleBackOff(t *testing.T) {
	b := &scheduleBackOff{
		schedule:   []time.Duration{time.Minute, 3 * time.Minute, 10 * time.Minute},
		maxRetries: 2,
	}
	assert.Equal(t, time.Minute, b.NextBackOff())
	assert.Equal(t, 3*time.Minute, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())

	b.Reset()
	assert.Equal(t, time.Minute, b.NextBackOff())
}
