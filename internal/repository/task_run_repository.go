package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// TaskRunRepository persists the execution state of automation tasks so that
// stuck tickets can be inspected manually.
type TaskRunRepository interface {
	RecordAttempt(ctx context.Context, run *domain.TaskRun) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TaskRun, error)
}

type taskRunRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRunRepository builds repository.
func NewTaskRunRepository(pool *pgxpool.Pool) TaskRunRepository {
	return &taskRunRepository{pool: pool}
}

// RecordAttempt upserts the run row keyed by task id, keeping the latest
// attempt counter, status, and error.
func (r *taskRunRepository) RecordAttempt(ctx context.Context, run *domain.TaskRun) error {
	const query = `
        INSERT INTO automation_task_runs (task_id, ticket_id, task_type, attempt, status, last_error)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (task_id) DO UPDATE
            SET attempt=EXCLUDED.attempt, status=EXCLUDED.status,
                last_error=EXCLUDED.last_error, updated_at=NOW()
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		run.TaskID,
		run.TicketID,
		run.TaskType,
		run.Attempt,
		run.Status,
		run.LastError,
	).Scan(&run.ID)
}

func (r *taskRunRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TaskRun, error) {
	const query = `
        SELECT id, task_id, ticket_id, task_type, attempt, status, last_error
        FROM automation_task_runs WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TaskRun
	for rows.Next() {
		var run domain.TaskRun
		if err := rows.Scan(
			&run.ID,
			&run.TaskID,
			&run.TicketID,
			&run.TaskType,
			&run.Attempt,
			&run.Status,
			&run.LastError,
		); err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}
