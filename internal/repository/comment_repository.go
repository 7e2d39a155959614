package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// CommentRepository is the comment-append capability. Appending a comment
// also advances the ticket's last activity timestamp.
type CommentRepository interface {
	Append(ctx context.Context, comment *domain.TicketComment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Append(ctx context.Context, comment *domain.TicketComment) error {
	const insert = `
        INSERT INTO ticket_comments (ticket_id, author_type, author_ref, body, is_internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, insert,
		comment.TicketID,
		comment.AuthorType,
		comment.AuthorRef,
		comment.Body,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}

	const touch = `
        UPDATE tickets SET last_activity_at=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, touch, comment.CreatedAt, comment.TicketID)
	return err
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_ref, body, is_internal, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorType,
			&comment.AuthorRef,
			&comment.Body,
			&comment.IsInternal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
