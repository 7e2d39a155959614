package domain

import "time"

// CommentAuthorType indicates who authored a comment.
type CommentAuthorType string

const (
	AuthorTypeUser   CommentAuthorType = "USER"
	AuthorTypeStaff  CommentAuthorType = "STAFF"
	AuthorTypeSystem CommentAuthorType = "SYSTEM"
)

// TicketComment captures communications and automation annotations in a
// ticket thread.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorType CommentAuthorType
	AuthorRef  *string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
