package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

func TestFirstResponseOverdue(t *testing.T) {
	created := baseTime
	due := created.Add(time.Hour)
	responded := created.Add(30 * time.Minute)

	tests := []struct {
		name            string
		firstResponseAt *time.Time
		deadline        *time.Time
		now             time.Time
		want            bool
	}{
		{"past deadline, no response", nil, &due, created.Add(2 * time.Hour), true},
		{"before deadline, no response", nil, &due, created.Add(30 * time.Minute), false},
		{"exactly at deadline", nil, &due, due, false},
		{"responded long ago, far past deadline", &responded, &due, created.Add(100 * time.Hour), false},
		{"no deadline configured", nil, nil, created.Add(1000 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &domain.Ticket{CreatedAt: created, FirstResponseAt: tt.firstResponseAt}
			deadlines := Deadlines{FirstResponseDueAt: tt.deadline}
			assert.Equal(t, tt.want, FirstResponseOverdue(ticket, deadlines, tt.now))
		})
	}
}

func TestResolutionOverdue(t *testing.T) {
	created := baseTime
	due := created.Add(24 * time.Hour)
	resolved := created.Add(2 * time.Hour)

	tests := []struct {
		name       string
		resolvedAt *time.Time
		deadline   *time.Time
		now        time.Time
		want       bool
	}{
		{"past deadline, unresolved", nil, &due, created.Add(48 * time.Hour), true},
		{"before deadline, unresolved", nil, &due, created.Add(time.Hour), false},
		{"resolved, far past deadline", &resolved, &due, created.Add(500 * time.Hour), false},
		{"no deadline configured", nil, nil, created.Add(500 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &domain.Ticket{CreatedAt: created, ResolvedAt: tt.resolvedAt}
			deadlines := Deadlines{ResolutionDueAt: tt.deadline}
			assert.Equal(t, tt.want, ResolutionOverdue(ticket, deadlines, tt.now))
		})
	}
}
