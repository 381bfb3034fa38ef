package model

import "time"

// Queue is a data-only record of a Queue's roll-up state. Task membership
// and ordering live in internal/queue, which operates on the Task IDs
// referencing this Queue's ID via Task.QueueID.
type Queue struct {
	ID        string      `json:"id"`
	Status    QueueStatus `json:"status"`
	Timer     *time.Time  `json:"timer,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsDue reports whether the queue should start now: either it has no timer
// (meaning "now"), or the timer has already passed.
func (q *Queue) IsDue(now time.Time) bool {
	return q.Timer == nil || !q.Timer.After(now)
}

// IsOverdue reports whether the queue's timer is more than threshold in the
// past, meaning the Daemon should mark it Timeout instead of starting it.
func (q *Queue) IsOverdue(now time.Time, threshold time.Duration) bool {
	return q.Timer != nil && q.Timer.Before(now.Add(-threshold))
}
