package model

import "time"

// Task is the persisted, data-only half of a unit of work: a shell command
// plus status, optional dependency, and timeout. Behaviour (Run, Terminate,
// the observation loop) lives in internal/task, which embeds this struct and
// adds a live process.Supervisor handle — the ephemeral Process described in
// SPEC_FULL.md §3 is never itself persisted.
type Task struct {
	ID            string        `json:"id"`
	QueueID       string        `json:"queue_id,omitempty"`
	Line          int           `json:"line"`
	Name          string        `json:"name,omitempty"`
	DependsOnID   string        `json:"depends_on_id,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	Command       string        `json:"command"`
	OutputPath    string        `json:"output_path,omitempty"`
	Stdout        string        `json:"stdout,omitempty"`
	Stderr        string        `json:"stderr,omitempty"`
	PID           int           `json:"pid,omitempty"`
	Status        TaskStatus    `json:"status"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clear resets a non-Processing task back to Created, nulling transient
// fields. This is the spec's only sanctioned terminal -> Created transition
// (§3 invariant 5), so it is implemented as a plain field reset rather than
// routed through CanTransitionTo.
func (t *Task) Clear() {
	t.Status = TaskCreated
	t.PID = 0
	t.StartedAt = nil
	t.EndedAt = nil
	t.Stdout = ""
	t.Stderr = ""
	t.UpdatedAt = time.Now().UTC()
}
