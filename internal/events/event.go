// Package events implements the explicit pub/sub bus the Design Notes call
// for in place of hidden ORM signal registries (SPEC_FULL.md §4.6, §12):
// schedule creation, queue updates and task updates in the Store emit an
// Event carrying {entity, id, kind, changed fields}; the Schedule Reactor
// subscribes to react to it. Adapted from the
// teacher's internal/events package (github.com/maumercado/task-queue-go).
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind distinguishes a create from an update event.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
)

// EventType identifies what happened, scoped to the entities the Reactor
// cares about.
type EventType string

const (
	EventScheduleCreated     EventType = "schedule.created"
	EventQueueStatusChanged  EventType = "queue.status_changed"
	EventTaskStatusChanged   EventType = "task.status_changed"
)

// Event is a single change notification.
type Event struct {
	Type          EventType              `json:"type"`
	Entity        string                 `json:"entity"`
	ID            string                 `json:"id"`
	Kind          Kind                   `json:"kind"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// NewEvent builds an Event carrying the given changed fields.
func NewEvent(t EventType, entity, id string, kind Kind, changed map[string]interface{}) *Event {
	return &Event{
		Type:          t,
		Entity:        entity,
		ID:            id,
		Kind:          kind,
		ChangedFields: changed,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *Event) ToJSON() ([]byte, error) { return json.Marshal(e) }

func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Bus defines the transport between Store writes and the Reactor/admin
// observers.
type Bus interface {
	Publish(ctx context.Context, event *Event) error
	Subscribe(ctx context.Context, types ...EventType) (<-chan *Event, error)
	Close() error
}
