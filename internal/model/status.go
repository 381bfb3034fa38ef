package model

// TaskStatus is the lifecycle state of a Task. Values are assigned explicitly
// and shared in ordinal position with QueueStatus/ScheduleStatus where the
// concepts line up (Processing=1, Completed=2, Error last) so the Reactor's
// status-mapping table is a lookup, not a renumbering. See SPEC_FULL.md §3.
type TaskStatus int

const (
	TaskCreated TaskStatus = iota
	TaskProcessing
	TaskCompleted
	TaskError
	TaskTerminated
	TaskCanceled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskProcessing:
		return "processing"
	case TaskCompleted:
		return "completed"
	case TaskError:
		return "error"
	case TaskTerminated:
		return "terminated"
	case TaskCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsFinal reports whether s is a terminal Task status.
func (s TaskStatus) IsFinal() bool {
	switch s {
	case TaskCompleted, TaskError, TaskTerminated, TaskCanceled:
		return true
	default:
		return false
	}
}

// taskTransitions mirrors the teacher's ValidTransitions table, adapted to
// the spec's status set: Created may move to Processing, Terminated or
// Canceled; Processing may move to any terminal status; terminal statuses
// have no transitions, and only Clear() moves them back to Created.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskCreated:    {TaskProcessing, TaskTerminated, TaskCanceled},
	TaskProcessing: {TaskCompleted, TaskError, TaskTerminated, TaskCanceled},
	TaskCompleted:  {},
	TaskError:      {},
	TaskTerminated: {},
	TaskCanceled:   {},
}

// CanTransitionTo reports whether s may move directly to target via
// Transition. Clear() is exempt from this table by design (§3 invariant 5).
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, t := range taskTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// QueueStatus is the roll-up status of a Queue.
type QueueStatus int

const (
	QueueCreated QueueStatus = iota
	QueueProcessing
	QueueCompleted
	QueueStopped
	QueueTimeout
	QueueError
)

func (s QueueStatus) String() string {
	switch s {
	case QueueCreated:
		return "created"
	case QueueProcessing:
		return "processing"
	case QueueCompleted:
		return "completed"
	case QueueStopped:
		return "stopped"
	case QueueTimeout:
		return "timeout"
	case QueueError:
		return "error"
	default:
		return "unknown"
	}
}

// ScheduleStatus mirrors a Schedule's Queue per SPEC_FULL.md §4.6.
type ScheduleStatus int

const (
	ScheduleScheduled ScheduleStatus = iota
	ScheduleProcessing
	ScheduleCompleted
	ScheduleCanceled
	ScheduleTimeout
	ScheduleError
)

func (s ScheduleStatus) String() string {
	switch s {
	case ScheduleScheduled:
		return "scheduled"
	case ScheduleProcessing:
		return "processing"
	case ScheduleCompleted:
		return "completed"
	case ScheduleCanceled:
		return "canceled"
	case ScheduleTimeout:
		return "timeout"
	case ScheduleError:
		return "error"
	default:
		return "unknown"
	}
}

// ScheduleStatusForQueue implements the §4.6 mapping table.
func ScheduleStatusForQueue(q QueueStatus) (ScheduleStatus, bool) {
	switch q {
	case QueueProcessing:
		return ScheduleProcessing, true
	case QueueCompleted:
		return ScheduleCompleted, true
	case QueueError:
		return ScheduleError, true
	case QueueTimeout:
		return ScheduleTimeout, true
	case QueueStopped:
		return ScheduleCanceled, true
	default:
		return 0, false
	}
}
