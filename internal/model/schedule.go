package model

import "time"

// ResizeSpec carries the optional post-record resize step's parameters.
// FOAR ("force original aspect ratio") is opaque data threaded through to
// the CommandBuilder untouched, per the Glossary.
type ResizeSpec struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FOAR   string `json:"foar,omitempty"`
}

// Schedule is a user-declared intent to record a Channel for Duration
// starting at StartTime, optionally followed by a resize step.
type Schedule struct {
	ID        string        `json:"id"`
	ChannelID string        `json:"channel_id"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Status    ScheduleStatus `json:"status"`
	QueueID   string        `json:"queue_id,omitempty"`
	Resize    *ResizeSpec   `json:"resize,omitempty"`
	UserRef   string        `json:"user_ref"`
	FileRef   string        `json:"file_ref,omitempty"`
	Terminate bool          `json:"terminate"`
	Log       string        `json:"log,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// EndTime is StartTime + Duration, used by the Recorder Supervisor's
// overextend check.
func (s *Schedule) EndTime() time.Time {
	return s.StartTime.Add(s.Duration)
}

// IsPassed reports whether StartTime is already behind now.
func (s *Schedule) IsPassed(now time.Time) bool {
	return s.StartTime.Before(now)
}

// AppendLog appends a timestamped separator line, grounded on
// original_source/recorder/models.py's Record.add_log.
func (s *Schedule) AppendLog(msg string) {
	ts := time.Now().UTC().Format(time.RFC3339)
	if s.Log != "" {
		s.Log += "\n"
	}
	s.Log += "---- " + ts + " ----\n" + msg
}
