package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	NoProject = "no-project"
	NoTask    = "no-task"
)

var (
	ErrProjectRequired  = errors.New("model: project is required")
	ErrNegativeDuration = errors.New("model: duration must not be negative")
)

const dayLayout = "2006-01-02"

// TimeRecord is a single tracked span as returned by the backend.
// Duration is authoritative even when it disagrees with EndTime-StartTime.
type TimeRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ProjectID      string    `json:"project_id,omitempty"`
	TaskID         string    `json:"task_id,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Duration       int64     `json:"duration"`
	Date           string    `json:"date,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	ApprovalStatus string    `json:"approval_status,omitempty"`
}

// Day returns the record's calendar day as YYYY-MM-DD. Without a date
// field the start instant is read in its own zone; the api client fills
// Date with DayIn before records reach anything else.
func (r TimeRecord) Day() string {
	return r.DayIn(nil)
}

// DayIn is Day with the start instant read in loc when Date is missing.
func (r TimeRecord) DayIn(loc *time.Location) string {
	if len(r.Date) >= len(dayLayout) {
		head := r.Date[:len(dayLayout)]
		if _, err := time.Parse(dayLayout, head); err == nil {
			return head
		}
	}
	if r.StartTime.IsZero() {
		return ""
	}
	if loc != nil {
		return r.StartTime.In(loc).Format(dayLayout)
	}
	return r.StartTime.Format(dayLayout)
}

// Seconds is the duration used for summation; negative values count as zero.
func (r TimeRecord) Seconds() int64 {
	if r.Duration < 0 {
		return 0
	}
	return r.Duration
}

func (r TimeRecord) ProjectKey() string {
	if strings.TrimSpace(r.ProjectID) == "" {
		return NoProject
	}
	return r.ProjectID
}

func (r TimeRecord) TaskKey() string {
	if strings.TrimSpace(r.TaskID) == "" {
		return NoTask
	}
	return r.TaskID
}

func (r TimeRecord) Status() TimesheetStatus {
	if r.ApprovalStatus == "" {
		return TimesheetDraft
	}
	return TimesheetStatus(r.ApprovalStatus)
}

// ActiveTimer is the server-owned running timer of the current user.
type ActiveTimer struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	ProjectID string    `json:"project_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
}

// ManualEntry is the payload for creating or replacing a time entry.
type ManualEntry struct {
	ProjectID string    `json:"project_id"`
	TaskID    *string   `json:"task_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int64     `json:"duration"`
	Notes     string    `json:"notes"`
}

func (e ManualEntry) Validate() error {
	if strings.TrimSpace(e.ProjectID) == "" {
		return ErrProjectRequired
	}
	if e.Duration < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDuration, e.Duration)
	}
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return errors.New("model: start and end time are required")
	}
	return nil
}

// OptionalID maps an empty id to a JSON null.
func OptionalID(id string) *string {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return &id
}
