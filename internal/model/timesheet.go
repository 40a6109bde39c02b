package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid timesheet status")
	ErrCommentRequired = errors.New("model: comment is required when denying a timesheet")
)

type TimesheetStatus string

const (
	TimesheetDraft     TimesheetStatus = "draft"
	TimesheetSubmitted TimesheetStatus = "submitted"
	TimesheetApproved  TimesheetStatus = "approved"
	TimesheetDenied    TimesheetStatus = "denied"
)

func (s TimesheetStatus) IsValid() bool {
	switch s {
	case TimesheetDraft, TimesheetSubmitted, TimesheetApproved, TimesheetDenied:
		return true
	default:
		return false
	}
}

type Timesheet struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	WeekStart    string          `json:"week_start"`
	WeekEnd      string          `json:"week_end"`
	Status       TimesheetStatus `json:"status"`
	TotalHours   float64         `json:"total_hours"`
	AdminComment string          `json:"admin_comment,omitempty"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
}

// Review is an admin decision on a submitted timesheet.
type Review struct {
	Status       TimesheetStatus `json:"status"`
	AdminComment string          `json:"admin_comment"`
}

func (r Review) Validate() error {
	if r.Status != TimesheetApproved && r.Status != TimesheetDenied {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if r.Status == TimesheetDenied && strings.TrimSpace(r.AdminComment) == "" {
		return ErrCommentRequired
	}
	return nil
}

type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Client string `json:"client,omitempty"`
}

type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

type Settings struct {
	FirstDayOfWeek    string `json:"first_day_of_week"`
	WorkingOnWeekends bool   `json:"working_on_weekends"`
}

func DefaultSettings() Settings {
	return Settings{FirstDayOfWeek: "monday"}
}

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"receiver_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

type Conversation struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	UnreadCount int    `json:"unread_count"`
	LastMessage string `json:"last_message,omitempty"`
}

type DashboardStats struct {
	TodaySeconds   int64 `json:"today_seconds"`
	WeekSeconds    int64 `json:"week_seconds"`
	ActiveTimers   int   `json:"active_timers"`
	PendingReviews int   `json:"pending_reviews"`
}

type ActiveTimerSummary struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	ProjectID string    `json:"project_id,omitempty"`
	StartTime time.Time `json:"start_time"`
}

// Catalog indexes projects and tasks for display lookups.
type Catalog struct {
	Projects []Project
	Tasks    []Task
	Users    []User
}

func (c Catalog) ProjectName(id string) string {
	if id == "" || id == NoProject {
		return "No project"
	}
	for _, p := range c.Projects {
		if p.ID == id {
			return p.Name
		}
	}
	return "Project " + id
}

func (c Catalog) TaskName(id string) string {
	if id == "" || id == NoTask {
		return "No task"
	}
	for _, t := range c.Tasks {
		if t.ID == id {
			return t.Name
		}
	}
	return "Task " + id
}

func (c Catalog) UserName(id string) string {
	for _, u := range c.Users {
		if u.ID == id {
			return u.Name
		}
	}
	if id == "" {
		return "Unknown user"
	}
	return id
}

// FindProject resolves a project by id or case-insensitive name.
func (c Catalog) FindProject(ref string) (Project, bool) {
	ref = strings.TrimSpace(ref)
	for _, p := range c.Projects {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return Project{}, false
}

// FindTask resolves a task of the given project by id or name.
func (c Catalog) FindTask(projectID, ref string) (Task, bool) {
	ref = strings.TrimSpace(ref)
	for _, t := range c.Tasks {
		if t.ProjectID != projectID {
			continue
		}
		if t.ID == ref || strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	return Task{}, false
}

func (c Catalog) TasksFor(projectID string) []Task {
	out := make([]Task, 0)
	for _, t := range c.Tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}
