package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/punchcard/internal/model"
)

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
	return u, err
}

// Timer

func (c *Client) StartTimer(ctx context.Context, projectID, taskID string) (model.ActiveTimer, error) {
	body := map[string]*string{
		"project_id": model.OptionalID(projectID),
		"task_id":    model.OptionalID(taskID),
	}
	var active model.ActiveTimer
	err := c.do(ctx, http.MethodPost, "/timer/start", nil, body, &active)
	return active, err
}

func (c *Client) StopTimer(ctx context.Context, notes string) error {
	return c.do(ctx, http.MethodPost, "/timer/stop", nil, map[string]string{"notes": notes}, nil)
}

// ActiveTimer returns nil when no timer runs on the server.
func (c *Client) ActiveTimer(ctx context.Context) (*model.ActiveTimer, error) {
	var active *model.ActiveTimer
	if err := c.do(ctx, http.MethodGet, "/timer/active", nil, nil, &active); err != nil {
		return nil, err
	}
	if active != nil && active.StartTime.IsZero() {
		return nil, nil
	}
	return active, nil
}

func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/timer/heartbeat", nil, struct{}{}, nil)
}

func (c *Client) ActiveTimers(ctx context.Context) ([]model.ActiveTimerSummary, error) {
	out := make([]model.ActiveTimerSummary, 0)
	err := c.do(ctx, http.MethodGet, "/timers/active-list", nil, nil, &out)
	return out, err
}

// Time entries

type EntryFilter struct {
	StartDate string
	EndDate   string
	UserID    string
	ProjectID string
}

func (f EntryFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("start_date", f.StartDate)
	set("end_date", f.EndDate)
	set("user_id", f.UserID)
	set("project_id", f.ProjectID)
	return q
}

func (c *Client) TimeEntries(ctx context.Context, filter EntryFilter) ([]model.TimeRecord, error) {
	out := make([]model.TimeRecord, 0)
	err := c.do(ctx, http.MethodGet, "/time-entries", filter.values(), nil, &out)
	c.fillDates(out)
	return out, err
}

// fillDates sets Date from the start instant in the client zone where the
// backend left it out.
func (c *Client) fillDates(records []model.TimeRecord) {
	for i := range records {
		c.fillDate(&records[i])
	}
}

func (c *Client) fillDate(rec *model.TimeRecord) {
	if rec.Date == "" {
		rec.Date = rec.DayIn(c.loc)
	}
}

func (c *Client) CreateEntry(ctx context.Context, entry model.ManualEntry) (model.TimeRecord, error) {
	if err := entry.Validate(); err != nil {
		return model.TimeRecord{}, err
	}
	var rec model.TimeRecord
	err := c.do(ctx, http.MethodPost, "/time-entries/manual", nil, entry, &rec)
	c.fillDate(&rec)
	return rec, err
}

func (c *Client) UpdateEntry(ctx context.Context, id string, entry model.ManualEntry) (model.TimeRecord, error) {
	if err := entry.Validate(); err != nil {
		return model.TimeRecord{}, err
	}
	var rec model.TimeRecord
	err := c.do(ctx, http.MethodPut, "/time-entries/"+url.PathEscape(id), nil, entry, &rec)
	if rec.ID == "" {
		rec.ID = id
	}
	c.fillDate(&rec)
	return rec, err
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/time-entries/"+url.PathEscape(id), nil, nil, nil)
}

// Settings

func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	s := model.DefaultSettings()
	err := c.do(ctx, http.MethodGet, "/user/time-tracking-settings", nil, nil, &s)
	return s, err
}

func (c *Client) SaveSettings(ctx context.Context, s model.Settings) error {
	return c.do(ctx, http.MethodPut, "/user/time-tracking-settings", nil, s, nil)
}

// Reference data

func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	out := make([]model.Project, 0)
	err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &out)
	return out, err
}

func (c *Client) Tasks(ctx context.Context, projectID string) ([]model.Task, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	out := make([]model.Task, 0)
	err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0)
	err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

// ReferenceData loads projects and then every project's tasks concurrently.
// Users are only listed for admins; a failing users call is not fatal.
func (c *Client) ReferenceData(ctx context.Context, withUsers bool) (model.Catalog, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("load projects: %w", err)
	}

	perProject := make([][]model.Task, len(projects))
	var users []model.User
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range projects {
		g.Go(func() error {
			tasks, err := c.Tasks(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("load tasks for %s: %w", p.ID, err)
			}
			perProject[i] = tasks
			return nil
		})
	}
	if withUsers {
		g.Go(func() error {
			list, err := c.Users(gctx)
			if err != nil {
				c.logger.Warn("load users failed", "err", err)
				return nil
			}
			mu.Lock()
			users = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Catalog{}, err
	}

	catalog := model.Catalog{Projects: projects, Users: users, Tasks: make([]model.Task, 0)}
	for i, tasks := range perProject {
		for _, t := range tasks {
			if t.ProjectID == "" {
				t.ProjectID = projects[i].ID
			}
			catalog.Tasks = append(catalog.Tasks, t)
		}
	}
	return catalog, nil
}

// Timesheets

func (c *Client) Timesheets(ctx context.Context, status model.TimesheetStatus) ([]model.Timesheet, error) {
	q := url.Values{}
	if status != "" {
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
		}
		q.Set("status", string(status))
	}
	out := make([]model.Timesheet, 0)
	err := c.do(ctx, http.MethodGet, "/timesheets", q, nil, &out)
	return out, err
}

func (c *Client) SubmitTimesheet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/timesheets/submit", nil, map[string]string{"timesheet_id": id}, nil)
}

func (c *Client) TimesheetEntries(ctx context.Context, id string) ([]model.TimeRecord, error) {
	out := make([]model.TimeRecord, 0)
	err := c.do(ctx, http.MethodGet, "/timesheets/"+url.PathEscape(id)+"/entries", nil, nil, &out)
	c.fillDates(out)
	return out, err
}

func (c *Client) ReopenTimesheet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/timesheets/"+url.PathEscape(id)+"/reopen", nil, struct{}{}, nil)
}

func (c *Client) ReviewTimesheet(ctx context.Context, id string, review model.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/timesheets/"+url.PathEscape(id)+"/review", nil, review, nil)
}

// Messages

func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	out := make([]model.Conversation, 0)
	err := c.do(ctx, http.MethodGet, "/messages/conversations", nil, nil, &out)
	return out, err
}

// Admin returns the administrator employees message with.
func (c *Client) Admin(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/messages/admin", nil, nil, &u)
	return u, err
}

func (c *Client) Messages(ctx context.Context, userID string) ([]model.Message, error) {
	out := make([]model.Message, 0)
	err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(userID), nil, nil, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, receiverID, content string) (model.Message, error) {
	body := map[string]string{"receiver_id": receiverID, "content": content}
	var msg model.Message
	err := c.do(ctx, http.MethodPost, "/messages", nil, body, &msg)
	return msg, err
}

func (c *Client) MarkRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPut, "/messages/read/"+url.PathEscape(userID), nil, struct{}{}, nil)
}

// Dashboard and reports

func (c *Client) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	var s model.DashboardStats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, nil, &s)
	return s, err
}
