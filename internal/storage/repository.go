package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/punchcard/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository is the local snapshot of server data. It is only ever filled
// from server responses and never written back.
type Repository interface {
	ReplaceProjects(ctx context.Context, projects []model.Project) error
	ListProjects(ctx context.Context) ([]model.Project, error)

	ReplaceTasks(ctx context.Context, tasks []model.Task) error
	ListTasks(ctx context.Context, projectID string) ([]model.Task, error)

	ReplaceUsers(ctx context.Context, users []model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)

	ReplaceRecords(ctx context.Context, scope, startDay, endDay string, records []model.TimeRecord) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.TimeRecord, error)

	SaveSettings(ctx context.Context, s model.Settings) error
	LoadSettings(ctx context.Context) (model.Settings, error)

	SetMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, time.Time, error)
	MarkSynced(ctx context.Context, at time.Time) error
	LastSync(ctx context.Context) (time.Time, error)
}
