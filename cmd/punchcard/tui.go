package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/logging"
	"github.com/sandeepkv93/punchcard/internal/scheduler"
	"github.com/sandeepkv93/punchcard/internal/storage"
	"github.com/sandeepkv93/punchcard/internal/update"
)

// runTUI starts the full-screen client. The terminal belongs to bubbletea,
// so logs go to the configured file instead of stderr.
func (a *app) runTUI(ctx context.Context) error {
	logger, closer, err := logging.OpenFile(a.cfg.LogFile, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	a.logger = logger

	// A broken cache only costs the offline snapshot.
	var cache storage.Repository
	repo, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		logger.Warn("cache unavailable", "path", a.cfg.DBPath, "err", err)
	} else {
		defer repo.Close()
		cache = repo
	}

	engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	m := update.NewModel(update.Deps{
		Backend:        a.client,
		Cache:          cache,
		Scheduler:      engine,
		Logger:         logger,
		Notifier:       update.ExecDesktopNotifier{},
		DesktopEnabled: a.cfg.DesktopNotifications,
		Location:       a.cfg.Location,
		StatePath:      a.cfg.StatePath,
		Context:        ctx,
		Intervals: update.Intervals{
			Tick:        a.cfg.TickInterval,
			Heartbeat:   a.cfg.HeartbeatInterval,
			MessagePoll: a.cfg.MessagePollInterval,
			UnreadPoll:  a.cfg.UnreadPollInterval,
			Sync:        a.cfg.SyncInterval,
		},
	})
	logger.Info("tui starting", "api", a.cfg.APIURL)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
