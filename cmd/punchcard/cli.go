package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/punchcard/internal/api"
	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/commands"
	"github.com/sandeepkv93/punchcard/internal/config"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/timelog"
	"github.com/sandeepkv93/punchcard/internal/timer"
)

func (a *app) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <project> [task]",
		Short: "Start the timer on a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := a.client.ReferenceData(ctx, false)
			if err != nil {
				return err
			}
			project, task, err := resolveWork(catalog, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			active, err := a.client.StartTimer(ctx, project.ID, task.ID)
			if err != nil {
				return err
			}
			fmt.Printf("started %s at %s\n", workLabel(project, task), active.StartTime.In(a.cfg.Location).Format("15:04"))
			return nil
		},
	}
}

func (a *app) stopCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer and save the entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.StopTimer(cmd.Context(), notes); err != nil {
				return err
			}
			fmt.Println("timer stopped")
			return nil
		},
	}
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "notes for the saved entry")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				return a.teamStatus(ctx)
			}
			active, err := a.client.ActiveTimer(ctx)
			if err != nil {
				return err
			}
			if active == nil {
				fmt.Println("no timer running")
				return nil
			}
			catalog, err := a.client.ReferenceData(ctx, false)
			if err != nil {
				a.logger.Warn("reference data unavailable", "err", err)
			}
			elapsed := int64(time.Since(active.StartTime) / time.Second)
			fmt.Printf("%s on %s since %s\n",
				timer.Format(elapsed),
				catalog.ProjectName(active.ProjectID),
				active.StartTime.In(a.cfg.Location).Format("15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show dashboard totals and every running timer (admins)")
	return cmd
}

func (a *app) teamStatus(ctx context.Context) error {
	var (
		stats   model.DashboardStats
		running []model.ActiveTimerSummary
		catalog model.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = a.client.DashboardStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		running, err = a.client.ActiveTimers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if catalog, err = a.client.ReferenceData(gctx, true); err != nil {
			a.logger.Warn("reference data unavailable", "err", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	writeDashboard(os.Stdout, catalog, stats, running, time.Now(), a.cfg.Location)
	return nil
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the running timer and keep it alive with heartbeats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := timer.New(a.client, timer.WithLogger(a.logger))
			if err := r.Resume(ctx); err != nil {
				return err
			}
			if !r.State().Running {
				fmt.Println("no timer running")
				return nil
			}
			err := timer.Run(ctx, r, timer.RunConfig{Tick: a.cfg.TickInterval, Heartbeat: a.cfg.HeartbeatInterval}, func(st timer.State) {
				fmt.Printf("\r%s ", timer.Format(st.Elapsed))
			})
			fmt.Println()
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func (a *app) logCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "log <date> <start> <end|+H:MM> <project> [task]",
		Short: "Log a manual time entry",
		Long:  "Log a manual time entry. Date is YYYY-MM-DD, today or yesterday; times are HH:MM in the configured timezone.",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("log " + strings.Join(args, " "))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			catalog, err := a.client.ReferenceData(ctx, false)
			if err != nil {
				return err
			}
			entry, err := manualEntry(timelog.NewEditor(""), *parsed.Log, catalog, time.Now().In(a.cfg.Location), a.cfg.Location)
			if err != nil {
				return err
			}
			entry.Notes = notes
			rec, err := a.client.CreateEntry(ctx, entry)
			if err != nil {
				return err
			}
			fmt.Printf("logged %s on %s\n", timer.Format(rec.Seconds()), calendar.DateKey(entry.StartTime.In(a.cfg.Location)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "entry notes")
	return cmd
}

// rangeFlags are shared by the commands that read a range of entries.
type rangeFlags struct {
	offset  int
	span    string
	user    string
	project string
}

func (f *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.offset, "week", 0, "range offset from the current one, e.g. -1 for last week")
	cmd.Flags().StringVar(&f.span, "span", "week", "week or month")
	cmd.Flags().StringVar(&f.user, "user", "", "user id (admins only)")
	cmd.Flags().StringVar(&f.project, "project", "", "only this project (id or name)")
}

// fetch loads the records of the selected range along with the catalog
// used to name them.
func (a *app) fetch(ctx context.Context, f rangeFlags) (calendar.Range, []model.TimeRecord, model.Catalog, calendar.FirstDay, error) {
	settings, err := a.client.Settings(ctx)
	if err != nil {
		a.logger.Warn("settings unavailable, using defaults", "err", err)
		settings = model.DefaultSettings()
	}
	first := calendar.ParseFirstDay(settings.FirstDayOfWeek)
	rng, err := selectRange(time.Now().In(a.cfg.Location), first, f.span, f.offset)
	if err != nil {
		return calendar.Range{}, nil, model.Catalog{}, first, err
	}
	catalog, err := a.client.ReferenceData(ctx, f.user != "")
	if err != nil {
		return calendar.Range{}, nil, model.Catalog{}, first, err
	}
	filter := api.EntryFilter{StartDate: calendar.DateKey(rng.Start), EndDate: calendar.DateKey(rng.End()), UserID: f.user}
	if f.project != "" {
		project, ok := catalog.FindProject(f.project)
		if !ok {
			return calendar.Range{}, nil, model.Catalog{}, first, fmt.Errorf("unknown project %q", f.project)
		}
		filter.ProjectID = project.ID
	}
	records, err := a.client.TimeEntries(ctx, filter)
	if err != nil {
		return calendar.Range{}, nil, model.Catalog{}, first, err
	}
	return rng, grouping.Filter(records, rng), catalog, first, nil
}

func (a *app) entriesCmd() *cobra.Command {
	var (
		f  rangeFlags
		by string
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List tracked time grouped by day, week, month or project",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := grouping.ParseMode(by)
			if err != nil {
				return err
			}
			rng, records, catalog, first, err := a.fetch(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s\n", rangeTitle(rng))
			writeBuckets(os.Stdout, catalog, grouping.Group(records, mode, first))
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&by, "by", string(grouping.ModeDay), "day, week, month or project")
	cmd.AddCommand(a.editEntryCmd())
	return cmd
}

func (a *app) editEntryCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "edit <id> <date> <start> <end|+H:MM> <project> [task]",
		Short: "Replace the times and work of an existing entry",
		Long:  "Replace the times and work of an existing entry. The entry's notes are replaced by --notes.",
		Args:  cobra.MinimumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("edit " + strings.Join(args, " "))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			catalog, err := a.client.ReferenceData(ctx, false)
			if err != nil {
				return err
			}
			editor := timelog.Editor{EntryID: parsed.Edit.ID, Notes: notes}
			entry, err := manualEntry(editor, parsed.Edit.LogArgs, catalog, time.Now().In(a.cfg.Location), a.cfg.Location)
			if err != nil {
				return err
			}
			rec, err := a.client.UpdateEntry(ctx, parsed.Edit.ID, entry)
			if err != nil {
				return err
			}
			fmt.Printf("updated %s to %s on %s\n", rec.ID, timer.Format(rec.Seconds()), calendar.DateKey(entry.StartTime.In(a.cfg.Location)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "entry notes")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var f rangeFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the user / project / task report with a column per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, records, catalog, _, err := a.fetch(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s\n", rangeTitle(rng))
			writeReport(os.Stdout, catalog, grouping.BuildSheet(records, rng))
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) timesheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timesheets",
		Short: "List, submit, reopen and review weekly timesheets",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List timesheets with a status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := model.TimesheetStatus(strings.ToLower(status))
			if !st.IsValid() {
				return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
			}
			ctx := cmd.Context()
			items, err := a.client.Timesheets(ctx, st)
			if err != nil {
				return err
			}
			catalog, err := a.client.ReferenceData(ctx, true)
			if err != nil {
				a.logger.Warn("reference data unavailable", "err", err)
			}
			writeTimesheets(os.Stdout, catalog, items)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", string(model.TimesheetDraft), "draft, submitted, approved or denied")

	submit := &cobra.Command{
		Use:   "submit <id>",
		Short: "Submit a draft or denied timesheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.SubmitTimesheet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("timesheet %s submitted\n", args[0])
			return nil
		},
	}
	reopen := &cobra.Command{
		Use:   "reopen <id>",
		Short: "Move a timesheet back to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ReopenTimesheet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("timesheet %s reopened\n", args[0])
			return nil
		},
	}
	review := &cobra.Command{
		Use:   "review <id> approve|deny [comment]",
		Short: "Approve or deny a submitted timesheet (admins)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("review " + strings.Join(args, " "))
			if err != nil {
				return err
			}
			r := model.Review{Status: model.TimesheetDenied, AdminComment: parsed.Review.Comment}
			if parsed.Review.Approve {
				r.Status = model.TimesheetApproved
			}
			if err := r.Validate(); err != nil {
				return err
			}
			if err := a.client.ReviewTimesheet(cmd.Context(), parsed.Review.ID, r); err != nil {
				return err
			}
			fmt.Printf("timesheet %s %s\n", parsed.Review.ID, r.Status)
			return nil
		},
	}
	cmd.AddCommand(list, submit, reopen, review)
	return cmd
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the server-side user settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.Settings(cmd.Context())
			if err != nil {
				return err
			}
			a.printSettings(s)
			return nil
		},
	}

	var (
		firstDay string
		weekends bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the first day of the week or weekend work",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.client.Settings(ctx)
			if err != nil {
				return err
			}
			var w *bool
			if cmd.Flags().Changed("weekends") {
				w = &weekends
			}
			s, err = applySettings(s, firstDay, w)
			if err != nil {
				return err
			}
			if err := a.client.SaveSettings(ctx, s); err != nil {
				return err
			}
			a.printSettings(s)
			return nil
		},
	}
	set.Flags().StringVar(&firstDay, "first-day", "", "monday, sunday or saturday")
	set.Flags().BoolVar(&weekends, "weekends", false, "whether weekends are working days")
	cmd.AddCommand(set)
	return cmd
}

func (a *app) printSettings(s model.Settings) {
	fmt.Printf("first day of week: %s\nworking on weekends: %t\ntimezone: %s\n",
		calendar.ParseFirstDay(s.FirstDayOfWeek), s.WorkingOnWeekends, a.cfg.Timezone)
}

// applySettings changes the fields that were given. An empty firstDay and
// a nil weekends leave the current values alone.
func applySettings(s model.Settings, firstDay string, weekends *bool) (model.Settings, error) {
	if firstDay != "" {
		day := strings.ToLower(strings.TrimSpace(firstDay))
		switch day {
		case "monday", "sunday", "saturday":
			s.FirstDayOfWeek = day
		default:
			return s, fmt.Errorf("unknown first day %q, want monday, sunday or saturday", firstDay)
		}
	}
	if weekends != nil {
		s.WorkingOnWeekends = *weekends
	}
	return s, nil
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the punchcard config file",
		Annotations: map[string]string{"skipClient": "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write a config file with default values",
		Annotations: map[string]string{"skipClient": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				def, err := config.DefaultFile()
				if err != nil {
					return err
				}
				path = def
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})
	return cmd
}

func resolveWork(catalog model.Catalog, projectRef, taskRef string) (model.Project, model.Task, error) {
	project, ok := catalog.FindProject(projectRef)
	if !ok {
		return model.Project{}, model.Task{}, fmt.Errorf("unknown project %q", projectRef)
	}
	if strings.TrimSpace(taskRef) == "" {
		return project, model.Task{}, nil
	}
	task, ok := catalog.FindTask(project.ID, taskRef)
	if !ok {
		return model.Project{}, model.Task{}, fmt.Errorf("unknown task %q in %s", taskRef, project.Name)
	}
	return project, task, nil
}

// manualEntry applies parsed log arguments to editor. A draft editor yields
// a new entry, one carrying a backend id an update of that entry.
func manualEntry(editor timelog.Editor, args commands.LogArgs, catalog model.Catalog, now time.Time, loc *time.Location) (model.ManualEntry, error) {
	date := args.Date
	switch date {
	case "today":
		date = calendar.DateKey(now)
	case "yesterday":
		date = calendar.DateKey(now.AddDate(0, 0, -1))
	}
	project, task, err := resolveWork(catalog, args.Project, args.Task)
	if err != nil {
		return model.ManualEntry{}, err
	}
	editor.Date = date
	editor.ProjectID = project.ID
	editor.TaskID = task.ID
	editor.SetStart(args.Start)
	if args.Duration != "" {
		editor.SetDuration(args.Duration)
	} else {
		editor.SetEnd(args.End)
	}
	return editor.Entry(loc)
}

// selectRange returns the week or month containing now, moved by offset.
func selectRange(now time.Time, first calendar.FirstDay, span string, offset int) (calendar.Range, error) {
	switch strings.ToLower(span) {
	case "", "week":
		return calendar.WeekOf(now, first).Shift(offset), nil
	case "month":
		return calendar.MonthOf(calendar.MonthOf(now).Start.AddDate(0, offset, 0)), nil
	default:
		return calendar.Range{}, fmt.Errorf("unknown span %q, want week or month", span)
	}
}

func workLabel(p model.Project, t model.Task) string {
	if t.Name == "" {
		return p.Name
	}
	return p.Name + " / " + t.Name
}
