package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/commands"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/timelog"
)

func (m *Model) openPalette(prefill string) {
	m.Palette.Active = true
	m.Palette.Input = prefill
	m.commandInput.Focus()
	m.commandInput.SetValue(prefill)
	m.commandInput.CursorEnd()
	m.Status = StatusBar{Text: "command palette active", IsError: false}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	// Handlers that reach the server leave their command here.
	var pending tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Start: func(a commands.StartArgs) (commands.Result, error) {
			project, task, err := m.resolveWork(a.Project, a.Task)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.startTimerCmd(project.ID, task.ID)
			return commands.Result{Message: "starting timer on " + project.Name}, nil
		},
		Stop: func(a commands.StopArgs) (commands.Result, error) {
			if !m.Timer.Running {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no timer running"}
			}
			pending = m.stopTimerCmd(a.Notes)
			return commands.Result{Message: "stopping timer"}, nil
		},
		Log: func(a commands.LogArgs) (commands.Result, error) {
			editor, entry, err := m.applyLog(timelog.NewEditor(""), a)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.saveEntryCmd(editor, entry)
			return commands.Result{Message: "saving entry"}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			rec, ok := m.findRecord(a.ID)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "unknown entry " + a.ID}
			}
			if err := editable(rec); err != nil {
				return commands.Result{}, err
			}
			editor, entry, err := m.applyLog(timelog.FromRecord(rec, m.loc), a.LogArgs)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.saveEntryCmd(editor, entry)
			return commands.Result{Message: fmt.Sprintf("updating entry %s (%s)", a.ID, editor.Duration)}, nil
		},
		Group: func(a commands.GroupArgs) (commands.Result, error) {
			m.Detailed.Mode = a.Mode
			m.Detailed.Cursor = 0
			m.CurrentView = ViewDetailed
			m.savePrefs()
			return commands.Result{Message: "grouped by " + string(a.Mode)}, nil
		},
		Week: func(a commands.WeekArgs) (commands.Result, error) {
			pending = m.moveRange(a.Offset)
			return commands.Result{Message: "showing " + m.rangeLabel()}, nil
		},
		View: func(a commands.ViewArgs) (commands.Result, error) {
			v, ok := viewByName(a.Name)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "unknown view " + a.Name}
			}
			var next Model
			next, pending = m.setView(v)
			m = next
			return commands.Result{Message: "view: " + a.Name}, nil
		},
		Submit: func(a commands.TimesheetArgs) (commands.Result, error) {
			if m.isAdmin() {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "admins review timesheets, they do not submit them"}
			}
			pending = m.submitCmd(a.ID)
			return commands.Result{Message: "submitting timesheet " + a.ID}, nil
		},
		Reopen: func(a commands.TimesheetArgs) (commands.Result, error) {
			pending = m.reopenCmd(a.ID)
			return commands.Result{Message: "reopening timesheet " + a.ID}, nil
		},
		Review: func(a commands.ReviewArgs) (commands.Result, error) {
			if !m.isAdmin() {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "only admins can review timesheets"}
			}
			review := model.Review{Status: model.TimesheetDenied, AdminComment: a.Comment}
			if a.Approve {
				review.Status = model.TimesheetApproved
			}
			if err := review.Validate(); err != nil {
				return commands.Result{}, err
			}
			pending = m.reviewCmd(a.ID, review)
			return commands.Result{Message: fmt.Sprintf("reviewing timesheet %s", a.ID)}, nil
		},
		Msg: func(a commands.MsgArgs) (commands.Result, error) {
			receiver := m.Chat.Peer.ID
			if receiver == "" {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "open a conversation first"}
			}
			pending = m.sendMessageCmd(receiver, a.Text)
			return commands.Result{Message: "sending message to " + m.Chat.Peer.Name}, nil
		},
		Refresh: func() (commands.Result, error) {
			var next Model
			next, pending = m.refreshAll()
			m = next
			return commands.Result{Message: "sync started"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	m.notify("Command", res.Message, "info")
	return m, pending
}

// resolveWork finds a project and optional task by id or name.
func (m Model) resolveWork(projectRef, taskRef string) (model.Project, model.Task, error) {
	project, ok := m.Catalog.FindProject(projectRef)
	if !ok {
		return model.Project{}, model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "unknown project " + projectRef}
	}
	if strings.TrimSpace(taskRef) == "" {
		return project, model.Task{}, nil
	}
	task, ok := m.Catalog.FindTask(project.ID, taskRef)
	if !ok {
		return model.Project{}, model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown task %s in %s", taskRef, project.Name)}
	}
	return project, task, nil
}

// applyLog writes the palette fields into editor and builds the payload.
func (m Model) applyLog(editor timelog.Editor, a commands.LogArgs) (timelog.Editor, model.ManualEntry, error) {
	date := a.Date
	switch date {
	case "today":
		date = calendar.DateKey(m.today())
	case "yesterday":
		date = calendar.DateKey(m.today().AddDate(0, 0, -1))
	}
	project, task, err := m.resolveWork(a.Project, a.Task)
	if err != nil {
		return editor, model.ManualEntry{}, err
	}
	editor.Date = date
	editor.ProjectID = project.ID
	editor.TaskID = task.ID
	editor.SetStart(a.Start)
	if a.Duration != "" {
		editor.SetDuration(a.Duration)
	} else {
		editor.SetEnd(a.End)
	}
	entry, err := editor.Entry(m.loc)
	return editor, entry, err
}

func (m Model) findRecord(id string) (model.TimeRecord, bool) {
	for _, rec := range m.Range.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.TimeRecord{}, false
}

// editable refuses entries whose timesheet is waiting for or past review.
func editable(rec model.TimeRecord) error {
	switch rec.Status() {
	case model.TimesheetApproved, model.TimesheetSubmitted:
		return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("entry is %s and cannot be changed", rec.Status())}
	}
	return nil
}

func viewByName(name string) (View, bool) {
	for _, v := range viewOrder {
		if strings.EqualFold(string(v), name) {
			return v, true
		}
	}
	return "", false
}
