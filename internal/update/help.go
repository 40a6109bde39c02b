package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/punchcard/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Tracker, Action: "switch to Tracker"},
		{Key: m.Keys.Detailed, Action: "switch to Detailed"},
		{Key: m.Keys.Report, Action: "switch to Report"},
		{Key: m.Keys.Timesheets, Action: "switch to Timesheets"},
		{Key: m.Keys.Messages, Action: "switch to Messages"},
		{Key: "/", Action: "open command palette"},
		{Key: "S", Action: "sync with server"},
		{Key: "D", Action: "cycle density"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewTracker:
		out := []KeyBinding{
			{Key: "h/l", Action: "previous/next day"},
			{Key: "j/k", Action: "move entry cursor"},
			{Key: "H/L/t", Action: "previous/next/current week"},
			{Key: "n", Action: "log time on selected day"},
			{Key: "e", Action: "edit selected entry"},
			{Key: "c", Action: "copy selected entry to today"},
			{Key: "d", Action: "delete selected entry"},
			{Key: "x", Action: "stop running timer"},
		}
		if m.isAdmin() {
			out = append(out, KeyBinding{Key: "u", Action: "cycle user"})
		}
		return out
	case ViewDetailed:
		return []KeyBinding{
			{Key: "g", Action: "cycle grouping (day/week/month/project)"},
			{Key: "v", Action: "toggle week/month span"},
			{Key: "h/l/t", Action: "previous/next/current period"},
			{Key: "j/k", Action: "move bucket cursor"},
		}
	case ViewReport:
		return []KeyBinding{
			{Key: "v", Action: "toggle week/month span"},
			{Key: "h/l/t", Action: "previous/next/current period"},
			{Key: "j/k", Action: "scroll rows"},
		}
	case ViewTimesheets:
		if m.isAdmin() {
			return []KeyBinding{
				{Key: "tab", Action: "cycle status filter"},
				{Key: "enter", Action: "load entries"},
				{Key: "a", Action: "approve selected"},
			}
		}
		return []KeyBinding{
			{Key: "tab", Action: "cycle status filter"},
			{Key: "enter", Action: "load entries"},
			{Key: "s/r", Action: "submit / reopen selected"},
		}
	case ViewMessages:
		return []KeyBinding{
			{Key: "j/k", Action: "move conversation cursor"},
			{Key: "enter", Action: "open conversation"},
			{Key: "m", Action: "write a message"},
			{Key: "r", Action: "refresh thread"},
			{Key: "pgup/pgdown", Action: "scroll thread"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
