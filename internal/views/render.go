package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type AppData struct {
	Header       string
	LeftPane     string
	RightPane    string
	StatusLine   string
	Footer       string
	Notification string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	timerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderApp(data AppData) string {
	left := panelStyle.Width(58).Render(data.LeftPane)
	parts := []string{left}
	if strings.TrimSpace(data.RightPane) != "" {
		parts = append(parts, panelStyle.Width(58).Render(data.RightPane))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	status := statusStyle.Render(data.StatusLine)
	if strings.Contains(strings.ToLower(data.StatusLine), "error") {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
		status,
	}
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// Hours formats seconds as H:MM. Negative values render as 0:00.
func Hours(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// HoursCell is Hours with an empty string for zero, for sparse grids.
func HoursCell(seconds int64) string {
	if seconds <= 0 {
		return ""
	}
	return Hours(seconds)
}

// SyncLabel describes data freshness for the header.
func SyncLabel(syncedAt, now time.Time, fromCache, loading bool) string {
	var label string
	switch {
	case syncedAt.IsZero():
		label = "never synced"
	default:
		label = "synced " + humanize.RelTime(syncedAt, now, "ago", "from now")
	}
	if fromCache {
		label += " (cached)"
	}
	if loading {
		label += " | loading"
	}
	return label
}

// RangeLabel renders an inclusive date range such as "Feb 02 - Feb 08 2026".
func RangeLabel(start, end time.Time) string {
	if start.Year() != end.Year() {
		return start.Format("Jan 02 2006") + " - " + end.Format("Jan 02 2006")
	}
	return start.Format("Jan 02") + " - " + end.Format("Jan 02 2006")
}

func RenderTimer(running bool, clock string) string {
	if !running {
		return mutedStyle.Render("timer: stopped")
	}
	return "timer: " + timerStyle.Render(clock)
}
