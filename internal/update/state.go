package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandeepkv93/punchcard/internal/grouping"
)

// uiPrefs is what survives a restart: where the user was looking and how.
type uiPrefs struct {
	View      View          `json:"view,omitempty"`
	GroupMode grouping.Mode `json:"group_mode,omitempty"`
	Span      Span          `json:"span,omitempty"`
}

func (m *Model) persistPrefs() error {
	if strings.TrimSpace(m.stateFilePath) == "" {
		return nil
	}
	dir := filepath.Dir(m.stateFilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(uiPrefs{
		View:      m.CurrentView,
		GroupMode: m.Detailed.Mode,
		Span:      m.Range.Span,
	}, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.stateFilePath + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.stateFilePath)
}

func (m *Model) savePrefs() {
	if err := m.persistPrefs(); err != nil {
		m.logger.Warn("save ui state failed", "path", m.stateFilePath, "err", err)
	}
}

func loadPrefs(path string) (uiPrefs, error) {
	var out uiPrefs
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return out, nil
	}
	raw, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return uiPrefs{}, err
	}
	return out, nil
}

// applyPrefs restores saved values, ignoring anything no longer valid.
func (m *Model) applyPrefs(p uiPrefs) {
	if isKnownView(p.View) {
		m.CurrentView = p.View
	}
	if mode, err := grouping.ParseMode(string(p.GroupMode)); err == nil {
		m.Detailed.Mode = mode
	}
	if p.Span == SpanWeek || p.Span == SpanMonth {
		m.Range.Span = p.Span
	}
}
