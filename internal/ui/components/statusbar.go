// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar shows the latest notice, the busy spinner and key hints.
type StatusBar struct {
	Notice    string
	Level     styles.NoticeLevel
	Busy      bool
	Frame     int
	Shortcuts []Shortcut
}

// SetNotice replaces the notice.
func (s *StatusBar) SetNotice(level styles.NoticeLevel, text string) {
	s.Level = level
	s.Notice = Sanitize(text)
}

// ClearNotice removes the notice.
func (s *StatusBar) ClearNotice() {
	s.Notice = ""
}

// View renders the bar at the given width.
func (s StatusBar) View(theme *styles.Theme, width int) string {
	var left string
	if s.Busy {
		left = theme.Spinner.Render(styles.ThinkingSpinner.Frame(s.Frame)+" waiting for reply") + "  "
	}
	if s.Notice != "" {
		left += theme.RenderNotice(s.Level, s.Notice)
	}

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, theme.ShortcutKey.Render(sc.Key)+" "+theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	inner := width - theme.StatusBar.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room for hints; the notice wins.
		right = ""
		gap = inner - lipgloss.Width(left)
		if gap < 0 {
			gap = 0
		}
	}
	return theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
