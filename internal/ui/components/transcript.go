// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the scrolling list of displayed entries. It is a value type
// like the Bubble Tea models that embed it.
type Transcript struct {
	entries   []Entry
	viewport  viewport.Model
	theme     *styles.Theme
	codeStyle string
}

// NewTranscript creates an empty transcript.
func NewTranscript(theme *styles.Theme, codeStyle string) Transcript {
	return Transcript{
		viewport:  viewport.New(80, 20),
		theme:     theme,
		codeStyle: codeStyle,
	}
}

// Append adds an entry and scrolls to it.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	t.refresh()
	t.viewport.GotoBottom()
}

// Clear removes every entry.
func (t *Transcript) Clear() {
	t.entries = nil
	t.refresh()
	t.viewport.GotoTop()
}

// Entries returns a copy of the displayed entries.
func (t Transcript) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t Transcript) Len() int {
	return len(t.entries)
}

// PlainText returns every entry as uncolored text, one per line.
func (t Transcript) PlainText() string {
	lines := make([]string, len(t.entries))
	for i, e := range t.entries {
		lines[i] = e.Plain()
	}
	return strings.Join(lines, "\n")
}

// SetSize resizes the viewport and re-wraps the content.
func (t *Transcript) SetSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	atBottom := t.viewport.AtBottom()
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
	if atBottom {
		t.viewport.GotoBottom()
	}
}

// PageUp scrolls up one page.
func (t *Transcript) PageUp() {
	t.viewport.ViewUp()
}

// PageDown scrolls down one page.
func (t *Transcript) PageDown() {
	t.viewport.ViewDown()
}

// AtBottom reports whether the newest entry is visible.
func (t Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

// View renders the visible part of the transcript.
func (t Transcript) View() string {
	return t.viewport.View()
}

func (t *Transcript) refresh() {
	if len(t.entries) == 0 {
		t.viewport.SetContent(t.theme.Placeholder.Render("No messages yet. Type below and press Enter."))
		return
	}
	rendered := make([]string, len(t.entries))
	for i, e := range t.entries {
		rendered[i] = e.Render(t.theme, t.viewport.Width, t.codeStyle)
	}
	t.viewport.SetContent(strings.Join(rendered, "\n"))
}
