// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// CodeFence marks a message that should be shown as a code block.
const CodeFence = "```"

// =============================================================================
// STYLE HINTS
// =============================================================================

// StyleHint selects how the sender label of an entry is colored.
type StyleHint int

const (
	HintAssistant StyleHint = iota
	HintUser
)

// HintFor returns the hint for a message role.
func HintFor(role model.Role) StyleHint {
	if role.IsUser() {
		return HintUser
	}
	return HintAssistant
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one rendered line (or block) of the transcript.
type Entry struct {
	Sender string
	Text   string
	Hint   StyleHint
	Code   bool
}

// NewEntry builds a transcript entry. Text is sanitized first; if it then
// starts and ends with the fence marker, the markers are removed and the
// entry renders as a code block.
func NewEntry(sender, text string, hint StyleHint) Entry {
	text = Sanitize(text)
	body, code := StripFence(text)
	return Entry{
		Sender: Sanitize(sender),
		Text:   body,
		Hint:   hint,
		Code:   code,
	}
}

// EntryFromMessage builds the entry for a stored message using the role's
// label.
func EntryFromMessage(m model.Message) Entry {
	return NewEntry(m.Label(), m.Content, HintFor(m.Role))
}

// StripFence reports whether text is fenced and returns the body between
// the markers. Text shorter than two markers has an empty body.
func StripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, CodeFence) || !strings.HasSuffix(text, CodeFence) {
		return text, false
	}
	if len(text) < 2*len(CodeFence) {
		return "", true
	}
	return text[len(CodeFence) : len(text)-len(CodeFence)], true
}

// Sanitize removes terminal escape sequences and control characters other
// than newline and tab.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Plain returns the entry as uncolored text.
func (e Entry) Plain() string {
	if e.Code {
		return e.Sender + ":\n" + e.Text
	}
	return e.Sender + ": " + e.Text
}

// Render renders the entry for a transcript of the given width.
func (e Entry) Render(theme *styles.Theme, width int, codeStyle string) string {
	label := theme.AssistantLabel
	if e.Hint == HintUser {
		label = theme.UserLabel
	}
	sender := label.Render(e.Sender + ":")

	if e.Code {
		cb := NewCodeBlock(e.Text, codeStyle)
		cb.SetMaxWidth(width)
		return sender + "\n" + cb.Render(theme)
	}

	textWidth := width - lipgloss.Width(sender) - 1
	if textWidth < 10 {
		textWidth = 10
	}
	body := theme.MessageText.Width(textWidth).Render(e.Text)
	return lipgloss.JoinHorizontal(lipgloss.Top, sender, " ", body)
}
