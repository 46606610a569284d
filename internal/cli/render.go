// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/ui/components"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// Renderer turns a transcript entry into printable text.
type Renderer interface {
	Render(e components.Entry) string
}

// =============================================================================
// PLAIN
// =============================================================================

// PlainRenderer prints entries without color. Code blocks are indented.
type PlainRenderer struct{}

// Render implements Renderer.
func (PlainRenderer) Render(e components.Entry) string {
	if !e.Code {
		return e.Sender + ": " + e.Text
	}
	body := strings.Trim(e.Text, "\n")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return e.Sender + ":\n" + strings.Join(lines, "\n")
}

// =============================================================================
// MARKDOWN
// =============================================================================

// MarkdownRenderer renders message text as markdown with glamour.
type MarkdownRenderer struct {
	tr *glamour.TermRenderer

	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
}

// NewMarkdownRenderer creates a renderer wrapping at width. theme is a
// glamour standard style name ("dark", "light") or "auto".
func NewMarkdownRenderer(width int, theme string) (*MarkdownRenderer, error) {
	style := glamour.WithAutoStyle()
	if theme == styles.ThemeDark || theme == styles.ThemeLight {
		style = glamour.WithStandardStyle(theme)
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{
		tr:             tr,
		userLabel:      lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true),
		assistantLabel: lipgloss.NewStyle().Foreground(styles.Purple).Bold(true),
	}, nil
}

// Render implements Renderer. Falls back to plain output if glamour fails.
func (r *MarkdownRenderer) Render(e components.Entry) string {
	label := r.assistantLabel
	if e.Hint == components.HintUser {
		label = r.userLabel
	}

	md := e.Text
	if e.Code {
		md = components.CodeFence + "\n" + strings.Trim(e.Text, "\n") + "\n" + components.CodeFence
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return PlainRenderer{}.Render(e)
	}
	return label.Render(e.Sender+":") + "\n" + strings.TrimRight(out, "\n")
}

// DefaultRenderer picks markdown output for a color terminal and plain
// output otherwise.
func DefaultRenderer(theme string) Renderer {
	if !ColorEnabled() {
		return PlainRenderer{}
	}
	r, err := NewMarkdownRenderer(GetTerminalWidth()-2, theme)
	if err != nil {
		return PlainRenderer{}
	}
	return r
}
