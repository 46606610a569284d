// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// MODAL PROMPT
// =============================================================================

// PromptKind selects between a text prompt and a yes/no confirmation.
type PromptKind int

const (
	PromptInput PromptKind = iota
	PromptConfirm
)

// PromptOutcome is the result of feeding a key to a prompt.
type PromptOutcome int

const (
	PromptPending PromptOutcome = iota
	PromptSubmitted
	PromptCancelled
)

// Prompt is a modal question. Purpose and Target are opaque to the prompt;
// the caller uses them to route the answer.
type Prompt struct {
	Kind    PromptKind
	Title   string
	Purpose string
	Target  string

	input textinput.Model
}

// NewInputPrompt creates a text prompt pre-filled with value.
func NewInputPrompt(title, value string) Prompt {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 255
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return Prompt{Kind: PromptInput, Title: title, input: ti}
}

// NewConfirmPrompt creates a yes/no prompt.
func NewConfirmPrompt(title string) Prompt {
	return Prompt{Kind: PromptConfirm, Title: title}
}

// Value returns the trimmed text of an input prompt.
func (p Prompt) Value() string {
	return strings.TrimSpace(p.input.Value())
}

// Update handles one message. Enter submits an input prompt and Esc
// cancels. A confirm prompt submits only on y; Enter and n cancel it.
func (p Prompt) Update(msg tea.Msg) (Prompt, PromptOutcome, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if p.Kind == PromptInput {
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return p, PromptPending, cmd
		}
		return p, PromptPending, nil
	}

	switch km.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return p, PromptCancelled, nil
	case tea.KeyEnter:
		if p.Kind == PromptConfirm {
			return p, PromptCancelled, nil
		}
		return p, PromptSubmitted, nil
	}

	if p.Kind == PromptConfirm {
		switch strings.ToLower(km.String()) {
		case "y":
			return p, PromptSubmitted, nil
		case "n":
			return p, PromptCancelled, nil
		}
		return p, PromptPending, nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, PromptPending, cmd
}

// View renders the prompt box.
func (p Prompt) View(theme *styles.Theme, width int) string {
	body := theme.PromptTitle.Render(p.Title)
	if p.Kind == PromptConfirm {
		body += "\n\n" + theme.ShortcutKey.Render("y") + theme.ShortcutDesc.Render(" yes  ") +
			theme.ShortcutKey.Render("n") + theme.ShortcutDesc.Render(" no")
	} else {
		p.input.Width = width - 12
		body += "\n\n" + p.input.View() + "\n\n" +
			theme.ShortcutKey.Render("Enter") + theme.ShortcutDesc.Render(" ok  ") +
			theme.ShortcutKey.Render("Esc") + theme.ShortcutDesc.Render(" cancel")
	}

	boxWidth := width - 4
	if boxWidth > 70 {
		boxWidth = 70
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.PromptBox.Width(boxWidth).Render(body))
}
