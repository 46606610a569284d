// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the client.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	bodyHeight := m.height - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var main string
	if m.prompt != nil {
		width := m.width
		if m.showList() {
			width -= listWidth
		}
		main = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center,
			m.prompt.View(m.theme, width))
	} else {
		main = m.theme.Transcript.Render(m.transcript.View())
	}

	body := main
	if m.showList() {
		list := m.list
		body = lipgloss.JoinHorizontal(lipgloss.Top, list.View(m.theme, listWidth, bodyHeight), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("rigchat")
	modelName := m.theme.HeaderModel.Render(m.session.Model())

	record := m.session.RecordName()
	if record == "" {
		record = "new chat"
	}
	if m.session.IsDirty() {
		record += " *"
	}

	line := title + "  " + modelName + "  " + m.theme.ShortcutDesc.Render(record)
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) renderInput() string {
	box := m.theme.InputContainer
	if m.focus == FocusInput && m.prompt == nil {
		box = m.theme.InputFocused
	}
	return box.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatus() string {
	bindings := m.keys.InputHelp()
	if m.focus == FocusList {
		bindings = m.keys.ListHelp()
	}
	shortcuts := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		shortcuts = append(shortcuts, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}

	bar := m.status
	bar.Busy = m.pending > 0
	bar.Frame = m.frame
	bar.Shortcuts = shortcuts
	return bar.View(m.theme, m.width)
}

