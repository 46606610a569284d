// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/ui/components"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if !m.showList() && m.focus == FocusList {
			m.setFocus(FocusInput)
		}
		return m, nil

	case tickMsg:
		if m.pending == 0 {
			m.ticking = false
			return m, nil
		}
		m.frame++
		return m, tickCmd()

	case CompletionMsg:
		return m.handleCompletion(msg)

	case RecordOpMsg:
		return m.handleRecordOp(msg)

	case LoadMsg:
		return m.handleLoad(msg)

	case ChatListMsg:
		return m.handleChatList(msg)

	case ModelsMsg:
		return m.handleModels(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and other input internals.
	var cmd tea.Cmd
	if m.prompt != nil {
		p, _, c := m.prompt.Update(msg)
		m.prompt = &p
		cmd = c
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.NewChat):
		return m.NewChat()
	case key.Matches(msg, m.keys.Save):
		return m.SaveChatHistory()
	case key.Matches(msg, m.keys.SwitchModel):
		return m.SwitchModel()
	case key.Matches(msg, m.keys.Retry):
		return m.RetryLast()
	case key.Matches(msg, m.keys.Refresh):
		return m.RefreshChatList()
	case key.Matches(msg, m.keys.ToggleFocus):
		if m.focus == FocusInput && m.showList() {
			m.setFocus(FocusList)
		} else {
			m.setFocus(FocusInput)
		}
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.transcript.PageUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.transcript.PageDown()
		return m, nil
	}

	if m.focus == FocusList {
		return m.handleListKey(msg)
	}

	if key.Matches(msg, m.keys.Send) {
		return m.SendMessage()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.list.MoveUp()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.list.MoveDown()
		return m, nil
	}

	name, ok := m.list.Selected()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Load):
		return m.LoadChatRecord(name)
	case key.Matches(msg, m.keys.Delete):
		return m.DeleteChatRecord(name)
	case key.Matches(msg, m.keys.Rename):
		return m.RenameChatRecord(name)
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	p, outcome, cmd := m.prompt.Update(msg)
	switch outcome {
	case components.PromptSubmitted:
		m.prompt = nil
		return m.submitPrompt(p)
	case components.PromptCancelled:
		m.prompt = nil
		m.status.SetNotice(styles.NoticeInfo, "Cancelled")
		return m, nil
	}
	m.prompt = &p
	return m, cmd
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.list.SetFocused(f == FocusList)
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}
