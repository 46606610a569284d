// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/components"
	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

const recordExt = ".json"

// =============================================================================
// MESSAGING
// =============================================================================

// SendMessage sends the input line. Blank input does nothing.
func (m Model) SendMessage() (Model, tea.Cmd) {
	if strings.TrimSpace(m.input.Value()) == "" {
		return m, nil
	}
	text := m.input.Value()
	m.input.Reset()
	return m.send(text)
}

// RetryLast resends the input of the last failed send.
func (m Model) RetryLast() (Model, tea.Cmd) {
	if m.lastFailed == "" {
		m.status.SetNotice(styles.NoticeInfo, "Nothing to retry")
		return m, nil
	}
	return m.send(m.lastFailed)
}

func (m Model) send(text string) (Model, tea.Cmd) {
	turn, ok := m.session.BeginTurn(text)
	if !ok {
		return m, nil
	}

	m.DisplayMessage(model.UserLabel, turn.Request.UserInput, components.HintUser)
	m.lastFailed = ""
	m.status.ClearNotice()
	m.pending++

	m.logger.Debug("CHAT_SEND",
		zap.String("session_id", m.session.ID()),
		zap.String("model", turn.Request.Model),
		zap.String("preview", util.TruncateRunes(turn.Request.UserInput, 40)),
		zap.Int("history_len", len(turn.Request.ConversationHistory)))

	cmd := tea.Batch(m.completeCmd(turn), m.startTicking())
	return m, cmd
}

// DisplayMessage appends a line to the transcript and scrolls to it. Fenced
// text is shown as a code block.
func (m *Model) DisplayMessage(sender, text string, hint components.StyleHint) {
	m.transcript.Append(components.NewEntry(sender, text, hint))
}

func (m Model) handleCompletion(msg CompletionMsg) (Model, tea.Cmd) {
	if msg.Epoch != m.session.Epoch() {
		m.logger.Debug("CHAT_REPLY_DISCARDED", zap.Uint64("epoch", msg.Epoch))
		return m, nil
	}
	if m.pending > 0 {
		m.pending--
	}

	if msg.Err != nil {
		m.lastFailed = msg.Input
		m.logger.Warn("CHAT_SEND_FAILED",
			zap.Stringer("error_type", api.TypeOf(msg.Err)),
			zap.Error(msg.Err))
		text := errorText(msg.Err)
		if api.IsTimeout(msg.Err) {
			text = fmt.Sprintf("No reply within %s", m.timeout)
		}
		m.status.SetNotice(styles.NoticeError, text+" (Ctrl+R to retry)")
		return m, nil
	}
	if msg.Response == nil || !m.session.ApplyReply(msg.Epoch, msg.Response.ConversationHistory) {
		return m, nil
	}

	m.DisplayMessage(model.AssistantLabel, msg.Response.Response, components.HintAssistant)
	return m, nil
}

// NewChat clears the conversation, the transcript and the input. Replies
// still in flight are discarded when they arrive.
func (m Model) NewChat() (Model, tea.Cmd) {
	m.session.Reset()
	m.transcript.Clear()
	m.input.Reset()
	m.pending = 0
	m.lastFailed = ""
	m.list.SetCurrent("")
	m.status.SetNotice(styles.NoticeInfo, "New chat started")
	return m, nil
}

// =============================================================================
// CHAT RECORDS
// =============================================================================

// SaveChatHistory asks for a record name and saves the conversation under it.
func (m Model) SaveChatHistory() (Model, tea.Cmd) {
	value := strings.Replace(m.session.RecordName(), recordExt, "", 1)
	p := components.NewInputPrompt("Chat record file name (without extension):", value)
	p.Purpose = purposeSave
	m.prompt = &p
	return m, nil
}

// DeleteChatRecord asks for confirmation and deletes filename.
func (m Model) DeleteChatRecord(filename string) (Model, tea.Cmd) {
	p := components.NewConfirmPrompt(fmt.Sprintf("Delete chat record %s?", filename))
	p.Purpose = purposeDelete
	p.Target = filename
	m.prompt = &p
	return m, nil
}

// RenameChatRecord asks for a new name for filename.
func (m Model) RenameChatRecord(filename string) (Model, tea.Cmd) {
	p := components.NewInputPrompt(
		fmt.Sprintf("New name for %s (without extension):", filename),
		strings.Replace(filename, recordExt, "", 1))
	p.Purpose = purposeRename
	p.Target = filename
	m.prompt = &p
	return m, nil
}

// LoadChatRecord fetches filename and replaces the conversation with it.
func (m Model) LoadChatRecord(filename string) (Model, tea.Cmd) {
	backend, timeout := m.backend, m.timeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		history, err := backend.LoadChat(ctx, filename)
		return LoadMsg{Name: filename, History: history, Err: err}
	}
}

func (m Model) handleLoad(msg LoadMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("CHAT_LOAD_FAILED", zap.String("file", msg.Name), zap.Error(msg.Err))
		m.status.SetNotice(styles.NoticeError, errorText(msg.Err))
		return m, m.refreshIfGone(msg.Err)
	}

	m.session.Load(msg.Name, msg.History)
	m.transcript.Clear()
	for _, entry := range msg.History {
		m.transcript.Append(components.EntryFromMessage(entry))
	}
	m.pending = 0
	m.lastFailed = ""
	m.list.SetCurrent(msg.Name)
	m.status.SetNotice(styles.NoticeSuccess, "Loaded "+msg.Name)
	return m, nil
}

func (m Model) handleRecordOp(msg RecordOpMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("CHAT_RECORD_OP_FAILED",
			zap.String("op", msg.Op),
			zap.String("file", msg.Name),
			zap.Error(msg.Err))
		m.status.SetNotice(styles.NoticeError, errorText(msg.Err))
		return m, m.refreshIfGone(msg.Err)
	}

	// A reply from before NewChat or a load must not relabel the
	// conversation now on screen; the list still changed on the server.
	if msg.Epoch == m.session.Epoch() {
		switch msg.Op {
		case purposeSave:
			m.session.MarkSaved(msg.Name)
		case purposeDelete:
			m.session.ForgetRecord(msg.Name)
		case purposeRename:
			m.session.RenameRecord(msg.Name, msg.NewName)
		}
		m.list.SetCurrent(m.session.RecordName())
	}
	m.status.SetNotice(styles.NoticeSuccess, msg.Message)
	return m, m.chatListCmd()
}

// refreshIfGone re-fetches the list when the backend no longer has a record
// the list still shows.
func (m Model) refreshIfGone(err error) tea.Cmd {
	if api.IsNotFound(err) {
		return m.chatListCmd()
	}
	return nil
}

// RefreshChatList re-fetches the chat-record list.
func (m Model) RefreshChatList() (Model, tea.Cmd) {
	return m, m.chatListCmd()
}

func (m Model) handleChatList(msg ChatListMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("CHAT_LIST_FAILED", zap.Error(msg.Err))
		m.status.SetNotice(styles.NoticeWarning, "Could not refresh chat list: "+errorText(msg.Err))
		return m, nil
	}
	m.list.SetItems(msg.Chats)
	return m, nil
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// SwitchModel asks for a model name and selects it if it is valid.
func (m Model) SwitchModel() (Model, tea.Cmd) {
	p := components.NewInputPrompt(
		fmt.Sprintf("Model (%s):", strings.Join(m.session.Models(), ", ")),
		m.session.Model())
	p.Purpose = purposeModel
	m.prompt = &p
	return m, nil
}

// RefreshModels re-fetches the model set from the backend.
func (m Model) RefreshModels() (Model, tea.Cmd) {
	return m, m.modelsCmd()
}

func (m Model) handleModels(msg ModelsMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("CHAT_MODELS_FAILED", zap.Error(msg.Err))
		m.status.SetNotice(styles.NoticeWarning, "Using built-in model list: "+errorText(msg.Err))
		return m, nil
	}
	m.session.SetModels(msg.Models, msg.Default)
	return m, nil
}

// =============================================================================
// PROMPT ANSWERS
// =============================================================================

func (m Model) submitPrompt(p components.Prompt) (Model, tea.Cmd) {
	switch p.Purpose {
	case purposeSave:
		name := p.Value()
		if name == "" {
			m.status.SetNotice(styles.NoticeInfo, "Save cancelled")
			return m, nil
		}
		return m, m.saveCmd(name+recordExt, m.session.History())

	case purposeDelete:
		return m, m.deleteCmd(p.Target)

	case purposeRename:
		name := p.Value()
		if name == "" {
			m.status.SetNotice(styles.NoticeInfo, "Rename cancelled")
			return m, nil
		}
		return m, m.renameCmd(p.Target, name+recordExt)

	case purposeModel:
		name := p.Value()
		if name == "" {
			return m, nil
		}
		if err := m.session.SwitchModel(name); err != nil {
			m.status.SetNotice(styles.NoticeError, err.Error())
			return m, nil
		}
		m.logger.Info("CHAT_MODEL_SWITCHED", zap.String("model", name))
		m.status.SetNotice(styles.NoticeSuccess, "Model switched to "+m.session.Model())
	}
	return m, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) completeCmd(turn session.Turn) tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.Complete(ctx, turn.Request)
		return CompletionMsg{
			Epoch:    turn.Epoch,
			Input:    turn.Request.UserInput,
			Response: resp,
			Err:      err,
		}
	}
}

func (m Model) saveCmd(filename string, history model.History) tea.Cmd {
	backend, timeout, epoch := m.backend, m.timeout, m.session.Epoch()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := backend.SaveChat(ctx, filename, history)
		return RecordOpMsg{Epoch: epoch, Op: purposeSave, Name: filename, Message: text, Err: err}
	}
}

func (m Model) deleteCmd(filename string) tea.Cmd {
	backend, timeout, epoch := m.backend, m.timeout, m.session.Epoch()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := backend.DeleteChat(ctx, filename)
		return RecordOpMsg{Epoch: epoch, Op: purposeDelete, Name: filename, Message: text, Err: err}
	}
}

func (m Model) renameCmd(filename, newFilename string) tea.Cmd {
	backend, timeout, epoch := m.backend, m.timeout, m.session.Epoch()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := backend.RenameChat(ctx, filename, newFilename)
		return RecordOpMsg{Epoch: epoch, Op: purposeRename, Name: filename, NewName: newFilename, Message: text, Err: err}
	}
}

func (m Model) chatListCmd() tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		chats, err := backend.ListChats(ctx)
		return ChatListMsg{Chats: chats, Err: err}
	}
}

func (m Model) modelsCmd() tea.Cmd {
	backend, timeout := m.backend, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.ListModels(ctx)
		if err != nil {
			return ModelsMsg{Err: err}
		}
		return ModelsMsg{Models: resp.Models, Default: resp.Default}
	}
}

// startTicking starts the spinner unless it is already running.
func (m *Model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(styles.ThinkingSpinner.Duration(), func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// errorText returns the user-facing part of err.
func errorText(err error) string {
	var cerr *api.ClientError
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	return err.Error()
}
