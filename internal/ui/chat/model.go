// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/components"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// Backend is the subset of the api client the chat model uses.
type Backend interface {
	Complete(ctx context.Context, req api.CompletionRequest) (*api.CompletionResponse, error)
	SaveChat(ctx context.Context, filename string, history model.History) (string, error)
	DeleteChat(ctx context.Context, filename string) (string, error)
	RenameChat(ctx context.Context, filename, newFilename string) (string, error)
	LoadChat(ctx context.Context, filename string) (model.History, error)
	ListChats(ctx context.Context) ([]string, error)
	ListModels(ctx context.Context) (*api.ModelsResponse, error)
}

// Focus identifies the pane receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusList
)

// Prompt purposes.
const (
	purposeSave   = "save"
	purposeDelete = "delete"
	purposeRename = "rename"
	purposeModel  = "model"
)

const (
	listWidth      = 28
	minListLayout  = 70
	defaultTimeout = 5 * time.Minute
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat model.
type Options struct {
	Backend Backend

	// Session is created from FallbackModels and DefaultModel when nil.
	Session        *session.Session
	FallbackModels []string
	DefaultModel   string

	Logger    *zap.Logger
	Theme     string
	CodeStyle string

	// RequestTimeout bounds each backend call (default: 5m)
	RequestTimeout time.Duration
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	backend Backend
	session *session.Session
	logger  *zap.Logger
	theme   *styles.Theme
	keys    KeyMap
	timeout time.Duration

	// Dimensions
	width  int
	height int

	// Components
	transcript components.Transcript
	list       components.ChatList
	input      textinput.Model
	status     components.StatusBar
	prompt     *components.Prompt
	focus      Focus

	// Requests in flight that show the spinner
	pending int
	frame   int
	ticking bool

	// Input of the last failed send, for RetryLast
	lastFailed string

	quitting bool
}

// New creates a chat model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(session.Config{
			Models:       opts.FallbackModels,
			DefaultModel: opts.DefaultModel,
		})
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	theme := styles.NewTheme(opts.Theme)

	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	m := Model{
		backend:    opts.Backend,
		session:    sess,
		logger:     logger,
		theme:      theme,
		keys:       DefaultKeyMap(),
		timeout:    timeout,
		width:      80,
		height:     24,
		transcript: components.NewTranscript(theme, opts.CodeStyle),
		list:       components.NewChatList(),
		input:      ti,
		focus:      FocusInput,
	}
	m.layout()
	return m
}

// Init fetches the model set and the chat list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.modelsCmd(), m.chatListCmd())
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Session returns the session the model drives.
func (m Model) Session() *session.Session {
	return m.session
}

// Transcript returns the displayed transcript.
func (m Model) Transcript() components.Transcript {
	return m.transcript
}

// ChatList returns the chat-record list.
func (m Model) ChatList() components.ChatList {
	return m.list
}

// InputValue returns the current input text.
func (m Model) InputValue() string {
	return m.input.Value()
}

// SetInput replaces the input text.
func (m *Model) SetInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// Notice returns the status-bar notice and its level.
func (m Model) Notice() (string, styles.NoticeLevel) {
	return m.status.Notice, m.status.Level
}

// ActivePrompt returns the open prompt, if any.
func (m Model) ActivePrompt() (components.Prompt, bool) {
	if m.prompt == nil {
		return components.Prompt{}, false
	}
	return *m.prompt, true
}

// Busy reports whether a message is awaiting its reply.
func (m Model) Busy() bool {
	return m.pending > 0
}

// Focus returns the focused pane.
func (m Model) Focus() Focus {
	return m.focus
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) showList() bool {
	return m.width >= minListLayout
}

func (m *Model) layout() {
	// header 1, input 2, status 1, transcript border 2
	h := m.height - 6
	w := m.width - 2
	if m.showList() {
		w -= listWidth
	}
	m.transcript.SetSize(w, h)
	m.input.Width = w - 4
}
