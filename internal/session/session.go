// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/model"
)

// ErrInvalidModel is returned when switching to a model outside the set.
var ErrInvalidModel = errors.New("invalid model")

// =============================================================================
// SESSION
// =============================================================================

// Config seeds a new session.
type Config struct {
	// Models is the selectable set (default: model.DefaultModels)
	Models []string

	// DefaultModel is selected initially (default: first of Models)
	DefaultModel string
}

// Session tracks the state of one client session. It is safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id string

	history model.History
	model   string
	models  []string

	epoch  uint64
	dirty  bool
	record string
}

// Turn is a chat turn ready to be sent.
type Turn struct {
	Epoch   uint64
	Request api.CompletionRequest
}

// New creates a session with an empty history.
func New(cfg Config) *Session {
	s := &Session{
		id: uuid.NewString(),
	}
	s.setModels(cfg.Models, cfg.DefaultModel)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns a copy of the current history.
func (s *Session) History() model.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone()
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Epoch returns the current epoch.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// BeginTurn trims input and, if anything is left, builds the completion
// request for it from the current history and model. The history itself is
// not changed until the reply is applied.
func (s *Session) BeginTurn(input string) (Turn, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Turn{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Turn{
		Epoch: s.epoch,
		Request: api.CompletionRequest{
			UserInput:           input,
			ConversationHistory: s.history.Clone(),
			Model:               s.model,
		},
	}, true
}

// ApplyReply replaces the history with the server's copy. Replies from an
// earlier epoch are dropped and reported as false.
func (s *Session) ApplyReply(epoch uint64, history model.History) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.history = history.Clone()
	s.dirty = true
	return true
}

// Reset clears the history and starts a new epoch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.epoch++
	s.dirty = false
	s.record = ""
}

// Load replaces the history with a stored record and starts a new epoch.
func (s *Session) Load(name string, history model.History) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history.Clone()
	s.epoch++
	s.dirty = false
	s.record = name
}

// =============================================================================
// DIRTY TRACKING
// =============================================================================

// MarkSaved records that the history was saved under name.
func (s *Session) MarkSaved(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
	s.record = name
}

// IsDirty reports whether the history has turns not yet saved.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// RecordName returns the record the history was last loaded from or saved
// to, or "" for a fresh conversation.
func (s *Session) RecordName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// ForgetRecord clears the record name if it matches, for after a delete.
func (s *Session) ForgetRecord(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == name {
		s.record = ""
	}
}

// RenameRecord follows a rename of the current record.
func (s *Session) RenameRecord(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == oldName {
		s.record = newName
	}
}

// =============================================================================
// MODEL SELECTION
// =============================================================================

// Model returns the selected model.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Models returns a copy of the selectable set.
func (s *Session) Models() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.models...)
}

// SwitchModel selects name if it is exactly a member of the set. On error
// the selection is unchanged.
func (s *Session) SwitchModel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !model.Contains(s.models, name) {
		return fmt.Errorf("%w '%s': choose one of %s", ErrInvalidModel, name, strings.Join(s.models, ", "))
	}
	s.model = name
	return nil
}

// SetModels replaces the selectable set, typically with the one the backend
// advertises. The current selection is kept when still valid; otherwise def
// (or the first model) is selected.
func (s *Session) SetModels(models []string, def string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setModels(models, def)
}

func (s *Session) setModels(models []string, def string) {
	clean := make([]string, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" && !model.Contains(clean, m) {
			clean = append(clean, m)
		}
	}
	if len(clean) == 0 {
		clean = append(clean, model.DefaultModels...)
		if def == "" {
			def = model.DefaultModel
		}
	}
	s.models = clean

	if s.model != "" && model.Contains(clean, s.model) {
		return
	}
	if model.Contains(clean, def) {
		s.model = def
	} else {
		s.model = clean[0]
	}
}
