// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// BACKEND RESULTS
// =============================================================================

// CompletionMsg carries the reply to one sent message.
type CompletionMsg struct {
	Epoch    uint64
	Input    string
	Response *api.CompletionResponse
	Err      error
}

// RecordOpMsg carries the server's answer to a save, delete or rename.
// Epoch is the session epoch the operation was issued in.
type RecordOpMsg struct {
	Epoch   uint64
	Op      string
	Name    string
	NewName string
	Message string
	Err     error
}

// ChatListMsg carries a fresh chat-record list.
type ChatListMsg struct {
	Chats []string
	Err   error
}

// ModelsMsg carries the model set advertised by the backend.
type ModelsMsg struct {
	Models  []string
	Default string
	Err     error
}

// LoadMsg carries a loaded chat record.
type LoadMsg struct {
	Name    string
	History model.History
	Err     error
}

// =============================================================================
// UI STATE
// =============================================================================

// tickMsg advances the busy spinner.
type tickMsg struct{}
