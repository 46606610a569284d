// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "github.com/jeranaias/rigchat/internal/model"

// =============================================================================
// WIRE TYPES
// =============================================================================

// Endpoint paths served by the backend.
const (
	PathCompletion = "/get_ai_response"
	PathSave       = "/save_chat"
	PathLoad       = "/load_chat/"
	PathDelete     = "/delete_chat/"
	PathRename     = "/rename_chat/"
	PathChats      = "/chats"
	PathModels     = "/models"
	PathHealth     = "/health"
)

// CompletionRequest is the body of POST /get_ai_response.
type CompletionRequest struct {
	UserInput           string        `json:"user_input"`
	ConversationHistory model.History `json:"conversation_history"`
	Model               string        `json:"model"`
}

// CompletionResponse carries the assistant reply and the server's copy of
// the history, which already includes both the new user turn and the reply.
type CompletionResponse struct {
	Response            string        `json:"response"`
	ConversationHistory model.History `json:"conversation_history"`
}

// SaveRequest is the body of POST /save_chat.
type SaveRequest struct {
	Filename            string        `json:"filename"`
	ConversationHistory model.History `json:"conversation_history"`
}

// RenameRequest is the body of POST /rename_chat/{filename}.
type RenameRequest struct {
	NewFilename string `json:"new_filename"`
}

// LoadResponse is the body returned by GET /load_chat/{filename}.
type LoadResponse struct {
	ConversationHistory model.History `json:"conversation_history"`
}

// StatusResponse is the {message} body used for confirmations and errors.
type StatusResponse struct {
	Message string `json:"message"`
}

// ChatListResponse is the body returned by GET /chats.
type ChatListResponse struct {
	Chats []string `json:"chats"`
}

// ModelsResponse is the body returned by GET /models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Records       int    `json:"records"`
}
