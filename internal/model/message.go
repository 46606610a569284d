// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat histories and messages.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Display labels shown in front of each transcript line.
const (
	UserLabel      = "you"
	AssistantLabel = "AI"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsUser reports whether the role is the local user.
func (r Role) IsUser() bool {
	return r == RoleUser
}

// Label returns the transcript label for the role.
// Anything that is not the user is shown as the assistant, including roles
// this client does not know about.
func (r Role) Label() string {
	if r.IsUser() {
		return UserLabel
	}
	return AssistantLabel
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn of a conversation as exchanged with the backend.
// It is stored and passed by value; nothing mutates a message after creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Label returns the transcript label for the message sender.
func (m Message) Label() string {
	return m.Role.Label()
}
