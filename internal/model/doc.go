// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat histories and messages.
//
// This package defines the wire-level domain types shared by the client, the
// backend service and the record store.
//
// # Key Types
//
//   - Message: Single chat turn with a role and its text content
//   - Role: Message role enumeration (user, assistant)
//   - History: Ordered sequence of messages exchanged with the backend
//
// # Usage
//
//	var h model.History
//	h = h.Append(model.UserMessage("Hello!"))
//	for _, m := range h {
//	    fmt.Printf("%s: %s\n", m.Role.Label(), m.Content)
//	}
//
// Model identifiers are plain strings validated against a closed set:
//
//	if !model.Contains(model.DefaultModels, "qwen2.5") { ... }
package model
