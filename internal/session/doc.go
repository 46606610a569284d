// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of one chat client session: the
// conversation history last acknowledged by the backend and the selected
// model.
//
// # Key Types
//
//   - Session: History, model selection and dirty tracking
//   - Turn: A pending chat turn, tagged with the epoch it was started in
//
// # Epochs
//
// Every NewChat and Load starts a new epoch. A reply carries the epoch of
// the turn that requested it; ApplyReply ignores replies from older epochs,
// so an answer that arrives after the user started over cannot bring the
// old conversation back. Within one epoch the last reply to arrive wins.
//
// # Usage
//
//	s := session.New(session.Config{})
//	turn, ok := s.BeginTurn(input)
//	if !ok {
//	    return // blank input
//	}
//	resp, err := client.Complete(ctx, turn.Request)
//	if err == nil {
//	    s.ApplyReply(turn.Epoch, resp.ConversationHistory)
//	}
package session
