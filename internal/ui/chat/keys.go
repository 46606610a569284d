// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat client.
type KeyMap struct {
	Send        key.Binding
	NewChat     key.Binding
	Save        key.Binding
	SwitchModel key.Binding
	Retry       key.Binding
	Refresh     key.Binding
	ToggleFocus key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding

	// Chat list only
	Up     key.Binding
	Down   key.Binding
	Load   key.Binding
	Delete key.Binding
	Rename key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^N", "new"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^S", "save"),
		),
		SwitchModel: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^T", "model"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^R", "retry"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^L", "refresh"),
		),
		ToggleFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "chats"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^C", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		Load: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "load"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
	}
}

// InputHelp returns the bindings shown while the input has focus.
func (k KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Save, k.SwitchModel, k.ToggleFocus, k.Quit}
}

// ListHelp returns the bindings shown while the chat list has focus.
func (k KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Load, k.Delete, k.Rename, k.Refresh, k.ToggleFocus, k.Quit}
}
