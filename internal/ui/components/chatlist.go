// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CHAT RECORD LIST
// =============================================================================

// ChatList is the sidebar of stored chat records.
type ChatList struct {
	items   []string
	cursor  int
	current string
	focused bool
	offset  int
}

// NewChatList creates an empty list.
func NewChatList() ChatList {
	return ChatList{}
}

// SetItems replaces the list. The selection follows the previously
// selected name when it is still present.
func (l *ChatList) SetItems(items []string) {
	prev, hadPrev := l.Selected()
	l.items = append([]string(nil), items...)
	l.cursor = 0
	if hadPrev {
		for i, name := range l.items {
			if name == prev {
				l.cursor = i
				break
			}
		}
	}
	l.clamp()
}

// Items returns a copy of the listed names.
func (l ChatList) Items() []string {
	return append([]string(nil), l.items...)
}

// Selected returns the name under the cursor.
func (l ChatList) Selected() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	return l.items[l.cursor], true
}

// SetCurrent marks the record the session is showing.
func (l *ChatList) SetCurrent(name string) {
	l.current = name
}

// SetFocused sets whether the list has keyboard focus.
func (l *ChatList) SetFocused(focused bool) {
	l.focused = focused
}

// Focused reports whether the list has keyboard focus.
func (l ChatList) Focused() bool {
	return l.focused
}

// MoveUp moves the cursor up one item.
func (l *ChatList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown moves the cursor down one item.
func (l *ChatList) MoveDown() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

func (l *ChatList) clamp() {
	if l.cursor >= len(l.items) {
		l.cursor = len(l.items) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// View renders the list into a box of the given outer size.
func (l *ChatList) View(theme *styles.Theme, width, height int) string {
	box := theme.ChatList
	if l.focused {
		box = theme.ChatListFocused
	}

	inner := width - box.GetHorizontalFrameSize()
	if inner < 4 {
		inner = 4
	}
	rows := height - box.GetVerticalFrameSize() - 1
	if rows < 1 {
		rows = 1
	}

	// Keep the cursor visible.
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}

	var b strings.Builder
	b.WriteString(theme.ChatListTitle.Render(util.TruncateWidth("Chats", inner)))

	if len(l.items) == 0 {
		b.WriteString("\n")
		b.WriteString(theme.Placeholder.Render(util.TruncateWidth("(none saved)", inner)))
	}

	for i := l.offset; i < len(l.items) && i < l.offset+rows; i++ {
		name := util.TruncateWidth(l.items[i], inner-2)
		marker := "  "
		if l.items[i] == l.current {
			marker = "* "
		}
		style := theme.ChatItem
		switch {
		case i == l.cursor && l.focused:
			style = theme.ChatItemSelected
		case l.items[i] == l.current:
			style = theme.ChatItemCurrent
		}
		b.WriteString("\n")
		b.WriteString(style.Render(marker + name))
	}

	return box.
		Width(width - box.GetHorizontalBorderSize()).
		Height(height - box.GetVerticalBorderSize()).
		Render(b.String())
}
