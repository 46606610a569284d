// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat client for rigchat.

The package implements a terminal chat interface using the Bubble Tea
framework. It talks to a rigchat backend over HTTP through the api package
and keeps the conversation in a session.Session.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model. It owns the transcript, the
chat-record list, the input field and at most one modal prompt.

## Handlers (handlers.go)

Every user action is a method on Model:

	SendMessage       send the input line
	RetryLast         resend the last input that failed
	DisplayMessage    append a line or code block to the transcript
	NewChat           start an empty conversation
	SaveChatHistory   prompt for a name and save
	DeleteChatRecord  confirm and delete a record
	RenameChatRecord  prompt for a new name and rename a record
	LoadChatRecord    replace the conversation with a record
	SwitchModel       prompt for a model name
	RefreshChatList   re-fetch the record list
	RefreshModels     re-fetch the model set

Network calls run as tea.Cmd functions. Their results come back to Update as
messages, so all state changes happen on the event loop.

## Update Loop (update.go) and View (view.go)

Update routes keys to the focused pane or the open prompt. View lays out
the header, chat list, transcript, input and status bar.

# Usage

	client := api.NewClient("http://127.0.0.1:5000")
	m := chat.New(chat.Options{Backend: client})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
