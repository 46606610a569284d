// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the rigchat
// client: transcript entries and the scrolling transcript, fenced code
// blocks, the chat-record list, the modal prompt and the status bar.
//
// Components hold no network state. The chat controller feeds them data and
// renders them in its View.
package components
