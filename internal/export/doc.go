// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation to a human-readable file.
//
// Two formats are supported: Markdown (.md) and plain text (.txt). The
// format is chosen from the output file extension.
//
//	path, err := export.ToFile(history, "notes.md", export.Meta{Model: "llama3.1"})
//
// Chat records themselves are JSON and are written by the backend; this
// package is only for sharing or archiving a transcript.
package export
