// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigchat packages.
//
// # Key Functions
//
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - TruncateWidth: Display-width aware truncation with ellipsis
//   - TruncateRunes: UTF-8 safe truncation by character count
//
// # Usage
//
//	// Write chat records atomically to prevent torn files
//	err := util.AtomicWriteFile(path, data, 0644)
//
//	// Fit a record name into a sidebar column
//	label := util.TruncateWidth(name, 24)
package util
