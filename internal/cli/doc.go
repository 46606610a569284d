// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the launchers for each
// rigchat command.
//
// Commands:
//
//	rigchat [tui]     Full-screen chat client (default)
//	rigchat chat      Line-mode chat client
//	rigchat serve     Backend service
//	rigchat version   Print version information
//	rigchat help      Print usage
package cli
