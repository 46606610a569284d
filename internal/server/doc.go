// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the rigchat backend: a small JSON HTTP service
// that relays chat turns to Ollama and keeps named chat records on disk.
//
// # Endpoints
//
//   - POST   /get_ai_response       - Run one chat turn
//   - POST   /save_chat             - Save a history under a filename
//   - GET    /load_chat/{filename}  - Load a saved history
//   - DELETE /delete_chat/{filename} - Delete a saved history
//   - POST   /rename_chat/{filename} - Rename a saved history
//   - GET    /chats                 - List saved histories
//   - GET    /models                - Selectable models and the default
//   - GET    /health                - Liveness and uptime
//
// Every error response is {"message": "..."}.
//
// # Usage
//
//	srv := server.New(cfg.Server, store, ollamaClient, logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
