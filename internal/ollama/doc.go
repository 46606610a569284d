// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client the rigchat backend uses to reach
// an Ollama server.
//
// Completions go through Ollama's OpenAI-compatible endpoint
// (/v1/chat/completions) without streaming; the model list comes from the
// native /api/tags endpoint.
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434",
//	})
//	reply, err := client.ChatCompletion(ctx, "llama3.1", history)
//	if ollama.IsModelNotFound(err) {
//	    // model not pulled
//	}
package ollama
