// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the rigchat client's view of the backend: the JSON wire
// types shared with the server and an HTTP client for every endpoint.
//
// Every request carries a timeout and an X-Request-ID. Idempotent GETs are
// retried on connection failures and 5xx responses; POST and DELETE are
// never retried.
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: "http://127.0.0.1:5000"})
//	resp, err := client.Complete(ctx, api.CompletionRequest{
//	    UserInput: "hello",
//	    Model:     "llama3.1",
//	})
//	if api.IsConnection(err) {
//	    // backend down
//	}
package api
