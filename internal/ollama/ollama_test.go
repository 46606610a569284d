// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	if c.BaseURL() != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	if c.config.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v", c.config.Timeout)
	}
}

// =============================================================================
// CHAT COMPLETION TESTS
// =============================================================================

func TestChatCompletion_Success(t *testing.T) {
	var got CompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(CompletionResponse{
			Choices: []Choice{{Message: model.AssistantMessage("hi there")}},
		})
	})

	history := model.History{model.UserMessage("hello")}
	reply, err := c.ChatCompletion(context.Background(), "llama3.1", history)
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if reply != "hi there" {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "llama3.1" || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestChatCompletion_NilHistorySendsEmptyArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		if string(raw["messages"]) != "[]" {
			t.Errorf("messages = %s, want []", raw["messages"])
		}
		json.NewEncoder(w).Encode(CompletionResponse{Choices: []Choice{{}}})
	})

	if _, err := c.ChatCompletion(context.Background(), "llama3.1", nil); err != nil {
		t.Fatal(err)
	}
}

func TestChatCompletion_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "model not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"model \"x\" not found"}}`, http.StatusNotFound)
			},
			check: IsModelNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"message":"boom"}}`))
			},
			check: func(err error) bool {
				ce, ok := err.(*ClientError)
				return ok && ce.Type == ErrTypeInvalidResponse && ce.Message == "completion failed: 500 Internal Server Error (boom)"
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
			check: func(err error) bool { return err == ErrEmptyReply },
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			check: func(err error) bool {
				ce, ok := err.(*ClientError)
				return ok && ce.Type == ErrTypeInvalidResponse
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.ChatCompletion(context.Background(), "x", nil)
			if err == nil || !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestChatCompletion_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: time.Second})
	_, err := c.ChatCompletion(context.Background(), "llama3.1", nil)
	if !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

func TestChatCompletion_Timeout(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ChatCompletion(ctx, "llama3.1", nil)
	if !IsTimeout(err) {
		t.Errorf("expected timeout, got %v", err)
	}
}

// =============================================================================
// MODEL LIST TESTS
// =============================================================================

func TestListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"models":[{"name":"llama3.1:latest","size":4661224676},{"name":"qwen2.5:latest"}]}`))
	})

	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3.1:latest" {
		t.Errorf("models = %+v", models)
	}
}

func TestCheckRunning(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning: %v", err)
	}
}
