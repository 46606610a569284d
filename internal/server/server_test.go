// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ollama"
	"github.com/jeranaias/rigchat/internal/storage"
)

// fakeCompleter records calls and returns a canned reply.
type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	model    string
	messages model.History

	installed []ollama.ModelInfo
	listErr   error
}

func (f *fakeCompleter) ChatCompletion(ctx context.Context, m string, msgs model.History) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = m
	f.messages = msgs.Clone()
	return f.reply, f.err
}

func (f *fakeCompleter) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return f.installed, f.listErr
}

func newTestServer(t *testing.T, llm *fakeCompleter, modify ...func(*config.ServerConfig)) (*Server, *storage.RecordStore) {
	t.Helper()
	cfg := config.Default().Server
	cfg.RecordsDir = t.TempDir()
	cfg.RateLimitRPS = 0
	for _, m := range modify {
		m(&cfg)
	}
	store, err := storage.NewRecordStore(cfg.RecordsDir, nil)
	require.NoError(t, err)
	srv := New(cfg, store, llm, zap.NewNop())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

// =============================================================================
// CHAT TURN TESTS
// =============================================================================

func TestCompletion_AppendsBothTurns(t *testing.T) {
	llm := &fakeCompleter{reply: "hi there"}
	srv, _ := newTestServer(t, llm)

	prior := model.History{model.UserMessage("earlier"), model.AssistantMessage("ok")}
	rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", api.CompletionRequest{
		UserInput:           "hello",
		ConversationHistory: prior,
		Model:               "qwen2.5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "hi there", resp.Response)
	want := prior.Append(model.UserMessage("hello"), model.AssistantMessage("hi there"))
	assert.Equal(t, want, resp.ConversationHistory)

	assert.Equal(t, "qwen2.5", llm.model)
	assert.Equal(t, prior.Append(model.UserMessage("hello")), llm.messages)
}

func TestCompletion_DefaultModel(t *testing.T) {
	llm := &fakeCompleter{reply: "x"}
	srv, _ := newTestServer(t, llm)

	rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", map[string]interface{}{
		"user_input":           "hello",
		"conversation_history": []interface{}{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "llama3.1", llm.model)
}

func TestCompletion_WrapsCodeReplies(t *testing.T) {
	reply := "Here:\n```go\nfmt.Println(1)\n```"
	llm := &fakeCompleter{reply: reply}
	srv, _ := newTestServer(t, llm)

	rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", api.CompletionRequest{UserInput: "code?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "```\n"+reply+"\n```", resp.Response)

	require.Len(t, resp.ConversationHistory, 2)
	assert.Equal(t, model.AssistantMessage(resp.Response), resp.ConversationHistory[1])
}

func TestCompletion_WrapDisabled(t *testing.T) {
	llm := &fakeCompleter{reply: "```x```"}
	srv, _ := newTestServer(t, llm, func(c *config.ServerConfig) { c.WrapCodeReplies = false })

	rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", api.CompletionRequest{UserInput: "q"})
	var resp api.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "```x```", resp.Response)
}

func TestWrapCodeReply(t *testing.T) {
	assert.Equal(t, "plain", WrapCodeReply("plain"))
	assert.Equal(t, "```\na ``` b\n```", WrapCodeReply("a ``` b"))
}

func TestCompletion_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		status int
		msg    string
	}{
		{"empty input", api.CompletionRequest{UserInput: "  "}, http.StatusBadRequest, "user_input must not be empty"},
		{"unknown model", api.CompletionRequest{UserInput: "hi", Model: "gpt-4"}, http.StatusBadRequest, "Unknown model 'gpt-4'"},
		{"bad json", "not an object", http.StatusBadRequest, "Invalid request format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			llm := &fakeCompleter{reply: "never"}
			srv, _ := newTestServer(t, llm)

			rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, message(t, rec), tc.msg)
			assert.Empty(t, llm.model, "upstream must not be called")
		})
	}
}

func TestCompletion_UpstreamFailure(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("connection refused")}
	srv, _ := newTestServer(t, llm)

	rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", api.CompletionRequest{UserInput: "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, message(t, rec), "connection refused")
	assert.EqualValues(t, 1, srv.stats.Failures)
}

func TestCompletion_UpstreamErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"not running", &ollama.ClientError{Type: ollama.ErrTypeNotRunning, Message: "dial tcp"}, http.StatusServiceUnavailable, "not running"},
		{"missing model", &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "model not found: qwen2.5"}, http.StatusBadGateway, "'qwen2.5' is not installed"},
		{"timeout", ollama.ErrTimeout, http.StatusGatewayTimeout, "timed out"},
		{"other", ollama.ErrEmptyReply, http.StatusBadGateway, "AI backend error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeCompleter{err: tt.err})
			rec := do(t, srv.Handler(), http.MethodPost, "/get_ai_response", api.CompletionRequest{UserInput: "hi", Model: "qwen2.5"})
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, message(t, rec), tt.want)
		})
	}
}

// =============================================================================
// CHAT RECORD TESTS
// =============================================================================

func TestRecords_Lifecycle(t *testing.T) {
	srv, store := newTestServer(t, &fakeCompleter{})
	h := srv.Handler()
	history := model.History{model.UserMessage("hi"), model.AssistantMessage("hello")}

	rec := do(t, h, http.MethodPost, "/save_chat", api.SaveRequest{Filename: "a.json", ConversationHistory: history})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chat saved successfully!", message(t, rec))
	assert.True(t, store.Exists("a.json"))

	rec = do(t, h, http.MethodGet, "/chats", nil)
	var list api.ChatListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"a.json"}, list.Chats)

	rec = do(t, h, http.MethodGet, "/load_chat/a.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded api.LoadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, history, loaded.ConversationHistory)

	rec = do(t, h, http.MethodPost, "/rename_chat/a.json", api.RenameRequest{NewFilename: "b.json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chat record a.json renamed to b.json!", message(t, rec))

	rec = do(t, h, http.MethodDelete, "/delete_chat/b.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chat record b.json deleted!", message(t, rec))

	rec = do(t, h, http.MethodGet, "/chats", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Chats)
	assert.NotNil(t, list.Chats)
}

func TestRecords_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{})
	h := srv.Handler()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/load_chat/missing.json"},
		{http.MethodDelete, "/delete_chat/missing.json"},
	} {
		rec := do(t, h, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "File not found!", message(t, rec))
	}

	rec := do(t, h, http.MethodPost, "/rename_chat/missing.json", api.RenameRequest{NewFilename: "x.json"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_RenameConflict(t *testing.T) {
	srv, store := newTestServer(t, &fakeCompleter{})
	require.NoError(t, store.Save("a.json", nil))
	require.NoError(t, store.Save("b.json", nil))

	rec := do(t, srv.Handler(), http.MethodPost, "/rename_chat/a.json", api.RenameRequest{NewFilename: "b.json"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, store.Exists("a.json"))
}

func TestRecords_RejectTraversal(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/save_chat", api.SaveRequest{Filename: "../evil.json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/load_chat/..%2Fevil.json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/rename_chat/a.json", api.RenameRequest{NewFilename: "sub/b.json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_EscapedFilenames(t *testing.T) {
	srv, store := newTestServer(t, &fakeCompleter{})
	h := srv.Handler()

	for _, name := range []string{"my chat.json", "聊天记录.json", "50%.json"} {
		require.NoError(t, store.Save(name, model.History{model.UserMessage(name)}))

		rec := do(t, h, http.MethodGet, "/load_chat/"+url.PathEscape(name), nil)
		require.Equal(t, http.StatusOK, rec.Code, name)

		var loaded api.LoadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
		require.Len(t, loaded.ConversationHistory, 1)
		assert.Equal(t, name, loaded.ConversationHistory[0].Content)
	}
}

// =============================================================================
// DISCOVERY TESTS
// =============================================================================

func TestModelsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{})
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/models", nil)
	var models api.ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, model.DefaultModels, models.Models)
	assert.Equal(t, "llama3.1", models.Default)

	rec = do(t, h, http.MethodGet, "/health", nil)
	var health api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
}

func TestModels_FilteredToInstalled(t *testing.T) {
	llm := &fakeCompleter{installed: []ollama.ModelInfo{
		{Name: "qwen2.5:latest"},
		{Name: "llama3.2"},
		{Name: "phi3:mini"},
	}}
	srv, _ := newTestServer(t, llm)

	rec := do(t, srv.Handler(), http.MethodGet, "/models", nil)
	var models api.ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, []string{"llama3.2", "qwen2.5"}, models.Models)
	assert.Equal(t, "llama3.2", models.Default, "default falls back to the first installed model")
}

func TestModels_ListFailureKeepsConfigured(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{listErr: ollama.ErrNotRunning})

	rec := do(t, srv.Handler(), http.MethodGet, "/models", nil)
	var models api.ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, model.DefaultModels, models.Models)
	assert.Equal(t, "llama3.1", models.Default)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{}, func(c *config.ServerConfig) {
		c.ListenAddr = "127.0.0.1:0"
	})
	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{})

	rec := do(t, srv.Handler(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", message(t, rec))

	rec = do(t, srv.Handler(), http.MethodGet, "/save_chat", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{}, func(c *config.ServerConfig) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 2
	})
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMaxBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeCompleter{}, func(c *config.ServerConfig) { c.MaxBodyBytes = 1024 })

	rec := do(t, srv.Handler(), http.MethodPost, "/save_chat", api.SaveRequest{
		Filename:            "big.json",
		ConversationHistory: model.History{model.UserMessage(strings.Repeat("x", 4096))},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"untrusted peer ignores xff", "203.0.113.5:1234", "1.2.3.4", "", "203.0.113.5"},
		{"trusted proxy xff", "127.0.0.1:1234", "1.2.3.4, 10.0.0.1", "", "1.2.3.4"},
		{"trusted proxy xri", "10.1.2.3:80", "", "5.6.7.8", "5.6.7.8"},
		{"invalid xff falls back", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"no port", "203.0.113.9", "", "", "203.0.113.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			assert.Equal(t, tc.want, GetClientIP(r))
		})
	}
}
