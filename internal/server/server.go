// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the rigchat backend HTTP service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ollama"
	"github.com/jeranaias/rigchat/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// CodeFence marks a fenced code block.
	CodeFence = "```"

	// MaxMessageCount bounds the history accepted in one request.
	MaxMessageCount = 1000

	// modelListTimeout bounds the installed-model lookup behind /models.
	modelListTimeout = 3 * time.Second
)

// Version is reported by /health. main overrides it at start-up.
var Version = "dev"

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats counts completions since start.
type ServerStats struct {
	Completions int64
	Failures    int64
	StartTime   time.Time
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{StartTime: time.Now()}
}

// Uptime returns how long the server has been running.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Completer produces one assistant reply for a conversation.
// *ollama.Client satisfies it.
type Completer interface {
	ChatCompletion(ctx context.Context, model string, messages model.History) (string, error)
}

// ModelLister reports the models installed in the AI backend.
// *ollama.Client satisfies it.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Server is the rigchat backend.
type Server struct {
	cfg     config.ServerConfig
	store   *storage.RecordStore
	llm     Completer
	logger  *zap.Logger
	limiter *RateLimiter
	stats   *ServerStats

	router chi.Router
	server *http.Server
	closed bool
	mu     sync.Mutex
}

// New creates a Server. The store and completer are required.
func New(cfg config.ServerConfig, store *storage.RecordStore, llm Completer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		llm:    llm,
		logger: logger,
		stats:  NewServerStats(),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	s.setupRoutes()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))
	if s.limiter != nil {
		r.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	if s.cfg.MaxBodyBytes > 0 {
		r.Use(MaxBodyMiddleware(s.cfg.MaxBodyBytes))
	}

	r.Post(api.PathCompletion, s.handleCompletion)
	r.Post(api.PathSave, s.handleSave)
	r.Get(api.PathLoad+"{filename}", s.handleLoad)
	r.Delete(api.PathDelete+"{filename}", s.handleDelete)
	r.Post(api.PathRename+"{filename}", s.handleRename)
	r.Get(api.PathChats, s.handleList)
	r.Get(api.PathModels, s.handleModels)
	r.Get(api.PathHealth, s.handleHealth)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, messageBody("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageBody("Method not allowed"))
	})

	s.router = r
}

// ============================================================================
// CHAT TURN
// ============================================================================

// handleCompletion handles POST /get_ai_response.
func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req api.CompletionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.UserInput) == "" {
		writeJSON(w, http.StatusBadRequest, messageBody("user_input must not be empty"))
		return
	}
	if len(req.ConversationHistory) >= MaxMessageCount {
		writeJSON(w, http.StatusBadRequest, messageBody(fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount)))
		return
	}
	modelName := req.Model
	if modelName == "" {
		modelName = s.cfg.DefaultModel
	}
	if !model.Contains(s.cfg.Models, modelName) {
		writeJSON(w, http.StatusBadRequest, messageBody(fmt.Sprintf(
			"Unknown model '%s'. Valid models: %s", modelName, strings.Join(s.cfg.Models, ", "))))
		return
	}

	history := req.ConversationHistory.Append(model.UserMessage(req.UserInput))

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.UpstreamTimeout())
	defer cancel()

	start := time.Now()
	reply, err := s.llm.ChatCompletion(ctx, modelName, history)
	if err != nil {
		atomic.AddInt64(&s.stats.Failures, 1)
		s.logger.Error("COMPLETION_FAILED",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("model", modelName),
			zap.Int("messages", len(history)),
			zap.Error(err))
		status, text := upstreamError(modelName, err)
		writeJSON(w, status, messageBody(text))
		return
	}
	atomic.AddInt64(&s.stats.Completions, 1)

	if s.cfg.WrapCodeReplies {
		reply = WrapCodeReply(reply)
	}
	history = history.Append(model.AssistantMessage(reply))

	s.logger.Info("COMPLETION",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("model", modelName),
		zap.Int("messages", len(history)),
		zap.Int("reply_bytes", len(reply)),
		zap.Duration("duration", time.Since(start)))

	writeJSON(w, http.StatusOK, api.CompletionResponse{
		Response:            reply,
		ConversationHistory: history,
	})
}

// upstreamError maps a completion failure onto a status and message.
func upstreamError(modelName string, err error) (int, string) {
	switch {
	case ollama.IsNotRunning(err):
		return http.StatusServiceUnavailable, "AI backend is not running"
	case ollama.IsModelNotFound(err):
		return http.StatusBadGateway, fmt.Sprintf("Model '%s' is not installed in the AI backend", modelName)
	case ollama.IsTimeout(err):
		return http.StatusGatewayTimeout, "AI backend timed out"
	default:
		return http.StatusBadGateway, "AI backend error: " + err.Error()
	}
}

// WrapCodeReply wraps a reply that contains a code fence in one more fence,
// so the client renders the whole reply as a single code block.
func WrapCodeReply(reply string) string {
	if !strings.Contains(reply, CodeFence) {
		return reply
	}
	return CodeFence + "\n" + reply + "\n" + CodeFence
}

// ============================================================================
// CHAT RECORDS
// ============================================================================

// handleSave handles POST /save_chat.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req api.SaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	overwrite := s.store.Exists(req.Filename)
	if err := s.store.Save(req.Filename, req.ConversationHistory); err != nil {
		s.storeError(w, r, "save", req.Filename, err)
		return
	}
	s.logger.Info("CHAT_SAVED",
		zap.String("file", req.Filename),
		zap.Int("messages", len(req.ConversationHistory)),
		zap.Bool("overwrite", overwrite))
	writeJSON(w, http.StatusOK, messageBody("Chat saved successfully!"))
}

// handleLoad handles GET /load_chat/{filename}.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := filenameParam(r)
	history, err := s.store.Load(name)
	if err != nil {
		s.storeError(w, r, "load", name, err)
		return
	}
	writeJSON(w, http.StatusOK, api.LoadResponse{ConversationHistory: history})
}

// handleDelete handles DELETE /delete_chat/{filename}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := filenameParam(r)
	if err := s.store.Delete(name); err != nil {
		s.storeError(w, r, "delete", name, err)
		return
	}
	s.logger.Info("CHAT_DELETED", zap.String("file", name))
	writeJSON(w, http.StatusOK, messageBody(fmt.Sprintf("Chat record %s deleted!", name)))
}

// handleRename handles POST /rename_chat/{filename}.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	name := filenameParam(r)
	var req api.RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.store.Rename(name, req.NewFilename); err != nil {
		s.storeError(w, r, "rename", name, err)
		return
	}
	s.logger.Info("CHAT_RENAMED", zap.String("file", name), zap.String("new_file", req.NewFilename))
	writeJSON(w, http.StatusOK, messageBody(fmt.Sprintf("Chat record %s renamed to %s!", name, req.NewFilename)))
}

// handleList handles GET /chats.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		s.storeError(w, r, "list", "", err)
		return
	}
	writeJSON(w, http.StatusOK, api.ChatListResponse{Chats: names})
}

// ============================================================================
// DISCOVERY
// ============================================================================

// handleModels handles GET /models. When the AI backend can list its
// models, only configured models that are installed are offered.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := s.installedModels(r.Context())
	def := s.cfg.DefaultModel
	if len(models) > 0 && !model.Contains(models, def) {
		def = models[0]
	}
	writeJSON(w, http.StatusOK, api.ModelsResponse{Models: models, Default: def})
}

// installedModels filters the configured set down to installed models.
// It falls back to the full set when listing fails or nothing matches.
func (s *Server) installedModels(ctx context.Context) []string {
	configured := append([]string(nil), s.cfg.Models...)
	lister, ok := s.llm.(ModelLister)
	if !ok {
		return configured
	}

	ctx, cancel := context.WithTimeout(ctx, modelListTimeout)
	defer cancel()
	infos, err := lister.ListModels(ctx)
	if err != nil {
		s.logger.Debug("MODEL_LIST_FAILED", zap.Error(err))
		return configured
	}

	installed := make(map[string]bool, len(infos))
	for _, info := range infos {
		installed[info.Name] = true
	}
	var out []string
	for _, name := range configured {
		if installed[name] || installed[name+":latest"] {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return configured
	}
	return out
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names, _ := s.store.List()
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(s.stats.Uptime().Seconds()),
		Records:       len(names),
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.cfg.UpstreamTimeout() + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("SERVER_START",
		zap.String("addr", s.cfg.ListenAddr),
		zap.String("version", Version),
		zap.String("records_dir", s.cfg.RecordsDir),
		zap.Strings("models", s.cfg.Models))
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("SERVER_SHUTDOWN",
		zap.Int64("completions", atomic.LoadInt64(&s.stats.Completions)),
		zap.Int64("failures", atomic.LoadInt64(&s.stats.Failures)),
		zap.Duration("uptime", s.stats.Uptime()))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// filenameParam returns the {filename} route parameter, decoded.
// chi matches against RawPath when the request carried one.
func filenameParam(r *http.Request) string {
	name := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// decode reads a JSON body into v and writes a 400/413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				messageBody(fmt.Sprintf("Request body exceeds maximum size of %d bytes", tooLarge.Limit)))
			return false
		}
		s.logger.Debug("INVALID_BODY", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, messageBody("Invalid request format"))
		return false
	}
	return true
}

// storeError maps storage errors onto HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op, name string, err error) {
	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, messageBody("File not found!"))
	case errors.Is(err, storage.ErrRecordExists):
		writeJSON(w, http.StatusConflict, messageBody("A chat record with that name already exists!"))
	case errors.Is(err, storage.ErrInvalidFilename):
		writeJSON(w, http.StatusBadRequest, messageBody(err.Error()))
	default:
		s.logger.Error("STORE_ERROR",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("op", op),
			zap.String("file", name),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, messageBody("Failed to "+op+" chat record"))
	}
}

func messageBody(msg string) api.StatusResponse {
	return api.StatusResponse{Message: msg}
}

// writeJSON writes v as JSON with the given status. Non-ASCII text and
// HTML characters are written unescaped.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
