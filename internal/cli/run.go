// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/ollama"
	"github.com/jeranaias/rigchat/internal/server"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/storage"
	"github.com/jeranaias/rigchat/internal/ui/chat"
)

const shutdownTimeout = 10 * time.Second

// newBackendClient builds the HTTP client for the configured backend.
func newBackendClient(cfg *config.Config) *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:    cfg.Client.BackendURL,
		Timeout:    cfg.Client.Timeout(),
		MaxRetries: cfg.Client.MaxRetries,
		RetryDelay: cfg.Client.RetryDelay(),
	})
}

// RunTUI starts the full-screen chat client.
func RunTUI(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if !IsTTY() {
		return errors.New("the full-screen client needs a terminal; use 'rigchat chat' instead")
	}
	m := chat.New(chat.Options{
		Backend:        newBackendClient(cfg),
		FallbackModels: cfg.Client.Models,
		DefaultModel:   cfg.Client.DefaultModel,
		Logger:         logger,
		Theme:          cfg.UI.Theme,
		CodeStyle:      cfg.UI.CodeStyle,
		RequestTimeout: cfg.Client.Timeout(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat client: %w", err)
	}
	return nil
}

// RunChat starts the line-mode chat client.
func RunChat(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var renderer Renderer = PlainRenderer{}
	if cfg.UI.Markdown && IsStdoutTTY() {
		renderer = DefaultRenderer(cfg.UI.Theme)
	}

	lc := NewLineChat(LineChatOptions{
		Backend: newBackendClient(cfg),
		Session: session.New(session.Config{
			Models:       cfg.Client.Models,
			DefaultModel: cfg.Client.DefaultModel,
		}),
		Out:      os.Stdout,
		Renderer: renderer,
		Logger:   logger,
		Timeout:  cfg.Client.Timeout(),
	})

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	}
	return lc.Run(ctx, historyFile)
}

// RunServe runs the backend until ctx is cancelled.
func RunServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := storage.NewRecordStore(cfg.Server.RecordsDir, logger)
	if err != nil {
		return fmt.Errorf("open records: %w", err)
	}
	defer store.Close()
	if err := store.Watch(); err != nil {
		logger.Warn("RECORDS_WATCH_FAILED", zap.Error(err))
	}

	llm := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Server.OllamaURL,
		Timeout: cfg.Server.UpstreamTimeout(),
	})
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := llm.CheckRunning(checkCtx); err != nil {
		logger.Warn("OLLAMA_UNAVAILABLE", zap.String("url", llm.BaseURL()), zap.Error(err))
	}
	cancel()

	server.Version = Version
	srv := server.New(cfg.Server, store, llm, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
