// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a conversation in one format.
type Exporter interface {
	Export(history model.History, meta Meta) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string
}

// Meta describes the conversation being exported.
type Meta struct {
	Title      string
	Model      string
	ExportedAt time.Time
}

// ErrEmpty is returned for a conversation with no messages.
var ErrEmpty = errors.New("conversation has no messages")

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForPath picks the exporter for a file name by extension. A name without
// an extension gets Markdown.
func ForPath(path string) (Exporter, string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "":
		return MarkdownExporter{}, path + ".md", nil
	case ".md", ".markdown":
		return MarkdownExporter{}, path, nil
	case ".txt":
		return TextExporter{}, path, nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %q (use .md or .txt)", ext)
	}
}

// ToFile exports history to path and returns the path written.
func ToFile(history model.History, path string, meta Meta) (string, error) {
	exp, path, err := ForPath(path)
	if err != nil {
		return "", err
	}
	if meta.ExportedAt.IsZero() {
		meta.ExportedAt = time.Now()
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	data, err := exp.Export(history, meta)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
