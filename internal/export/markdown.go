// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes a YAML front matter block followed by one section
// per message.
type MarkdownExporter struct{}

// frontMatter is the YAML header of a markdown transcript.
type frontMatter struct {
	Title     string    `yaml:"title"`
	Model     string    `yaml:"model,omitempty"`
	Messages  int       `yaml:"messages"`
	Exported  time.Time `yaml:"exported"`
	Generator string    `yaml:"generator"`
}

// FileExtension implements Exporter.
func (MarkdownExporter) FileExtension() string { return ".md" }

// Export implements Exporter.
func (MarkdownExporter) Export(history model.History, meta Meta) ([]byte, error) {
	if len(history) == 0 {
		return nil, ErrEmpty
	}

	header, err := yaml.Marshal(frontMatter{
		Title:     meta.Title,
		Model:     meta.Model,
		Messages:  len(history),
		Exported:  meta.ExportedAt.UTC().Truncate(time.Second),
		Generator: "rigchat",
	})
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", meta.Title)
	for i, msg := range history {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&sb, "**%s:**\n\n", msg.Label())
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
