// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigchat/internal/model"
)

func sampleHistory() model.History {
	return model.History{
		model.UserMessage("hello"),
		model.AssistantMessage("```\nfmt.Println(1)\n```"),
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		in      string
		wantExt string
		want    string
	}{
		{"notes", ".md", "notes.md"},
		{"notes.md", ".md", "notes.md"},
		{"notes.MARKDOWN", ".md", "notes.MARKDOWN"},
		{"notes.txt", ".txt", "notes.txt"},
	}
	for _, tt := range tests {
		exp, path, err := ForPath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantExt, exp.FileExtension(), tt.in)
		assert.Equal(t, tt.want, path, tt.in)
	}

	_, _, err := ForPath("notes.pdf")
	assert.ErrorContains(t, err, ".pdf")
}

func TestMarkdownExporter(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := MarkdownExporter{}.Export(sampleHistory(), Meta{Title: "notes: v1", Model: "llama3.1", ExportedAt: at})
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Equal(t, "notes: v1", frontMatterOf(t, data)["title"])
	assert.Contains(t, out, "model: llama3.1")
	assert.Contains(t, out, "messages: 2")
	assert.Contains(t, out, "exported: 2025-03-01T12:00:00Z")
	assert.Contains(t, out, "**you:**\n\nhello\n")
	assert.Contains(t, out, "**AI:**\n\n```\nfmt.Println(1)\n```\n")
}

// frontMatterOf decodes the YAML block between the leading --- markers.
func frontMatterOf(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	parts := strings.SplitN(string(data), "---\n", 3)
	require.Len(t, parts, 3)
	var fm map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	return fm
}

func TestMarkdownExporter_ScalarLookingTitles(t *testing.T) {
	for _, title := range []string{"2024", "true", "null", "yes", "~", "3.10", "- list", "# heading"} {
		data, err := MarkdownExporter{}.Export(sampleHistory(), Meta{Title: title, Model: "1.5", ExportedAt: time.Now()})
		require.NoError(t, err, title)

		fm := frontMatterOf(t, data)
		assert.Equal(t, title, fm["title"], "title %q must stay a string", title)
		assert.Equal(t, "1.5", fm["model"])
	}
	data, err := MarkdownExporter{}.Export(sampleHistory(), Meta{Title: "2024", ExportedAt: time.Now()})
	require.NoError(t, err)
	assert.Contains(t, string(data), `title: "2024"`)
}

func TestTextExporter(t *testing.T) {
	data, err := TextExporter{}.Export(sampleHistory(), Meta{})
	require.NoError(t, err)
	assert.Equal(t, "you: hello\nAI: ```\nfmt.Println(1)\n```\n", string(data))
}

func TestExport_Empty(t *testing.T) {
	_, err := MarkdownExporter{}.Export(nil, Meta{})
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = TextExporter{}.Export(model.History{}, Meta{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ToFile(sampleHistory(), filepath.Join(dir, "out", "chat"), Meta{Model: "qwen2.5"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "chat.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: chat")
	assert.Contains(t, string(data), "model: qwen2.5")

	_, err = ToFile(nil, filepath.Join(dir, "empty.txt"), Meta{})
	assert.ErrorIs(t, err, ErrEmpty)
	assert.NoFileExists(t, filepath.Join(dir, "empty.txt"))
}
