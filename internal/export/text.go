// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// TextExporter writes the transcript the way the line-mode client prints
// it: one "sender: text" block per message.
type TextExporter struct{}

// FileExtension implements Exporter.
func (TextExporter) FileExtension() string { return ".txt" }

// Export implements Exporter.
func (TextExporter) Export(history model.History, _ Meta) ([]byte, error) {
	if len(history) == 0 {
		return nil, ErrEmpty
	}
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(msg.Label())
		sb.WriteString(": ")
		sb.WriteString(strings.TrimRight(msg.Content, "\n"))
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
