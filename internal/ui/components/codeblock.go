// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is the body of a fenced message.
type CodeBlock struct {
	Code     string
	Style    string
	MaxWidth int
}

// NewCodeBlock creates a code block highlighted with the named chroma style.
func NewCodeBlock(code, style string) CodeBlock {
	if style == "" {
		style = DefaultCodeStyle
	}
	return CodeBlock{
		Code:     code,
		Style:    style,
		MaxWidth: 80,
	}
}

// SetMaxWidth sets the maximum width for the code block.
func (c *CodeBlock) SetMaxWidth(width int) {
	c.MaxWidth = width
}

// Render renders the highlighted code. The body is kept verbatim apart from
// a leading and trailing newline left over from the fence. Lines wider than
// the block are hard-wrapped, never cut.
func (c CodeBlock) Render(theme *styles.Theme) string {
	code := strings.TrimSuffix(strings.TrimPrefix(c.Code, "\n"), "\n")

	inner := c.MaxWidth - theme.CodeBlock.GetHorizontalFrameSize()
	if inner < 20 {
		inner = 20
	}
	highlighted := ansi.Hardwrap(highlightCode(code, c.Style), inner, true)
	return theme.CodeBlock.Render(highlighted)
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode highlights code for a 256-color terminal. The lexer is
// guessed from the content; on any failure the code is returned as is.
func highlightCode(code, styleName string) string {
	if code == "" {
		return code
	}

	lexer := lexers.Analyse(code)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
