// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

// =============================================================================
// THEME
// =============================================================================

func TestNewTheme_ExplicitNames(t *testing.T) {
	if !NewTheme(ThemeDark).IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme(ThemeLight).IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestNewTheme_StylesRender(t *testing.T) {
	theme := NewTheme(ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserLabel", theme.UserLabel},
		{"AssistantLabel", theme.AssistantLabel},
		{"CodeBlock", theme.CodeBlock},
		{"ChatList", theme.ChatList},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"PromptBox", theme.PromptBox},
	}
	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style dropped its content", s.name)
		}
	}
}

func TestRenderNotice_Indicators(t *testing.T) {
	theme := NewTheme(ThemeDark)

	tests := []struct {
		level NoticeLevel
		want  string
	}{
		{NoticeInfo, "[i] hi"},
		{NoticeSuccess, "[OK] hi"},
		{NoticeWarning, "[!] hi"},
		{NoticeError, "[X] hi"},
	}
	for _, tt := range tests {
		if got := theme.RenderNotice(tt.level, "hi"); !strings.Contains(got, tt.want) {
			t.Errorf("RenderNotice(%d) = %q, want it to contain %q", tt.level, got, tt.want)
		}
	}
}

// =============================================================================
// SPINNER
// =============================================================================

func TestSpinnerFrames(t *testing.T) {
	s := ThinkingSpinner
	if got := s.Frame(0); got != "|" {
		t.Errorf("Frame(0) = %q", got)
	}
	if got := s.Frame(len(s.Frames)); got != s.Frames[0] {
		t.Errorf("frames should wrap, got %q", got)
	}
	if got := s.Frame(-1); got != s.Frames[1] {
		t.Errorf("Frame(-1) = %q", got)
	}
	if s.Duration() != 100*time.Millisecond {
		t.Errorf("Duration() = %v", s.Duration())
	}
	if (SpinnerConfig{}).Frame(3) != "" {
		t.Error("empty spinner should render nothing")
	}
}
