// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/rigchat/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zap.DebugLevel, false},
		{"INFO", zap.InfoLevel, false},
		{"", zap.InfoLevel, false},
		{"warn", zap.WarnLevel, false},
		{"error", zap.ErrorLevel, false},
		{"trace", zap.InfoLevel, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rigchat.log")
	cfg := config.Default().Logging
	cfg.File = path

	logger, err := New(cfg, Options{})
	require.NoError(t, err)

	logger.Info("SERVER_START", zap.String("addr", "0.0.0.0:5000"))
	logger.Debug("filtered out at info level")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "SERVER_START", entry["msg"])
	assert.Equal(t, "0.0.0.0:5000", entry["addr"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleTee(t *testing.T) {
	cfg := config.Default().Logging
	cfg.File = filepath.Join(t.TempDir(), "rigchat.log")

	var console bytes.Buffer
	logger, err := New(cfg, Options{Console: &console})
	require.NoError(t, err)

	logger.Warn("RATE_LIMIT_EXCEEDED", zap.String("ip", "10.0.0.1"))
	_ = logger.Sync()

	assert.Contains(t, console.String(), "RATE_LIMIT_EXCEEDED")
	assert.Contains(t, console.String(), "WARN")
}

func TestNew_BadLevel(t *testing.T) {
	cfg := config.Default().Logging
	cfg.File = filepath.Join(t.TempDir(), "rigchat.log")
	cfg.Level = "shout"

	_, err := New(cfg, Options{})
	assert.Error(t, err)
}
