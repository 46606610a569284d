// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var sampleHistory = model.History{
	model.UserMessage("hello"),
	model.AssistantMessage("hi there"),
}

// =============================================================================
// FILENAME TESTS
// =============================================================================

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", "standup.json", false},
		{"spaces", "my chat.json", false},
		{"unicode", "聊天记录.json", false},
		{"empty", "", true},
		{"extension only", ".json", true},
		{"no extension", "standup", true},
		{"wrong extension", "standup.txt", true},
		{"slash", "../etc/passwd.json", true},
		{"nested", "a/b.json", true},
		{"backslash", `a\b.json`, true},
		{"dotdot", "..json", true},
		{"hidden", ".tmp-123.json", true},
		{"nul", "a\x00.json", true},
		{"newline", "a\nb.json", true},
		{"too long", strings.Repeat("a", 260) + ".json", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateFilename(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilename)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFilename_NormalizesNFC(t *testing.T) {
	decomposed := "cafe\u0301.json"
	got, err := ValidateFilename(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9.json", got)
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestRecordStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a.json", sampleHistory))

	got, err := store.Load("a.json")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, got)
}

func TestRecordStore_FileFormat(t *testing.T) {
	store := newTestStore(t)
	history := model.History{model.UserMessage("你好 <b>")}

	require.NoError(t, store.Save("fmt.json", history))

	data, err := os.ReadFile(filepath.Join(store.BaseDir, "fmt.json"))
	require.NoError(t, err)

	want := "[\n    {\n        \"role\": \"user\",\n        \"content\": \"你好 <b>\"\n    }\n]"
	assert.Equal(t, want, string(data))
}

func TestRecordStore_SaveEmptyHistory(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("empty.json", nil))

	got, err := store.Load("empty.json")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecordStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a.json", sampleHistory))
	require.NoError(t, store.Save("a.json", sampleHistory[:1]))

	got, err := store.Load("a.json")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("missing.json")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordStore_LoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "bad.json"), []byte("{not json"), 0644))

	_, err := store.Load("bad.json")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRecordNotFound))
}

func TestRecordStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	err := store.Save("../escape.json", sampleHistory)
	assert.ErrorIs(t, err, ErrInvalidFilename)

	_, err = os.Stat(filepath.Join(filepath.Dir(store.BaseDir), "escape.json"))
	assert.True(t, os.IsNotExist(err), "file escaped the records directory")
}

func TestRecordStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("a.json", sampleHistory))

	require.NoError(t, store.Delete("a.json"))
	assert.False(t, store.Exists("a.json"))

	assert.ErrorIs(t, store.Delete("a.json"), ErrRecordNotFound)
}

func TestRecordStore_Rename(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("old.json", sampleHistory))

	require.NoError(t, store.Rename("old.json", "new.json"))
	assert.False(t, store.Exists("old.json"))
	assert.True(t, store.Exists("new.json"))

	got, err := store.Load("new.json")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory, got)
}

func TestRecordStore_RenameErrors(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("a.json", sampleHistory))
	require.NoError(t, store.Save("b.json", sampleHistory))

	assert.ErrorIs(t, store.Rename("missing.json", "c.json"), ErrRecordNotFound)
	assert.ErrorIs(t, store.Rename("a.json", "b.json"), ErrRecordExists)
	assert.ErrorIs(t, store.Rename("a.json", "../c.json"), ErrInvalidFilename)
	assert.NoError(t, store.Rename("a.json", "a.json"))
}

func TestRecordStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("b.json", sampleHistory))
	require.NoError(t, store.Save("a.json", sampleHistory))
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(store.BaseDir, "dir.json"), 0755))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)
}

func TestRecordStore_WatchPicksUpExternalFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Watch())
	require.NoError(t, store.Save("a.json", sampleHistory))

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"a.json"}, names)

	// Written behind the store's back.
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "z.json"), []byte("[]"), 0644))

	require.Eventually(t, func() bool {
		names, err := store.List()
		return err == nil && len(names) == 2 && names[1] == "z.json"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRecordStore_CloseWithoutWatch(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Close())
}
