// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat record persistence for the rigchat backend.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// RecordExt is the extension every chat record filename carries.
const RecordExt = ".json"

// maxFilenameBytes matches the common filesystem name limit.
const maxFilenameBytes = 255

var (
	// ErrRecordNotFound is returned when no record has the given name.
	ErrRecordNotFound = errors.New("chat record not found")

	// ErrRecordExists is returned when a rename target is already taken.
	ErrRecordExists = errors.New("chat record already exists")

	// ErrInvalidFilename is returned for names that are not a bare *.json file name.
	ErrInvalidFilename = errors.New("invalid chat record filename")
)

// =============================================================================
// FILENAME VALIDATION
// =============================================================================

// ValidateFilename normalises name to NFC and checks that it names a single
// file directly inside the record directory. It returns the normalised name.
func ValidateFilename(name string) (string, error) {
	name = norm.NFC.String(name)

	switch {
	case name == "":
		return "", fmt.Errorf("%w: empty name", ErrInvalidFilename)
	case len(name) > maxFilenameBytes:
		return "", fmt.Errorf("%w: name longer than %d bytes", ErrInvalidFilename, maxFilenameBytes)
	case strings.ContainsAny(name, "/\\\x00"):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	case strings.Contains(name, ".."):
		return "", fmt.Errorf("%w: %q contains '..'", ErrInvalidFilename, name)
	case strings.HasPrefix(name, "."):
		return "", fmt.Errorf("%w: %q is a hidden file name", ErrInvalidFilename, name)
	case !strings.HasSuffix(name, RecordExt) || len(name) == len(RecordExt):
		return "", fmt.Errorf("%w: %q must be a name ending in %s", ErrInvalidFilename, name, RecordExt)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidFilename, name)
		}
	}
	return name, nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

// RecordStore keeps chat records as files in BaseDir.
//
// Listing results are cached while Watch is active; the fsnotify watcher
// drops the cache whenever the directory changes, so files written by other
// tools appear in the next List call.
type RecordStore struct {
	// BaseDir is the directory holding the *.json records.
	BaseDir string

	logger *zap.Logger

	mu        sync.RWMutex
	cache     []string
	cacheOK   bool
	gen       uint64
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// NewRecordStore creates the directory if needed and returns a store over it.
func NewRecordStore(baseDir string, logger *zap.Logger) (*RecordStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{BaseDir: baseDir, logger: logger}, nil
}

// Watch starts watching BaseDir for changes. Calling it twice is a no-op.
func (s *RecordStore) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(s.BaseDir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", s.BaseDir, err)
	}

	s.watcher = w
	s.watchDone = make(chan struct{})
	go s.watchLoop(w, s.watchDone)
	return nil
}

func (s *RecordStore) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, RecordExt) {
				continue
			}
			s.invalidate()
			s.logger.Debug("RECORDS_CHANGED",
				zap.String("file", filepath.Base(ev.Name)),
				zap.String("op", ev.Op.String()))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.invalidate()
			s.logger.Warn("RECORDS_WATCH_ERROR", zap.Error(err))
		}
	}
}

// Close stops the watcher, if one is running.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	w, done := s.watcher, s.watchDone
	s.watcher = nil
	s.cacheOK = false
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

func (s *RecordStore) invalidate() {
	s.mu.Lock()
	s.cacheOK = false
	s.gen++
	s.mu.Unlock()
}

func (s *RecordStore) path(name string) (string, string, error) {
	clean, err := ValidateFilename(name)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.BaseDir, clean), nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// List returns the names of all records, sorted.
func (s *RecordStore) List() ([]string, error) {
	s.mu.RLock()
	if s.cacheOK {
		out := append([]string(nil), s.cache...)
		s.mu.RUnlock()
		return out, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), RecordExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	// A change seen while reading makes this listing stale.
	s.mu.Lock()
	if s.watcher != nil && s.gen == gen {
		s.cache = names
		s.cacheOK = true
	}
	s.mu.Unlock()

	return append([]string(nil), names...), nil
}

// Exists reports whether a record with the given name is stored.
func (s *RecordStore) Exists(name string) bool {
	_, p, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Load reads a record.
func (s *RecordStore) Load(name string) (model.History, error) {
	_, p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", name, err)
	}
	if history == nil {
		history = model.History{}
	}
	return history, nil
}

// Save writes a record, replacing any record with the same name.
// The file is a JSON array indented with four spaces; non-ASCII text is
// written as-is.
func (s *RecordStore) Save(name string, history model.History) error {
	_, p, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	s.invalidate()
	return nil
}

// Delete removes a record.
func (s *RecordStore) Delete(name string) error {
	_, p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	s.invalidate()
	return nil
}

// Rename moves a record to a new name. Renaming onto an existing record
// fails with ErrRecordExists; renaming a record to its own name is a no-op.
func (s *RecordStore) Rename(oldName, newName string) error {
	oldClean, oldPath, err := s.path(oldName)
	if err != nil {
		return err
	}
	newClean, newPath, err := s.path(newName)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("failed to stat record: %w", err)
	}
	if oldClean == newClean {
		return nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return ErrRecordExists
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename record: %w", err)
	}
	s.invalidate()
	return nil
}

func encodeHistory(history model.History) ([]byte, error) {
	if history == nil {
		history = model.History{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode([]model.Message(history)); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
