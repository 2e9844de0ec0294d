package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/EnamSon/gformfiller/pkg/logging"
)

// DefaultFileName is the settings file name in the gformfiller home and in
// a workspace root.
const DefaultFileName = "config.json"

const fileVersion = "1.0"

// Store provides persistence for section data.
type Store interface {
	Load() error
	Save() error
	GetSection(sectionID string) (map[string]interface{}, error)
	SetSection(sectionID string, data map[string]interface{}) error
}

// Paths locates the settings files of one run.
type Paths struct {
	// File is read last and receives saved settings.
	File string
	// Base is read beneath File; keys set in File win. Empty means none.
	Base string
}

// ResolvePaths picks the settings files. An explicit file is used alone.
// With a workspace root, <root>/config.json holds that workspace's
// settings and the home file fills in what it leaves unset. Without either
// the home file is used alone.
func ResolvePaths(explicit, workspace string) (Paths, error) {
	if explicit != "" {
		return Paths{File: explicit}, nil
	}
	homeDir, err := logging.HomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve gformfiller home: %w", err)
	}
	home := filepath.Join(homeDir, DefaultFileName)
	if workspace == "" {
		return Paths{File: home}, nil
	}
	file := filepath.Join(workspace, DefaultFileName)
	if filepath.Clean(file) == filepath.Clean(home) {
		return Paths{File: home}, nil
	}
	return Paths{File: file, Base: home}, nil
}

// document is the on-disk layout.
type document struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore keeps sections in a JSON file, optionally layered over a base
// file that is never written.
type FileStore struct {
	paths Paths
	base  map[string]map[string]interface{}
	data  map[string]map[string]interface{}
	mu    sync.RWMutex
}

// NewFileStore opens the files in paths. Missing files are treated as empty.
func NewFileStore(paths Paths) (*FileStore, error) {
	if paths.File == "" {
		return nil, errors.New("config file path is required")
	}
	store := &FileStore{
		paths: paths,
		base:  make(map[string]map[string]interface{}),
		data:  make(map[string]map[string]interface{}),
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Load rereads both files, discarding unsaved changes.
func (s *FileStore) Load() error {
	base, err := readDocument(s.paths.Base)
	if err != nil {
		return err
	}
	data, err := readDocument(s.paths.File)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
	s.data = data
	return nil
}

func readDocument(path string) (map[string]map[string]interface{}, error) {
	sections := make(map[string]map[string]interface{})
	if path == "" {
		return sections, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sections, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if doc.Version != "" && !strings.HasPrefix(doc.Version, "1.") {
		return nil, fmt.Errorf("config file %s has unsupported version %q", path, doc.Version)
	}
	for id, section := range doc.Sections {
		if section != nil {
			sections[id] = section
		}
	}
	return sections, nil
}

// Save writes the layer owned by this store to paths.File with a
// tmp-file rename. The base file is left untouched.
func (s *FileStore) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(document{Version: fileVersion, Sections: s.data}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.paths.File), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tempPath := s.paths.File + ".tmp"
	if err := os.WriteFile(tempPath, append(raw, '\n'), 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, s.paths.File); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// GetSection returns the base values of a section overlaid with this
// store's own values. A missing section is an empty map.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]interface{}, len(s.base[sectionID])+len(s.data[sectionID]))
	for k, v := range s.base[sectionID] {
		out[k] = v
	}
	for k, v := range s.data[sectionID] {
		out[k] = v
	}
	return out, nil
}

// SetSection replaces this store's values for a section.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	section := make(map[string]interface{}, len(data))
	for k, v := range data {
		section[k] = v
	}
	s.data[sectionID] = section
	return nil
}

// Paths returns the files the store reads and writes.
func (s *FileStore) Paths() Paths {
	return s.paths
}
