// Package store persists pipeline state as JSON documents on disk. Every
// collection is a single file holding a map keyed by comic filename; a
// write rewrites the whole file, so the last writer wins.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Store is a keyed JSON document collection. Values are marshaled as-is,
// so callers own the schema.
type Store[V any] interface {
	Get(key string) (V, bool, error)
	Put(key string, value V) error
	All() (map[string]V, error)
	Keys() ([]string, error)
}

// JSONStore keeps the whole collection in one file and flushes after
// every Put. Loads lazily on first access so a missing file reads as an
// empty collection.
type JSONStore[V any] struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	data   map[string]V
	loaded bool
}

func NewJSONStore[V any](path string, logger *zap.Logger) *JSONStore[V] {
	return &JSONStore[V]{path: path, logger: logger}
}

func (s *JSONStore[V]) Get(key string) (V, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	if err := s.load(); err != nil {
		return zero, false, err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *JSONStore[V]) Put(key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.data[key] = value
	return s.flush()
}

func (s *JSONStore[V]) All() (map[string]V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	out := make(map[string]V, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *JSONStore[V]) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONStore[V]) load() error {
	if s.loaded {
		return nil
	}
	s.data = make(map[string]V)

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return fmt.Errorf("parse %s: %w", s.path, err)
		}
	}
	s.loaded = true
	s.logger.Debug("store loaded",
		zap.String("path", s.path),
		zap.Int("entries", len(s.data)))
	return nil
}

func (s *JSONStore[V]) flush() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is the test double for Store.
type MemoryStore[V any] struct {
	mu   sync.Mutex
	data map[string]V
	Puts int
}

func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{data: make(map[string]V)}
}

func (s *MemoryStore[V]) Get(key string) (V, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore[V]) Put(key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.Puts++
	return nil
}

func (s *MemoryStore[V]) All() (map[string]V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]V, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore[V]) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
