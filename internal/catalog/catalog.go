// Package catalog loads and serves the static metadata catalog of review
// subjects (books). Records are loaded wholesale from a JSON file, served
// read-only during a turn, and may be hot-reloaded between turns.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/reviewchat-core/server/internal/agent/model"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// Store holds an immutable snapshot of catalog records. Reload swaps the
// snapshot atomically, so concurrent readers never observe a partial catalog.
type Store struct {
	path     string
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	records map[string]model.CatalogRecord
	keys    []string // sorted for deterministic prompt listings
}

// Load reads the catalog file and returns a ready Store. A missing file is
// not an error: the store starts empty and the lookup branch degrades.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalog file and publishes a fresh snapshot.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logx.Warn().Str("path", s.path).Msg("catalog file missing; starting with empty catalog")
			s.snapshot.Store(&snapshot{records: map[string]model.CatalogRecord{}})
			return nil
		}
		return fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	var raw map[string]model.CatalogRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse catalog %s: %w", s.path, err)
	}

	records := make(map[string]model.CatalogRecord, len(raw))
	keys := make([]string, 0, len(raw))
	for key, rec := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rec.Key = key
		records[key] = rec
		keys = append(keys, key)
	}
	sort.Strings(keys)

	s.snapshot.Store(&snapshot{records: records, keys: keys})
	logx.Debug().Str("path", s.path).Int("records", len(records)).Msg("catalog loaded")
	return nil
}

// Get returns the record for the given key, if present.
func (s *Store) Get(key string) (model.CatalogRecord, bool) {
	snap := s.snapshot.Load()
	rec, ok := snap.records[key]
	return rec, ok
}

// Keys returns all catalog keys in sorted order.
func (s *Store) Keys() []string {
	snap := s.snapshot.Load()
	out := make([]string, len(snap.keys))
	copy(out, snap.keys)
	return out
}

// Len returns the number of records in the current snapshot.
func (s *Store) Len() int {
	return len(s.snapshot.Load().records)
}

// Choices renders the "- key: title" listing the metadata prompt presents to
// the selection model.
func (s *Store) Choices() string {
	snap := s.snapshot.Load()
	var b strings.Builder
	for _, key := range snap.keys {
		b.WriteString("- ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(snap.records[key].Title)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
