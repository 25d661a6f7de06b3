package index

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reviewchat-core/server/internal/agent/model"
	errx "github.com/reviewchat-core/server/internal/core/error"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

const (
	entriesFile  = "index.gob"
	manifestFile = "manifest.json"
)

// Manifest describes a persisted index for compatibility checks. Reuse is
// decided from the manifest, not from mere file existence.
type Manifest struct {
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	BuiltAt   time.Time `json:"built_at"`
}

type persistedEntries struct {
	Dimension int
	Vectors   [][]float32
	Docs      []model.RetrievedDocument
}

// Save writes the store's entries and a manifest under dir. Files are written
// to temp names first and renamed so a crash never leaves a torn artifact.
func (m *Memory) Save(dir string) error {
	m.mu.RLock()
	entries := persistedEntries{
		Dimension: m.dimension,
		Vectors:   m.vectors,
		Docs:      m.docs,
	}
	m.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir %s: %w", dir, err)
	}

	entriesPath := filepath.Join(dir, entriesFile)
	tmp := entriesPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index entries: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, entriesPath); err != nil {
		return fmt.Errorf("publish index file: %w", err)
	}

	manifest := Manifest{
		Dimension: entries.Dimension,
		Count:     len(entries.Docs),
		BuiltAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	logx.Debug().Str("dir", dir).Int("count", manifest.Count).Int("dimension", manifest.Dimension).
		Msg("similarity index persisted")
	return nil
}

// LoadDir reads a persisted index from dir. It returns ErrIndexCorrupt (via
// errors.Is) when artifacts are absent, unreadable, or inconsistent, and
// ErrIndexIncompatible when wantDimension (> 0) disagrees with the manifest.
func LoadDir(dir string, wantDimension int) (*Memory, Manifest, error) {
	var manifest Manifest

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, manifest, fmt.Errorf("%w: read manifest: %v", errx.ErrIndexCorrupt, err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, manifest, fmt.Errorf("%w: parse manifest: %v", errx.ErrIndexCorrupt, err)
	}
	if manifest.Dimension <= 0 {
		return nil, manifest, fmt.Errorf("%w: manifest dimension %d", errx.ErrIndexCorrupt, manifest.Dimension)
	}
	if wantDimension > 0 && manifest.Dimension != wantDimension {
		return nil, manifest, fmt.Errorf("%w: index dimension %d, embedder dimension %d",
			errx.ErrIndexIncompatible, manifest.Dimension, wantDimension)
	}

	f, err := os.Open(filepath.Join(dir, entriesFile))
	if err != nil {
		return nil, manifest, fmt.Errorf("%w: open entries: %v", errx.ErrIndexCorrupt, err)
	}
	defer f.Close()

	var entries persistedEntries
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, manifest, fmt.Errorf("%w: decode entries: %v", errx.ErrIndexCorrupt, err)
	}
	if entries.Dimension != manifest.Dimension || len(entries.Docs) != manifest.Count ||
		len(entries.Docs) != len(entries.Vectors) {
		return nil, manifest, fmt.Errorf("%w: entries disagree with manifest", errx.ErrIndexCorrupt)
	}

	m := &Memory{
		dimension: entries.Dimension,
		vectors:   entries.Vectors,
		docs:      entries.Docs,
	}
	logx.Debug().Str("dir", dir).Int("count", manifest.Count).Int("dimension", manifest.Dimension).
		Time("built_at", manifest.BuiltAt).Msg("similarity index loaded")
	return m, manifest, nil
}
