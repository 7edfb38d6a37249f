package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const metaFileName = "documents_info.json"

// Entry is the persisted record describing one document's chunking.
type Entry struct {
	Title      string   `json:"title"`
	ChunkIDs   []string `json:"chunk_ids"`
	ChunkCount int      `json:"chunk_count"`
}

// metaFile persists the document -> chunking mapping as a single JSON file.
// Every mutation rewrites the whole file; there is no append log. The design
// assumes a single writer process (see Engine's mutex for in-process callers).
type metaFile struct {
	path string
}

func newMetaFile(dir string) *metaFile {
	return &metaFile{path: filepath.Join(dir, metaFileName)}
}

// Load reads the mapping from disk. A missing file is not an error: an empty
// mapping is written out first so subsequent reads never need existence
// checks.
func (m *metaFile) Load() (map[string]Entry, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", m.path, err)
		}
		entries := make(map[string]Entry)
		if err := m.Write(entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.path, err)
	}
	return entries, nil
}

// Write rewrites the whole mapping. Callers must not apply an in-memory
// mutation unless this succeeds.
func (m *metaFile) Write(entries map[string]Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode document index: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return nil
}
