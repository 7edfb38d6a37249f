package index

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Assist is the optional semantic-assist collaborator. When it reports ready
// the engine scores with the enhanced strategy; otherwise, or on any probe
// failure, it stays on the basic keyword strategy for that call.
type Assist interface {
	Ready() bool
}

// DocumentContent is one document from the authoritative collection,
// used by Reconcile to repair in-memory state after a restart.
type DocumentContent struct {
	ID      string
	Title   string
	Content string
}

// Result is a scored chunk returned by Search. Scores are comparable only
// within a single call.
type Result struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"relevance_score"`
}

// sentinelScore marks the arbitrary chunk returned when nothing matched but
// the store is non-empty, so downstream prompting never runs on nothing.
const sentinelScore = 0.1

// Engine is the retrieval facade: it chunks added documents, keeps resident
// chunks in memory, persists the per-document metadata index and scores
// chunks against queries. One mutex guards both stores; they are updated as
// one logical unit, so a Search never observes a half-applied Add or Delete.
type Engine struct {
	mu          sync.RWMutex
	meta        *metaFile
	entries     map[string]Entry
	chunks      *chunkStore
	initialized bool

	chunkSize    int
	chunkOverlap int

	assist Assist
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAssist attaches the semantic-assist collaborator.
func WithAssist(a Assist) Option {
	return func(e *Engine) { e.assist = a }
}

// WithChunking overrides the default chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
		if overlap >= 0 && overlap < size {
			e.chunkOverlap = overlap
		}
	}
}

// NewEngine creates an engine persisting its metadata index under dir.
// The engine starts uninitialized; every operation attempts initialization
// lazily, so a failed Initialize is retried on the next call.
func NewEngine(dir string, opts ...Option) *Engine {
	e := &Engine{
		meta:         newMetaFile(dir),
		chunks:       newChunkStore(),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the metadata index from disk. Failures are reported to
// the caller, never fatal to the process; the engine stays uninitialized.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *Engine) initLocked() error {
	if e.initialized {
		return nil
	}
	entries, err := e.meta.Load()
	if err != nil {
		return &InitializationError{Err: err}
	}
	e.entries = entries
	e.initialized = true
	e.logger.Info("document index loaded", "documents", len(entries))
	return nil
}

// Add chunks content and registers the document in both stores. The metadata
// file is rewritten before the in-memory state changes: a failed Add leaves
// no trace in either store. Returns the storage id, which is the document id.
func (e *Engine) Add(documentID, title, content string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return "", &StorageError{Op: "add", DocumentID: documentID, Err: err}
	}

	pieces := Split(content, e.chunkSize, e.chunkOverlap)

	chunkIDs := make([]string, len(pieces))
	staged := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		id := fmt.Sprintf("%s_%d", documentID, i)
		chunkIDs[i] = id
		staged[i] = Chunk{
			ID:      id,
			Content: piece,
			Metadata: ChunkMetadata{
				DocumentID: documentID,
				Title:      title,
				Sequence:   i,
			},
		}
	}

	entry := Entry{Title: title, ChunkIDs: chunkIDs, ChunkCount: len(chunkIDs)}

	next := cloneEntries(e.entries)
	next[documentID] = entry
	if err := e.meta.Write(next); err != nil {
		return "", &StorageError{Op: "add", DocumentID: documentID, Err: err}
	}

	// Replacing an existing document drops its old chunk set first; chunk
	// counts may differ between versions.
	if old, ok := e.entries[documentID]; ok {
		for _, id := range old.ChunkIDs {
			e.chunks.Remove(id)
		}
	}
	for _, c := range staged {
		e.chunks.Put(c)
	}
	e.entries = next

	e.logger.Info("document indexed", "document_id", documentID, "title", title, "chunks", len(chunkIDs))
	return documentID, nil
}

// Search scores all resident chunks against query and returns the topK best.
// It never fails: an engine that cannot initialize returns no results, and a
// query with no positive-scoring chunks over a non-empty store returns one
// resident chunk with the sentinel score.
func (e *Engine) Search(query string, topK int) []Result {
	if topK <= 0 {
		topK = 3
	}

	e.mu.RLock()
	if !e.initialized {
		e.mu.RUnlock()
		if err := e.Initialize(); err != nil {
			e.logger.Warn("search on uninitialized index", "error", err)
			return []Result{}
		}
		e.mu.RLock()
	}
	defer e.mu.RUnlock()

	score := basicScore
	if e.assist != nil && e.assist.Ready() {
		score = enhancedScore
	} else if e.assist != nil {
		e.logger.Debug("assist not ready, using keyword scoring")
	}

	all := e.chunks.All()
	results := make([]Result, 0, len(all))
	for _, c := range all {
		s := score(query, c.Content)
		if s > 0 {
			results = append(results, Result{Content: c.Content, Metadata: c.Metadata, Score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	if len(results) == 0 && len(all) > 0 {
		c := all[0]
		results = append(results, Result{Content: c.Content, Metadata: c.Metadata, Score: sentinelScore})
	}

	e.logger.Info("index searched", "query", query, "results", len(results))
	return results
}

// Delete removes a document from both stores. Deleting an unknown document
// is a logged no-op. A failed metadata write surfaces and leaves the
// document fully resident.
func (e *Engine) Delete(documentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return &StorageError{Op: "delete", DocumentID: documentID, Err: err}
	}

	entry, ok := e.entries[documentID]
	if !ok {
		e.logger.Warn("delete of unknown document", "document_id", documentID)
		return nil
	}

	next := cloneEntries(e.entries)
	delete(next, documentID)
	if err := e.meta.Write(next); err != nil {
		return &StorageError{Op: "delete", DocumentID: documentID, Err: err}
	}

	for _, id := range entry.ChunkIDs {
		e.chunks.Remove(id)
	}
	e.entries = next

	e.logger.Info("document removed from index", "document_id", documentID, "chunks", entry.ChunkCount)
	return nil
}

// Reconcile repairs the engine against the authoritative document
// collection: documents missing from the metadata index are added, and
// documents whose metadata survived a restart but whose chunks are no longer
// resident are re-chunked into memory. Chunking is deterministic, so the
// persisted metadata stays correct and is not rewritten in the second case.
func (e *Engine) Reconcile(docs []DocumentContent) error {
	if err := e.Initialize(); err != nil {
		return err
	}

	for _, doc := range docs {
		e.mu.Lock()
		entry, known := e.entries[doc.ID]
		resident := known && e.residentLocked(entry)
		e.mu.Unlock()

		if !known {
			if _, err := e.Add(doc.ID, doc.Title, doc.Content); err != nil {
				return err
			}
			continue
		}
		if resident {
			continue
		}

		e.mu.Lock()
		for i, piece := range Split(doc.Content, e.chunkSize, e.chunkOverlap) {
			e.chunks.Put(Chunk{
				ID:      fmt.Sprintf("%s_%d", doc.ID, i),
				Content: piece,
				Metadata: ChunkMetadata{
					DocumentID: doc.ID,
					Title:      doc.Title,
					Sequence:   i,
				},
			})
		}
		e.mu.Unlock()
		e.logger.Info("document chunks reloaded", "document_id", doc.ID, "title", doc.Title)
	}
	return nil
}

func (e *Engine) residentLocked(entry Entry) bool {
	for _, id := range entry.ChunkIDs {
		if _, ok := e.chunks.Get(id); !ok {
			return false
		}
	}
	return true
}

// DocumentStats describes one indexed document in a Snapshot.
type DocumentStats struct {
	Title    string   `json:"title"`
	Chunks   int      `json:"chunks"`
	ChunkIDs []string `json:"chunk_ids"`
}

// SampleChunk is a truncated chunk preview in a Snapshot.
type SampleChunk struct {
	ChunkID  string        `json:"chunk_id"`
	Preview  string        `json:"content_preview"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Snapshot is a read-only view of engine state for diagnostics.
type Snapshot struct {
	Initialized  bool                     `json:"initialized"`
	ChunkCount   int                      `json:"chunk_count"`
	Documents    map[string]DocumentStats `json:"documents"`
	SampleChunks []SampleChunk            `json:"sample_chunks"`
}

const (
	snapshotSamples       = 3
	snapshotPreviewLength = 100
)

// Snapshot reports current engine state without mutating it.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		Initialized: e.initialized,
		ChunkCount:  e.chunks.Len(),
		Documents:   make(map[string]DocumentStats, len(e.entries)),
	}
	for id, entry := range e.entries {
		snap.Documents[id] = DocumentStats{
			Title:    entry.Title,
			Chunks:   entry.ChunkCount,
			ChunkIDs: entry.ChunkIDs,
		}
	}
	for _, c := range e.chunks.All() {
		if len(snap.SampleChunks) == snapshotSamples {
			break
		}
		preview := c.Content
		if len(preview) > snapshotPreviewLength {
			preview = preview[:snapshotPreviewLength] + "..."
		}
		snap.SampleChunks = append(snap.SampleChunks, SampleChunk{
			ChunkID:  c.ID,
			Preview:  preview,
			Metadata: c.Metadata,
		})
	}
	return snap
}

func cloneEntries(entries map[string]Entry) map[string]Entry {
	next := make(map[string]Entry, len(entries)+1)
	for k, v := range entries {
		next[k] = v
	}
	return next
}
