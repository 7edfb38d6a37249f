package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docchat/index"
	"docchat/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	saved []types.Document
	docs  map[uuid.UUID]types.Document
}

func newRecordingStore() *recordingStore {
	return &recordingStore{docs: make(map[uuid.UUID]types.Document)}
}

func (s *recordingStore) SaveDocument(_ context.Context, doc types.Document) error {
	s.saved = append(s.saved, doc)
	s.docs[doc.ID] = doc
	return nil
}

func (s *recordingStore) GetDocumentByID(_ context.Context, id uuid.UUID) (*types.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &doc, nil
}

func newTestService(t *testing.T) (*Service, *recordingStore, string) {
	t.Helper()
	dropDir := t.TempDir()
	st := newRecordingStore()
	engine := index.NewEngine(t.TempDir())
	return NewService(st, engine, dropDir, 10*time.Millisecond), st, dropDir
}

func TestIngest_SavesAndIndexesDocument(t *testing.T) {
	svc, st, dropDir := newTestService(t)

	path := filepath.Join(dropDir, "meeting_notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("The quarterly budget was approved on Monday."), 0o644))

	svc.ingest(context.Background(), path)

	require.Len(t, st.saved, 1)
	doc := st.saved[0]
	assert.Equal(t, "meeting notes", doc.Title)
	assert.Equal(t, types.FileText, doc.FileType)
	assert.Equal(t, doc.ID.String(), doc.StorageID)

	results := svc.engine.Search("quarterly budget", 3)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "quarterly budget")

	// The original file is archived after a successful ingest.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	archived, err := os.ReadDir(filepath.Join(dropDir, "archive"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestIngest_FailedFileGoesToFailedDir(t *testing.T) {
	svc, st, dropDir := newTestService(t)

	path := filepath.Join(dropDir, "image.xyz")
	require.NoError(t, os.WriteFile(path, []byte("binary junk"), 0o644))

	svc.ingest(context.Background(), path)

	assert.Empty(t, st.saved)
	failed, err := os.ReadDir(filepath.Join(dropDir, "failed"))
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestIngest_UnchangedFileSkipped(t *testing.T) {
	svc, st, dropDir := newTestService(t)

	path := filepath.Join(dropDir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("Initial report text."), 0o644))
	svc.ingest(context.Background(), path)
	require.Len(t, st.saved, 1)

	// Re-drop the identical file with an old mtime: no second save.
	require.NoError(t, os.WriteFile(path, []byte("Initial report text."), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	svc.ingest(context.Background(), path)
	assert.Len(t, st.saved, 1)
}

func TestIngest_RedropUpdatesSameDocument(t *testing.T) {
	svc, st, dropDir := newTestService(t)

	path := filepath.Join(dropDir, "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Old policy wording."), 0o644))
	svc.ingest(context.Background(), path)

	require.NoError(t, os.WriteFile(path, []byte("New policy wording entirely."), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	svc.ingest(context.Background(), path)

	require.Len(t, st.saved, 2)
	assert.Equal(t, st.saved[0].ID, st.saved[1].ID)

	results := svc.engine.Search("policy wording", 3)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "New policy wording")
}

func TestWatcher_EmitsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, 20*time.Millisecond)
	w.interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	fileChan := make(chan string, 1)
	go w.Watch(ctx, fileChan)

	path := filepath.Join(dir, "dropped.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	select {
	case got := <-fileChan:
		assert.Equal(t, path, got)
	case <-ctx.Done():
		t.Fatal("watcher never announced the file")
	}

	// The same file is not announced twice while it stays in place.
	select {
	case got := <-fileChan:
		t.Fatalf("unexpected second announcement: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_MoveToArchive(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, time.Millisecond)

	path := filepath.Join(dir, "done.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, w.MoveToArchive(path, false))

	entries, err := os.ReadDir(filepath.Join(dir, "archive"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "done.txt")
}
