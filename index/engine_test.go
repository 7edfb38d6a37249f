package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssist struct{ ready bool }

func (s stubAssist) Ready() bool { return s.ready }

func TestEngine_AddSearchRoundTrip(t *testing.T) {
	e := NewEngine(t.TempDir())

	id, err := e.Add("doc-1", "T", "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	results := e.Search("quick fox", 3)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-1", results[0].Metadata.DocumentID)
	assert.GreaterOrEqual(t, results[0].Score, 2.0)
}

func TestEngine_SearchEmptyStoreReturnsEmpty(t *testing.T) {
	e := NewEngine(t.TempDir())
	assert.Empty(t, e.Search("anything", 3))
}

func TestEngine_SentinelWhenNothingMatches(t *testing.T) {
	e := NewEngine(t.TempDir())
	_, err := e.Add("doc-1", "T", "alpha beta")
	require.NoError(t, err)

	results := e.Search("zzz-no-match", 3)
	require.Len(t, results, 1)
	assert.Equal(t, sentinelScore, results[0].Score)
	assert.Equal(t, "doc-1", results[0].Metadata.DocumentID)
}

func TestEngine_DeleteRemovesFromSearch(t *testing.T) {
	e := NewEngine(t.TempDir())
	_, err := e.Add("doc-1", "T", "the quick brown fox")
	require.NoError(t, err)

	require.NoError(t, e.Delete("doc-1"))

	for _, r := range e.Search("quick fox", 3) {
		assert.NotEqual(t, "doc-1", r.Metadata.DocumentID)
	}
	assert.Equal(t, 0, e.Snapshot().ChunkCount)
}

func TestEngine_DeleteUnknownIsIdempotent(t *testing.T) {
	e := NewEngine(t.TempDir())

	require.NoError(t, e.Delete("ghost"))
	require.NoError(t, e.Delete("ghost"))
	assert.Equal(t, 0, e.Snapshot().ChunkCount)
}

func TestEngine_SearchRanksDescending(t *testing.T) {
	e := NewEngine(t.TempDir())
	_, err := e.Add("doc-1", "T", "nothing relevant here")
	require.NoError(t, err)
	_, err = e.Add("doc-2", "T", "fox and hound")
	require.NoError(t, err)
	_, err = e.Add("doc-3", "T", "the fox jumps over the fox den")
	require.NoError(t, err)

	results := e.Search("fox jumps", 3)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-3", results[0].Metadata.DocumentID)
	assert.Equal(t, "doc-2", results[1].Metadata.DocumentID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestEngine_TopKTruncates(t *testing.T) {
	e := NewEngine(t.TempDir())
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := e.Add(id, "T", "fox sighting "+id)
		require.NoError(t, err)
	}

	assert.Len(t, e.Search("fox", 2), 2)
}

func TestEngine_EnhancedStrategyWhenAssistReady(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(dir, WithAssist(stubAssist{ready: true}))
	_, err := e.Add("doc-1", "T", "the fox jumps over the fence")
	require.NoError(t, err)
	_, err = e.Add("doc-2", "T", "a fox sat still")
	require.NoError(t, err)

	results := e.Search("fox jumps", 3)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].Metadata.DocumentID)
	assert.Equal(t, 10.0, results[0].Score)

	// With the assist unavailable the same engine state scores by term count.
	basic := NewEngine(dir, WithAssist(stubAssist{ready: false}))
	require.NoError(t, basic.Reconcile([]DocumentContent{
		{ID: "doc-1", Title: "T", Content: "the fox jumps over the fence"},
		{ID: "doc-2", Title: "T", Content: "a fox sat still"},
	}))
	results = basic.Search("fox jumps", 3)
	require.Len(t, results, 2)
	assert.Equal(t, 2.0, results[0].Score)
}

func TestEngine_AddOverwriteReplacesChunks(t *testing.T) {
	e := NewEngine(t.TempDir())
	_, err := e.Add("doc-1", "T", "old content about ships")
	require.NoError(t, err)
	_, err = e.Add("doc-1", "T", "new content about trains")
	require.NoError(t, err)

	results := e.Search("ships", 3)
	require.Len(t, results, 1)
	assert.Equal(t, sentinelScore, results[0].Score)

	results = e.Search("trains", 3)
	require.Len(t, results, 1)
	assert.Greater(t, results[0].Score, sentinelScore)
}

func TestEngine_FailedAddLeavesNoPartialState(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(dir)
	require.NoError(t, e.Initialize())

	// Make the metadata file unwritable by replacing it with a directory.
	require.NoError(t, os.Remove(filepath.Join(dir, metaFileName)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, metaFileName), 0o755))

	_, err := e.Add("doc-1", "T", "the quick brown fox")
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "add", storageErr.Op)

	// Neither store reflects the document.
	snap := e.Snapshot()
	assert.Equal(t, 0, snap.ChunkCount)
	assert.Empty(t, snap.Documents)
	assert.Empty(t, e.Search("fox", 3))
}

func TestEngine_InitializationFailureIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, metaFileName)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	e := NewEngine(dir)
	err := e.Initialize()
	require.Error(t, err)

	var initErr *InitializationError
	assert.ErrorAs(t, err, &initErr)
	assert.Empty(t, e.Search("anything", 3))

	// Repairing the file lets the next operation initialize lazily.
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = e.Add("doc-1", "T", "alpha beta")
	require.NoError(t, err)
	assert.True(t, e.Snapshot().Initialized)
}

func TestEngine_ReconcileRepopulatesAfterRestart(t *testing.T) {
	dir := t.TempDir()
	docs := []DocumentContent{{ID: "doc-1", Title: "T", Content: "the quick brown fox"}}

	e := NewEngine(dir)
	require.NoError(t, e.Reconcile(docs))
	require.NotEmpty(t, e.Search("fox", 3))

	// A fresh engine sees the persisted metadata but has no resident chunks
	// until reconciled against the document collection.
	restarted := NewEngine(dir)
	require.NoError(t, restarted.Initialize())
	assert.Empty(t, restarted.Search("fox", 3))

	require.NoError(t, restarted.Reconcile(docs))
	results := restarted.Search("fox", 3)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc-1", results[0].Metadata.DocumentID)
}

func TestEngine_ReconcileIsIdempotent(t *testing.T) {
	e := NewEngine(t.TempDir())
	docs := []DocumentContent{
		{ID: "doc-1", Title: "A", Content: "the quick brown fox"},
		{ID: "doc-2", Title: "B", Content: "pack my box with five dozen jugs"},
	}

	require.NoError(t, e.Reconcile(docs))
	first := e.Snapshot()

	require.NoError(t, e.Reconcile(docs))
	second := e.Snapshot()

	assert.Equal(t, first.ChunkCount, second.ChunkCount)
	assert.Equal(t, first.Documents, second.Documents)
}

func TestEngine_SnapshotSamples(t *testing.T) {
	e := NewEngine(t.TempDir())
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := e.Add(id, "T", "content for "+id)
		require.NoError(t, err)
	}

	snap := e.Snapshot()
	assert.True(t, snap.Initialized)
	assert.Equal(t, 4, snap.ChunkCount)
	assert.Len(t, snap.Documents, 4)
	assert.Len(t, snap.SampleChunks, 3)
}
