package index

// ChunkMetadata identifies the document a chunk was cut from.
type ChunkMetadata struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Sequence   int    `json:"chunk"`
}

// Chunk is the unit of storage and scoring.
type Chunk struct {
	ID       string
	Content  string
	Metadata ChunkMetadata
}

// chunkStore holds resident chunks keyed by id. A companion slice preserves
// insertion order so scoring and the sentinel fallback are deterministic.
// It is not persisted; the engine rebuilds it from the metadata index and the
// document collection after a restart.
type chunkStore struct {
	byID  map[string]Chunk
	order []string
}

func newChunkStore() *chunkStore {
	return &chunkStore{byID: make(map[string]Chunk)}
}

func (s *chunkStore) Put(c Chunk) {
	if _, ok := s.byID[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c
}

func (s *chunkStore) Get(id string) (Chunk, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// All returns a snapshot of resident chunks in insertion order.
func (s *chunkStore) All() []Chunk {
	out := make([]Chunk, 0, len(s.byID))
	for _, id := range s.order {
		if c, ok := s.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Remove deletes a chunk; removing an absent id is a no-op.
func (s *chunkStore) Remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *chunkStore) Len() int {
	return len(s.byID)
}
