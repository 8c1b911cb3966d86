package store

import (
	"context"
	"sort"
	"sync"

	"intellidocs/model"
	"intellidocs/types"
)

type memoryRow struct {
	docID    string
	chunkIdx int
	vec      []float32
	content  string
}

// MemoryStore is the in-memory VectorStorer: an exact brute-force scan over
// all indexed chunks. It never blocks on I/O.
type MemoryStore struct {
	mu       sync.RWMutex
	rows     []memoryRow
	embedder model.EmbedderInterface
	locks    *docLocks
}

func NewMemoryStore(embedder model.EmbedderInterface) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		locks:    newDocLocks(),
	}
}

// Upsert drops every row previously indexed for docID and inserts the new
// chunk set under one write lock, so readers never see the two mixed.
func (m *MemoryStore) Upsert(ctx context.Context, docID string, chunks []string) error {
	lock := m.locks.acquire(docID)
	defer m.locks.release(docID, lock)

	fresh := make([]memoryRow, 0, len(chunks))
	for i, c := range chunks {
		emb, err := m.embedder.Embed(c)
		if err != nil {
			return err
		}
		fresh = append(fresh, memoryRow{docID: docID, chunkIdx: i, vec: emb, content: c})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.docID != docID {
			kept = append(kept, row)
		}
	}
	m.rows = append(kept, fresh...)
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, queryText string, topK int) ([]types.SearchResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	qvec, err := m.embedder.Embed(queryText)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]types.SearchResult, 0, len(m.rows))
	for _, row := range m.rows {
		scored = append(scored, types.SearchResult{
			DocID:    row.docID,
			ChunkIdx: row.chunkIdx,
			Score:    dot(qvec, row.vec),
			Content:  row.content,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].DocID != scored[j].DocID {
			return scored[i].DocID < scored[j].DocID
		}
		return scored[i].ChunkIdx < scored[j].ChunkIdx
	})
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
