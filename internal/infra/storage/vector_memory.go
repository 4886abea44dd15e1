package storage

import (
	"context"
	"maps"
	"sync"

	domain "github.com/inference-gateway/toolgate/internal/domain"
)

var _ domain.VectorStore = (*MemoryVectorStore)(nil)

// MemoryVectorStore implements domain.VectorStore with a brute-force scan
type MemoryVectorStore struct {
	rows     map[string]vectorRow
	minScore float64
	mutex    sync.RWMutex
}

// NewMemoryVectorStore creates an empty in-memory vector index
func NewMemoryVectorStore(minScore float64) *MemoryVectorStore {
	return &MemoryVectorStore{
		rows:     make(map[string]vectorRow),
		minScore: minScore,
	}
}

// Upsert inserts or replaces the embedding stored under id
func (m *MemoryVectorStore) Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.rows[id] = vectorRow{
		id:        id,
		embedding: append([]float32(nil), embedding...),
		metadata:  maps.Clone(metadata),
	}
	return nil
}

// Query returns the k nearest rows to embedding
func (m *MemoryVectorStore) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorMatch, error) {
	m.mutex.RLock()
	rows := make([]vectorRow, 0, len(m.rows))
	for _, row := range m.rows {
		rows = append(rows, row)
	}
	m.mutex.RUnlock()

	return rankMatches(rows, embedding, k, m.minScore), nil
}

// Close drops all rows
func (m *MemoryVectorStore) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.rows = make(map[string]vectorRow)
	return nil
}
