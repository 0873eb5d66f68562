// Package index provides the in-memory vector index used when no
// database is configured. Chunks and embeddings live side by side per
// session and are discarded wholesale on rebuild.
package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tubesage/tubesage/internal/domain"
)

// Memory is a per-session in-memory cosine-similarity index.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]domain.SourceChunk
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]domain.SourceChunk)}
}

// ReplaceChunks discards any chunks stored for the session and stores the
// new set. Rebuilds are whole-index, never incremental.
func (m *Memory) ReplaceChunks(ctx context.Context, sessionID string, chunks []domain.SourceChunk) error {
	stored := make([]domain.SourceChunk, len(chunks))
	copy(stored, chunks)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = stored
	return nil
}

// Query returns the top-k chunks for the session by cosine similarity,
// highest first, with Score populated.
func (m *Memory) Query(ctx context.Context, sessionID string, embedding []float32, k int) ([]domain.SourceChunk, error) {
	m.mu.RLock()
	chunks := m.sessions[sessionID]
	m.mu.RUnlock()

	if len(chunks) == 0 || k <= 0 {
		return nil, nil
	}

	scored := make([]domain.SourceChunk, 0, len(chunks))
	for _, c := range chunks {
		c.Score = cosineSimilarity(embedding, c.Embedding)
		scored = append(scored, c)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// DropChunks removes everything stored for the session.
func (m *Memory) DropChunks(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// CountChunks returns the number of chunks stored for the session.
func (m *Memory) CountChunks(ctx context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID]), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
