package service

import (
	"context"
	"fmt"

	"github.com/tubesage/tubesage/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex defines the per-session chunk store. Satisfied by the
// in-memory index and the pgvector repository.
type VectorIndex interface {
	ReplaceChunks(ctx context.Context, sessionID string, chunks []domain.SourceChunk) error
	Query(ctx context.Context, sessionID string, embedding []float32, k int) ([]domain.SourceChunk, error)
	DropChunks(ctx context.Context, sessionID string) error
	CountChunks(ctx context.Context, sessionID string) (int, error)
}

// IndexService embeds chunks and builds the session's vector index.
type IndexService struct {
	client EmbeddingClient
	index  VectorIndex
	cfg    ChunkConfig
}

// NewIndexService creates a new IndexService instance
func NewIndexService(client EmbeddingClient, index VectorIndex, cfg ChunkConfig) *IndexService {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &IndexService{client: client, index: index, cfg: cfg}
}

// BuildIndex chunks the aggregated blocks, embeds every chunk, and
// replaces the session's index in one pass. The old index is always
// discarded whole; there is no incremental update path. Producing zero
// chunks is an indexing failure, fatal to session setup.
func (s *IndexService) BuildIndex(ctx context.Context, sessionID string, blocks []domain.SourceBlock) ([]domain.SourceChunk, error) {
	chunks := ChunkBlocks(blocks, s.cfg)
	if len(chunks) == 0 {
		return nil, domain.ErrIndexingFailed
	}

	for i := range chunks {
		chunks[i].SessionID = sessionID
		embedding, err := s.client.GenerateEmbedding(ctx, chunks[i].Text)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexingFailure,
				fmt.Sprintf("failed to embed chunk %d", chunks[i].ChunkIndex), err)
		}
		chunks[i].Embedding = embedding
	}

	if err := s.index.ReplaceChunks(ctx, sessionID, chunks); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexingFailure, "failed to store chunks", err)
	}

	return chunks, nil
}
