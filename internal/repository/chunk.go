package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/tubesage/tubesage/internal/domain"
)

// ChunkRepository persists session chunk embeddings in pgvector. It
// satisfies the same interface as the in-memory index, so sessions can
// run against either backend.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceChunks deletes existing chunks for a session and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, sessionID string, chunks []domain.SourceChunk) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM session_chunks WHERE session_id = $1`, sessionID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO session_chunks
				(session_id, chunk_index, content, source_type, origin_url, embedding)
			 VALUES
				($1, $2, $3, $4, $5, $6)`,
			sessionID,
			c.ChunkIndex,
			c.Text,
			string(c.SourceType),
			nullableString(c.OriginURL),
			pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Query returns the top-k chunks for a session by embedding similarity.
func (r *ChunkRepository) Query(ctx context.Context, sessionID string, embedding []float32, k int) ([]domain.SourceChunk, error) {
	if k <= 0 {
		k = 6
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, chunk_index, content, source_type, origin_url,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM session_chunks
		 WHERE session_id = $2
		 ORDER BY score DESC
		 LIMIT $3`,
		pgvector.NewVector(embedding), sessionID, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SourceChunk
	for rows.Next() {
		var chunk domain.SourceChunk
		var sourceType string
		var originURL *string
		if err := rows.Scan(&chunk.ID, &chunk.ChunkIndex, &chunk.Text, &sourceType, &originURL, &chunk.Score); err != nil {
			return nil, err
		}
		chunk.SessionID = sessionID
		chunk.SourceType = domain.SourceType(sourceType)
		if originURL != nil {
			chunk.OriginURL = *originURL
		}
		results = append(results, chunk)
	}

	return results, rows.Err()
}

// DropChunks removes all chunks stored for a session.
func (r *ChunkRepository) DropChunks(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM session_chunks WHERE session_id = $1`, sessionID)
	return err
}

// CountChunks returns the number of chunks stored for a session.
func (r *ChunkRepository) CountChunks(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_chunks WHERE session_id = $1`, sessionID,
	).Scan(&count)
	return count, err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
