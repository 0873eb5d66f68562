package service

import (
	"strings"
	"unicode"

	"github.com/tubesage/tubesage/internal/domain"
)

// ChunkConfig controls how aggregated source blocks are split.
type ChunkConfig struct {
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:  1500,
		MinChars:  400,
		Overlap:   300,
		MaxChunks: 200,
	}
}

// ChunkBlocks splits each source block into overlapping chunks. Every
// chunk inherits the block's source tag and origin URL; a chunk never
// spans two blocks, so it never mixes source types. ChunkIndex runs
// across the whole session.
func ChunkBlocks(blocks []domain.SourceBlock, cfg ChunkConfig) []domain.SourceChunk {
	var chunks []domain.SourceChunk
	for _, block := range blocks {
		for _, text := range chunkText(block.Text, cfg) {
			chunks = append(chunks, domain.SourceChunk{
				ChunkIndex: len(chunks),
				Text:       text,
				SourceType: block.SourceType,
				OriginURL:  block.OriginURL,
			})
		}
	}
	return chunks
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 {
			if end-start > cfg.Overlap {
				nextStart = end - cfg.Overlap
			}
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
