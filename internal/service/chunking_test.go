package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubesage/tubesage/internal/domain"
)

func TestChunkText(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 100, MinChars: 30, Overlap: 20, MaxChunks: 50}

	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := chunkText("short text", cfg)
		assert.Equal(t, []string{"short text"}, chunks)
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		assert.Nil(t, chunkText("   ", cfg))
	})

	t.Run("long text splits with overlap", func(t *testing.T) {
		words := strings.Repeat("word ", 100)
		chunks := chunkText(words, cfg)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), cfg.MaxChars)
			assert.NotEmpty(t, c)
		}
	})

	t.Run("cuts at whitespace", func(t *testing.T) {
		words := strings.Repeat("abcdefg ", 50)
		chunks := chunkText(words, cfg)
		for _, c := range chunks {
			assert.False(t, strings.HasSuffix(c, "abcde"), "chunk cut mid-word: %q", c)
		}
	})

	t.Run("respects max chunk count", func(t *testing.T) {
		small := ChunkConfig{MaxChars: 10, MinChars: 3, Overlap: 0, MaxChunks: 3}
		chunks := chunkText(strings.Repeat("aaaa bbbb ", 50), small)
		assert.Len(t, chunks, 3)
	})

	t.Run("handles multibyte runes", func(t *testing.T) {
		text := strings.Repeat("日本語のテキスト ", 40)
		chunks := chunkText(text, cfg)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), cfg.MaxChars)
		}
	})
}

func TestChunkBlocks(t *testing.T) {
	cfg := ChunkConfig{MaxChars: 50, MinChars: 10, Overlap: 10, MaxChunks: 100}

	t.Run("chunks inherit source tag and origin", func(t *testing.T) {
		blocks := []domain.SourceBlock{
			{Text: strings.Repeat("transcript words ", 20), SourceType: domain.SourceTranscript},
			{Text: "a background snippet", SourceType: domain.SourceBackground, OriginURL: "https://example.com/a"},
		}

		chunks := ChunkBlocks(blocks, cfg)
		require.NotEmpty(t, chunks)

		var sawBackground bool
		for _, c := range chunks {
			switch c.SourceType {
			case domain.SourceTranscript:
				assert.Empty(t, c.OriginURL)
			case domain.SourceBackground:
				sawBackground = true
				assert.Equal(t, "https://example.com/a", c.OriginURL)
			default:
				t.Fatalf("unexpected source type %s", c.SourceType)
			}
		}
		assert.True(t, sawBackground)
	})

	t.Run("chunk index runs across blocks", func(t *testing.T) {
		blocks := []domain.SourceBlock{
			{Text: "first block", SourceType: domain.SourceTranscript},
			{Text: "second block", SourceType: domain.SourceBackground},
			{Text: "third block", SourceType: domain.SourceAcademic},
		}

		chunks := ChunkBlocks(blocks, cfg)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.ChunkIndex)
		}
	})

	t.Run("a chunk never mixes source types", func(t *testing.T) {
		blocks := []domain.SourceBlock{
			{Text: strings.Repeat("alpha ", 30), SourceType: domain.SourceTranscript},
			{Text: strings.Repeat("beta ", 30), SourceType: domain.SourceCurrent},
		}

		chunks := ChunkBlocks(blocks, cfg)
		for _, c := range chunks {
			if c.SourceType == domain.SourceTranscript {
				assert.NotContains(t, c.Text, "beta")
			} else {
				assert.NotContains(t, c.Text, "alpha")
			}
		}
	})

	t.Run("no blocks means no chunks", func(t *testing.T) {
		assert.Empty(t, ChunkBlocks(nil, cfg))
	})
}
