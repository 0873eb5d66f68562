package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingAPI is a mock implementation of EmbeddingAPI
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestEmbedder_GenerateEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the embedding when dimensions match", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, "some text").Return([]float32{0.1, 0.2, 0.3}, nil)

		embedder := NewEmbedderWithAPI(api, 3)
		embedding, err := embedder.GenerateEmbedding(ctx, "some text")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
		assert.Equal(t, 3, embedder.Dimensions())
	})

	t.Run("rejects empty text", func(t *testing.T) {
		embedder := NewEmbedderWithAPI(new(MockEmbeddingAPI), 3)
		_, err := embedder.GenerateEmbedding(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)

		embedder := NewEmbedderWithAPI(api, 3)
		_, err := embedder.GenerateEmbedding(ctx, "text")
		assert.ErrorIs(t, err, ErrWrongDimensions)
	})

	t.Run("wraps api errors", func(t *testing.T) {
		api := new(MockEmbeddingAPI)
		api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

		embedder := NewEmbedderWithAPI(api, 3)
		_, err := embedder.GenerateEmbedding(ctx, "text")
		assert.ErrorContains(t, err, "failed to create embedding")
	})
}

func TestNewEmbedder(t *testing.T) {
	t.Run("requires an api key", func(t *testing.T) {
		_, err := NewEmbedder(EmbedderConfig{})
		assert.ErrorIs(t, err, ErrNoAPIKey)
	})

	t.Run("defaults dimensions", func(t *testing.T) {
		embedder, err := NewEmbedder(EmbedderConfig{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, DefaultEmbeddingDimensions, embedder.Dimensions())
	})
}
