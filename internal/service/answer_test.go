package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/llm"
)

// MockChatClient is a mock implementation of ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockVectorIndex is a mock implementation of VectorIndex
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) ReplaceChunks(ctx context.Context, sessionID string, chunks []domain.SourceChunk) error {
	args := m.Called(ctx, sessionID, chunks)
	return args.Error(0)
}

func (m *MockVectorIndex) Query(ctx context.Context, sessionID string, embedding []float32, k int) ([]domain.SourceChunk, error) {
	args := m.Called(ctx, sessionID, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceChunk), args.Error(1)
}

func (m *MockVectorIndex) DropChunks(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockVectorIndex) CountChunks(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func TestAnswerService_Answer(t *testing.T) {
	ctx := context.Background()
	queryEmbedding := []float32{0.5, 0.5}
	retrieved := []domain.SourceChunk{
		{Text: "transcript says X", SourceType: domain.SourceTranscript, Score: 0.9},
		{Text: "web says Y", SourceType: domain.SourceBackground, Score: 0.6},
	}

	t.Run("answers from retrieved chunks with source-tagged context", func(t *testing.T) {
		embedding := new(MockEmbeddingClient)
		embedding.On("GenerateEmbedding", mock.Anything, "what is X?").Return(queryEmbedding, nil)

		idx := new(MockVectorIndex)
		idx.On("Query", mock.Anything, "session-1", queryEmbedding, 6).Return(retrieved, nil)

		chat := new(MockChatClient)
		chat.On("Complete", mock.Anything, mock.MatchedBy(func(messages []llm.Message) bool {
			if len(messages) != 2 || messages[0].Role != llm.RoleSystem {
				return false
			}
			prompt := messages[1].Content
			return messages[1].Role == llm.RoleUser &&
				strings.Contains(prompt, "[transcript] transcript says X") &&
				strings.Contains(prompt, "[background] web says Y") &&
				strings.Contains(prompt, "QUESTION:\nwhat is X?")
		})).Return("X is explained in the video.", nil)

		svc := NewAnswerService(embedding, chat, idx, 6)
		answer, sources, err := svc.Answer(ctx, "session-1", "what is X?", nil)

		require.NoError(t, err)
		assert.Equal(t, "X is explained in the video.", answer)
		assert.Equal(t, retrieved, sources)
		chat.AssertExpectations(t)
	})

	t.Run("empty question is a validation error", func(t *testing.T) {
		svc := NewAnswerService(new(MockEmbeddingClient), new(MockChatClient), new(MockVectorIndex), 6)
		_, _, err := svc.Answer(ctx, "session-1", "   ", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	})

	t.Run("only the most recent turns feed follow-up context", func(t *testing.T) {
		history := make([]domain.ChatTurn, 6)
		for i := range history {
			history[i] = domain.ChatTurn{Question: "q", Answer: "a"}
		}

		embedding := new(MockEmbeddingClient)
		embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(queryEmbedding, nil)

		idx := new(MockVectorIndex)
		idx.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(retrieved, nil)

		chat := new(MockChatClient)
		// system + 4 history pairs + final prompt
		chat.On("Complete", mock.Anything, mock.MatchedBy(func(messages []llm.Message) bool {
			return len(messages) == 1+2*maxHistoryTurns+1
		})).Return("ok", nil)

		svc := NewAnswerService(embedding, chat, idx, 6)
		_, _, err := svc.Answer(ctx, "session-1", "follow-up?", history)

		require.NoError(t, err)
		chat.AssertExpectations(t)
	})

	t.Run("generation failure propagates without wrapping twice", func(t *testing.T) {
		embedding := new(MockEmbeddingClient)
		embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(queryEmbedding, nil)

		idx := new(MockVectorIndex)
		idx.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(retrieved, nil)

		chat := new(MockChatClient)
		chat.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrGenerationFailed)

		svc := NewAnswerService(embedding, chat, idx, 6)
		_, _, err := svc.Answer(ctx, "session-1", "question?", nil)

		require.ErrorIs(t, err, domain.ErrGenerationFailed)
		assert.False(t, domain.IsFatal(err))
	})

	t.Run("embedding failure maps to generation error", func(t *testing.T) {
		embedding := new(MockEmbeddingClient)
		embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, assertError{})

		svc := NewAnswerService(embedding, new(MockChatClient), new(MockVectorIndex), 6)
		_, _, err := svc.Answer(ctx, "session-1", "question?", nil)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeGenerationError, domainErr.Code)
	})
}

func TestSourceShares(t *testing.T) {
	t.Run("shares follow real retrieval scores", func(t *testing.T) {
		chunks := []domain.SourceChunk{
			{SourceType: domain.SourceTranscript, Score: 0.6},
			{SourceType: domain.SourceTranscript, Score: 0.2},
			{SourceType: domain.SourceBackground, Score: 0.2},
		}

		shares := SourceShares(chunks)
		assert.InDelta(t, 0.8, shares[domain.SourceTranscript], 1e-6)
		assert.InDelta(t, 0.2, shares[domain.SourceBackground], 1e-6)
	})

	t.Run("zero scores fall back to chunk counts", func(t *testing.T) {
		chunks := []domain.SourceChunk{
			{SourceType: domain.SourceTranscript},
			{SourceType: domain.SourceBackground},
		}

		shares := SourceShares(chunks)
		assert.InDelta(t, 0.5, shares[domain.SourceTranscript], 1e-6)
		assert.InDelta(t, 0.5, shares[domain.SourceBackground], 1e-6)
	})

	t.Run("no chunks means no shares", func(t *testing.T) {
		assert.Nil(t, SourceShares(nil))
	})
}

type assertError struct{}

func (assertError) Error() string { return "embedding api error" }
