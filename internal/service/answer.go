package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tubesage/tubesage/internal/domain"
	"github.com/tubesage/tubesage/internal/llm"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 6

// maxHistoryTurns bounds how many recent chat turns feed follow-up context.
const maxHistoryTurns = 4

// ChatClient defines the interface for chat completion
type ChatClient interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// AnswerService answers questions from the session's index via the
// hosted LLM, attributing the chunks actually retrieved.
type AnswerService struct {
	embedding EmbeddingClient
	chat      ChatClient
	index     VectorIndex
	topK      int
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(embedding EmbeddingClient, chat ChatClient, index VectorIndex, topK int) *AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnswerService{
		embedding: embedding,
		chat:      chat,
		index:     index,
		topK:      topK,
	}
}

const answerSystemPrompt = `You are an expert assistant analyzing YouTube video content.

SOURCES IN CONTEXT:
1. VIDEO TRANSCRIPT (primary source - most reliable)
2. WEB CONTEXT (background, discussions, research - supporting info)

INSTRUCTIONS:
- Answer based only on the context provided
- Prioritize transcript information
- Use web context for additional background
- If the information is not in the context, say so clearly
- Be explicit when you are extrapolating beyond the context
- Cite the source type when relevant (e.g. "According to the transcript..." or "Web sources suggest...")`

// Answer retrieves the top-K chunks for the question, sends them with
// recent history to the LLM, and returns the answer together with the
// exact chunks used. A failed or empty completion is a GENERATION_ERROR;
// the caller's session and history stay intact.
func (s *AnswerService) Answer(ctx context.Context, sessionID, question string, history []domain.ChatTurn) (string, []domain.SourceChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, domain.ErrEmptyQuestion
	}

	queryEmbedding, err := s.embedding.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeGenerationError, "failed to embed question", err)
	}

	retrieved, err := s.index.Query(ctx, sessionID, queryEmbedding, s.topK)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeGenerationError, "retrieval failed", err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: answerSystemPrompt},
	}
	for _, turn := range recentTurns(history, maxHistoryTurns) {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.Question},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: buildAnswerPrompt(question, retrieved),
	})

	answer, err := s.chat.Complete(ctx, messages)
	if err != nil {
		return "", nil, err
	}

	return answer, retrieved, nil
}

func buildAnswerPrompt(question string, chunks []domain.SourceChunk) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "[%s] %s\n\n", c.SourceType, c.Text)
	}
	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}

func recentTurns(history []domain.ChatTurn, max int) []domain.ChatTurn {
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

// SourceShares computes the share of total retrieval score per source
// type for one answer's chunks. Shares come from the real similarity
// scores the index returned, not an assumed weighting.
func SourceShares(chunks []domain.SourceChunk) map[domain.SourceType]float32 {
	if len(chunks) == 0 {
		return nil
	}

	var total float32
	for _, c := range chunks {
		if c.Score > 0 {
			total += c.Score
		}
	}

	shares := make(map[domain.SourceType]float32)
	if total == 0 {
		// No scores available; fall back to chunk counts.
		for _, c := range chunks {
			shares[c.SourceType] += 1.0 / float32(len(chunks))
		}
		return shares
	}
	for _, c := range chunks {
		if c.Score > 0 {
			shares[c.SourceType] += c.Score / total
		}
	}
	return shares
}
