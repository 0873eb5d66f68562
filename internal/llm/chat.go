package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tubesage/tubesage/internal/domain"
)

// DefaultChatModel is the Groq model used when none is configured.
const DefaultChatModel = "llama-3.3-70b-versatile"

// Message is one prompt message with its role.
type Message struct {
	Role    string
	Content string
}

// Message roles.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClient generates answers through an OpenAI-compatible chat endpoint.
type ChatClient struct {
	api   ChatAPI
	model string
}

// ChatConfig holds chat endpoint configuration.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewChatClient creates a chat client. BaseURL should point at Groq's
// OpenAI-compatible endpoint in production.
func NewChatClient(cfg ChatConfig) *ChatClient {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &ChatClient{
		api:   openai.NewClientWithConfig(clientCfg),
		model: model,
	}
}

// NewChatClientWithAPI creates a chat client over a caller-supplied API.
// Used by tests.
func NewChatClientWithAPI(api ChatAPI, model string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{api: api, model: model}
}

// Complete sends the messages and returns the generated text. An API
// error or an empty completion maps to GENERATION_ERROR.
func (c *ChatClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGenerationError, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrGenerationFailed
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", domain.ErrGenerationFailed
	}
	return answer, nil
}
