package osint

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionRequest is a single system + user prompt exchange
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Usage reports the tokens consumed by a completion
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Completion is the model's answer
type Completion struct {
	Text  string
	Usage Usage
}

// LLMClient defines the interface to a chat-completion provider
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// OpenAIClient implements LLMClient on the OpenAI chat completions API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient returns nil when no API key is configured
func NewOpenAIClient(apiKey, model string) LLMClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// Complete implements LLMClient
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return &Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
