package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kecarajocomer/internal/config"
	"kecarajocomer/internal/shared"

	"github.com/sashabaranov/go-openai"
)

// GroqClient talks to Groq through its OpenAI-compatible chat completions API.
type GroqClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewGroqClient creates a new Groq API client that answers in JSON.
func NewGroqClient(cfg *config.Config, temperature float32) *GroqClient {
	oc := openai.DefaultConfig(cfg.GroqAPIKey)
	if cfg.GroqAPIBase != "" {
		oc.BaseURL = cfg.GroqAPIBase
	}
	oc.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &GroqClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.GroqModel,
		temperature: temperature,
	}
}

// GenerateContent sends a prompt to the Groq model and returns the generated text.
func (c *GroqClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("groq api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			Model:            c.model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
