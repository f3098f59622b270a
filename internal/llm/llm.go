package llm

import (
	"context"
	"fmt"
	"strings"

	"kecarajocomer/internal/config"
	"kecarajocomer/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// CleanJSON strips a markdown code fence the model may wrap JSON in.
func CleanJSON(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// NewTextGenerator builds the client for the configured provider. Callers
// release it through Closer when it implements one.
func NewTextGenerator(ctx context.Context, cfg *config.Config, temperature float32) (TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		return NewGroqClient(cfg, temperature), nil
	case config.ProviderGemini, "":
		client, err := NewGeminiClient(ctx, cfg, temperature)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
