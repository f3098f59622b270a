// Package llmtest provides a scripted TextGenerator for tests.
package llmtest

import (
	"context"
	"sync"

	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/shared"
)

// TextGen returns Content for every call, or Err when set, and records
// the prompts it received.
type TextGen struct {
	Content string
	Usage   shared.TokenUsage
	Err     error

	mu      sync.Mutex
	prompts []string
}

func (m *TextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Content, Usage: m.Usage}, nil
}

// Prompts returns the prompts seen so far.
func (m *TextGen) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
