package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

// PageData is the readable content of a recipe web page.
type PageData struct {
	URL   string
	Title string
	Text  string
}

// Extract turns page content into a structured recipe using an LLM.
// The returned recipe has no ID and carries the page URL as Source.
func Extract(ctx context.Context, textGen llm.TextGenerator, data PageData) (Recipe, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Extractor"}

	var buf bytes.Buffer
	if err := extractorTemplate.Execute(&buf, data); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	resp, err := textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp.Content)), &rec); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Recipe{}, meta, fmt.Errorf("extracted recipe is incomplete: %w", err)
	}

	rec.ID = ""
	rec.Source = data.URL
	meta.Latency = time.Since(start)
	return rec, meta, nil
}
