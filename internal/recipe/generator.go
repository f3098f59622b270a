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

//go:embed suggest_prompt.md
var suggestPrompt string

var suggestTemplate = template.Must(template.New("suggest").Parse(suggestPrompt))

const defaultServings = 2

// SuggestRequest describes what the user has and wants to cook.
type SuggestRequest struct {
	PantryItems []string `json:"pantry_items"`
	Preferences string   `json:"preferences"`
	Servings    int      `json:"servings"`
}

// Generator creates new recipes with an LLM.
type Generator struct {
	textGen llm.TextGenerator
	now     func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(textGen llm.TextGenerator) *Generator {
	return &Generator{textGen: textGen, now: time.Now}
}

// Suggest asks the model for one recipe that favors the given pantry items.
// The returned recipe is not persisted and has no ID.
func (g *Generator) Suggest(ctx context.Context, req SuggestRequest) (*Recipe, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Suggester"}

	if req.Servings <= 0 {
		req.Servings = defaultServings
	}

	var buf bytes.Buffer
	if err := suggestTemplate.Execute(&buf, req); err != nil {
		return nil, meta, fmt.Errorf("failed to build suggest prompt: %w", err)
	}

	resp, err := g.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, meta, fmt.Errorf("failed to generate recipe: %w", err)
	}
	meta.Usage = resp.Usage

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp.Content)), &rec); err != nil {
		return nil, meta, fmt.Errorf("failed to parse recipe JSON: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, meta, fmt.Errorf("generated recipe is incomplete: %w", err)
	}

	if rec.Servings <= 0 {
		rec.Servings = req.Servings
	}
	rec.ID = ""
	rec.Source = "ai"
	rec.UpdatedAt = g.now().UTC().Format(time.RFC3339)
	meta.Latency = time.Since(start)
	return &rec, meta, nil
}
