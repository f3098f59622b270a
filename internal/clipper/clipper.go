package clipper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/recipe"
	"kecarajocomer/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// maxPageText bounds the page text sent to the model.
const maxPageText = 20000

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// RecipeSaver persists imported recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) (string, error)
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	recipes    RecipeSaver
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, recipes RecipeSaver) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
		recipes:    recipes,
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and saves it to
// the recipe catalog. The saved recipe is returned with its ID.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, shared.AgentMeta, error) {
	page, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	rec, meta, err := recipe.Extract(ctx, c.textGen, page)
	if err != nil {
		return nil, meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	id, err := c.recipes.Save(ctx, rec)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to save recipe: %w", err)
	}
	rec.ID = id
	return &rec, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (recipe.PageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return recipe.PageData{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recipe.PageData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recipe.PageData{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return recipe.PageData{}, err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads, .comments, #comments").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	text = truncateRunes(text, maxPageText)
	return recipe.PageData{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  text,
	}, nil
}

// FormatMessage renders a recipe with the HTML subset Telegram accepts.
func FormatMessage(r recipe.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(r.Title))
	if r.Source != "" && r.Source != "ai" {
		fmt.Fprintf(&sb, "<i>Importada de: %s</i>\n", html.EscapeString(r.Source))
	}

	sb.WriteString("\n<b>Ingredientes</b>\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s: %g %s\n", html.EscapeString(ing.Name), ing.Quantity, html.EscapeString(ing.Unit))
	}

	sb.WriteString("\n<b>Preparación</b>\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(step))
	}

	if r.PrepTime != "" || r.Servings > 0 {
		fmt.Fprintf(&sb, "\n⏱ %s | 🍽 %d porciones", html.EscapeString(r.PrepTime), r.Servings)
	}
	return sb.String()
}
