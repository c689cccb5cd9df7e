package fallback

import (
	"context"
	"fmt"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// searchResultCount caps how many results feed the snippet summary.
const searchResultCount = 5

// WebSearcher answers interaction queries with Google Custom Search
// snippets. It satisfies Searcher.
type WebSearcher struct {
	service  *customsearch.Service
	engineID string
}

// NewWebSearcher builds the collaborator from an API key and a custom
// search engine id.
func NewWebSearcher(ctx context.Context, apiKey, engineID string) (*WebSearcher, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("custom search requires both an API key and an engine id")
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	return &WebSearcher{service: service, engineID: engineID}, nil
}

// Search issues the query and condenses the top snippets into one summary.
// An empty summary with a nil error means the web had nothing usable; the
// orchestrator treats that as an inconclusive stage.
func (w *WebSearcher) Search(ctx context.Context, query string) (string, error) {
	resp, err := w.service.Cse.List().
		Cx(w.engineID).
		Q(query).
		Num(searchResultCount).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("custom search failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}

	return summarizeSnippets(resp.Items), nil
}

// summarizeSnippets joins result snippets into one block of prose,
// collapsing whitespace so keyword matching downstream sees clean text.
func summarizeSnippets(items []*customsearch.Result) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		snippet := strings.Join(strings.Fields(item.Snippet), " ")
		if snippet == "" {
			continue
		}
		parts = append(parts, snippet)
	}
	return strings.Join(parts, " ")
}
