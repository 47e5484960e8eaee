// Package search fetches a short web-search summary to fold into a prompt.
//
// Augmentation is strictly best-effort: the augmenter either returns up to
// three results within its deadline or reports that the step was skipped,
// with a reason. It never returns an error and never blocks a turn beyond
// the deadline.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ahme/config"
)

const (
	defaultEndpoint = "https://api.tavily.com/search"
	defaultDeadline = 3 * time.Second

	maxResults    = 3
	maxSnippetLen = 200
)

// Item is one search hit, trimmed for prompt injection.
type Item struct {
	Title   string
	URL     string
	Content string
}

// Result is the outcome of one augmentation attempt. Skipped means the
// step was intentionally not performed; Reason says why.
type Result struct {
	Results []Item
	Answer  string
	Skipped bool
	Reason  string
}

func skip(reason string) Result {
	return Result{Skipped: true, Reason: reason}
}

// Augmenter queries the search service with a fixed deadline.
type Augmenter struct {
	apiKey   string
	endpoint string
	deadline time.Duration
	client   *http.Client
}

// NewAugmenter creates an augmenter. An empty apiKey is allowed; every
// query then short-circuits to a skip without a network call.
func NewAugmenter(apiKey string) *Augmenter {
	return &Augmenter{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		deadline: defaultDeadline,
		client:   &http.Client{},
	}
}

// SetEndpoint overrides the search service URL (used by tests).
func (a *Augmenter) SetEndpoint(url string) {
	a.endpoint = url
}

// SetDeadline overrides the per-query deadline.
func (a *Augmenter) SetDeadline(d time.Duration) {
	if d > 0 {
		a.deadline = d
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
	Answer string `json:"answer"`
}

// Query runs one search. Every failure mode (missing credential, blank
// query, timeout, transport error, bad status, bad body) collapses into a
// skip result; the caller can always proceed with prompt assembly.
func (a *Augmenter) Query(ctx context.Context, query string) Result {
	if a.apiKey == "" {
		return skip("search API key not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return skip("empty query")
	}

	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	body, err := json.Marshal(searchRequest{
		APIKey:        a.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return skip(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(body))
	if err != nil {
		return skip(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Search] timeout after %v, skipping", a.deadline)
			}
			return skip(fmt.Sprintf("timeout after %v", a.deadline))
		}
		return skip(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return skip(fmt.Sprintf("search API error: %d", resp.StatusCode))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return skip(err.Error())
	}

	result := Result{Answer: parsed.Answer}
	for i, r := range parsed.Results {
		if i >= maxResults {
			break
		}
		snippet := r.Content
		if runes := []rune(snippet); len(runes) > maxSnippetLen {
			snippet = string(runes[:maxSnippetLen])
		}
		result.Results = append(result.Results, Item{
			Title:   r.Title,
			URL:     r.URL,
			Content: snippet,
		})
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Search] %d results, answer=%v", len(result.Results), parsed.Answer != "")
	}
	return result
}
