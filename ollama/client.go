// Package ollama wraps the Ollama management API for model listing and
// pulls. Chat streaming does not go through here; see the chat package.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"ahme/config"
)

type Client struct {
	client  *api.Client
	baseURL string
}

func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		baseURL: baseURL,
	}, nil
}

type ModelInfo struct {
	Name string
	Size int64
}

func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = ModelInfo{Name: m.Name, Size: m.Size}
	}
	return models, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// PullProgress reports one step of a model download. Percent is 0-100, or
// -1 while the total is still unknown.
type PullProgress struct {
	Status  string
	Percent float64
}

// Pull downloads a model, streaming progress to the callback. Cancelling
// ctx aborts the download; the callback is never invoked afterwards.
func (c *Client) Pull(ctx context.Context, name string, progress func(PullProgress)) error {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Ollama] pulling model %s", name)
	}

	req := &api.PullRequest{Model: name}
	err := c.client.Pull(ctx, req, func(resp api.ProgressResponse) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if progress != nil {
			pct := -1.0
			if resp.Total > 0 {
				pct = float64(resp.Completed) / float64(resp.Total) * 100
			}
			progress(PullProgress{Status: resp.Status, Percent: pct})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to pull model %s: %w", name, err)
	}
	return nil
}
