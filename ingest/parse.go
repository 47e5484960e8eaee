package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ahme/config"
)

// Parser uploads document bytes to an extraction service and returns the
// extracted text. The service truncates at its own character ceiling and
// flags when it does.
type Parser struct {
	url    string
	client *http.Client
}

func NewParser(url string) *Parser {
	return &Parser{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type parseResponse struct {
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
	Error     string `json:"error"`
}

// Parse sends one file as multipart/form-data. The size ceiling is checked
// before the upload; a 413 from the service maps to the same rejection.
func (p *Parser) Parse(ctx context.Context, name string, data []byte) (string, bool, error) {
	if len(data) > MaxUploadBytes {
		return "", false, ErrTooLarge
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", false, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", false, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", false, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url, &body)
	if err != nil {
		return "", false, fmt.Errorf("failed to build parse request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Parse] POST %s (%s, %d bytes)", p.url, name, len(data))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("parse request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return "", false, fmt.Errorf("failed to read parse response: %w", err)
	}

	var parsed parseResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", false, ErrTooLarge

	case resp.StatusCode != http.StatusOK:
		if decodeErr == nil && parsed.Error != "" {
			return "", false, fmt.Errorf("parse failed: %s", parsed.Error)
		}
		return "", false, fmt.Errorf("parse failed: HTTP %d", resp.StatusCode)

	case decodeErr != nil:
		return "", false, fmt.Errorf("invalid parse response: %w", decodeErr)
	}

	// The service already truncates and flags; re-apply the ceiling in case
	// it is configured with a higher one.
	text, truncated := TruncateText(parsed.Text)
	return text, truncated || parsed.Truncated, nil
}
