// Package chat issues requests against a locally hosted inference server
// and reduces the incremental response stream into a single growing reply.
//
// Two backends are supported through one client: the native server API
// (/api/chat) and an OpenAI-compatible gateway (/chat/completions) with
// bearer auth. Both answer with newline-delimited JSON fragments; the
// stream consumer in stream.go understands both fragment shapes.
package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorDisplay bounds server error text surfaced to the user so a large
// HTML error page cannot flood the panel.
const maxErrorDisplay = 200

// Conversation roles on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn as submitted to the server.
type Message struct {
	Role    string
	Content string
}

// Request is one chat turn ready for submission.
type Request struct {
	Model    string
	Messages []Message
	Images   []string // base64 payloads, no transmission prefix
}

// Client talks to the inference server.
type Client struct {
	baseURL    string
	gatewayURL string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for a native server at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// UseGateway routes requests through an OpenAI-compatible gateway instead
// of the native endpoint. An empty url switches back to native.
func (c *Client) UseGateway(url, apiKey string) {
	c.gatewayURL = strings.TrimSuffix(url, "/")
	c.apiKey = apiKey
}

type wireMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// encode marshals the request body. Images ride on the last user message,
// which is where the server expects them.
func (r Request) encode() ([]byte, error) {
	messages := make([]wireMessage, len(r.Messages))
	for i, m := range r.Messages {
		messages[i] = wireMessage{Role: m.Role, Content: m.Content}
	}
	if len(r.Images) > 0 {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == RoleUser {
				messages[i].Images = r.Images
				break
			}
		}
	}
	return json.Marshal(chatRequest{Model: r.Model, Messages: messages, Stream: true})
}

func (c *Client) endpoint() (url string, bearer string) {
	if c.gatewayURL != "" {
		return c.gatewayURL + "/chat/completions", c.apiKey
	}
	return c.baseURL + "/api/chat", ""
}

// errorText extracts the best human-readable reason from a non-2xx body:
// a JSON error field when present, otherwise the raw body, both bounded.
func errorText(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return truncateForDisplay(payload.Error)
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return truncateForDisplay(nested.Error.Message)
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Sprintf("HTTP %d - %s", status, truncateForDisplay(raw))
}

func truncateForDisplay(s string) string {
	if len(s) <= maxErrorDisplay {
		return s
	}
	return s[:maxErrorDisplay] + "..."
}
