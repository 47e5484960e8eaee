package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ahme/config"
)

// State tracks a streamed response through its lifecycle. Every call to
// Stream reaches exactly one of the three terminal states.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one streamed request. Content holds whatever
// was accumulated, including partial output on abort or failure. Err is set
// only when State is StateFailed; a user cancellation is StateAborted with
// a nil Err, so it can never be mistaken for a genuine failure.
type Result struct {
	State   State
	Content string
	Err     error
}

func failed(content string, err error) Result {
	return Result{State: StateFailed, Content: content, Err: err}
}

func aborted(content string) Result {
	return Result{State: StateAborted, Content: content}
}

// fragment is one decoded stream record. The two recognized wire shapes
// share this struct: the native shape fills Message, the OpenAI-delta shape
// fills Choices.
type fragment struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Content extractors are tried in priority order; the first non-empty match
// wins. This keeps the two supported wire formats isolated so each can be
// tested on its own.
type extractor func(f *fragment) (string, bool)

var contentExtractors = []extractor{extractNative, extractDelta}

func extractNative(f *fragment) (string, bool) {
	if f.Message != nil && f.Message.Content != "" {
		return f.Message.Content, true
	}
	return "", false
}

func extractDelta(f *fragment) (string, bool) {
	if len(f.Choices) > 0 && f.Choices[0].Delta.Content != "" {
		return f.Choices[0].Delta.Content, true
	}
	return "", false
}

// Stream sends req and reduces the response stream. onChunk is invoked
// synchronously for every content fragment, in arrival order, so the caller
// observes the reply as it grows. Cancelling ctx aborts the transport and
// yields StateAborted with the partial content; it is never reported as a
// failure. The response body is released on every exit path.
func (c *Client) Stream(ctx context.Context, req Request, onChunk func(chunk string)) Result {
	body, err := req.encode()
	if err != nil {
		return failed("", err)
	}

	url, bearer := c.endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return failed("", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] POST %s (model: %s, messages: %d, images: %d)",
			url, req.Model, len(req.Messages), len(req.Images))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return aborted("")
		}
		return failed("", fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return failed("", errors.New(errorText(resp.StatusCode, raw)))
	}

	return c.consume(ctx, resp.Body, onChunk)
}

// consume reads newline-delimited JSON fragments and accumulates content.
// Fragments that fail to parse are skipped: partial records at chunk
// boundaries are expected, not an error.
func (c *Client) consume(ctx context.Context, r io.Reader, onChunk func(string)) Result {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var content strings.Builder

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return aborted(content.String())
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// The gateway frames fragments as SSE events.
		line = strings.TrimPrefix(line, "data: ")
		if line == "[DONE]" {
			return Result{State: StateCompleted, Content: content.String()}
		}

		f, ok := decodeFragment(line)
		if !ok {
			continue
		}

		if f.Error != "" {
			return failed(content.String(), errors.New(truncateForDisplay(f.Error)))
		}

		for _, extract := range contentExtractors {
			if chunk, ok := extract(f); ok {
				content.WriteString(chunk)
				if onChunk != nil {
					onChunk(chunk)
				}
				break
			}
		}

		if f.Done {
			return Result{State: StateCompleted, Content: content.String()}
		}
	}

	if err := scanner.Err(); err != nil {
		// A cancelled context closes the body mid-read and surfaces here
		// as an IO error; report the abort, not a failure.
		if ctx.Err() != nil {
			return aborted(content.String())
		}
		return failed(content.String(), fmt.Errorf("stream interrupted: %w", err))
	}

	// Stream ended without an explicit completion flag.
	return Result{State: StateCompleted, Content: content.String()}
}

func decodeFragment(line string) (*fragment, bool) {
	var f fragment
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return nil, false
	}
	return &f, true
}
