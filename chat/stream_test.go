package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer is not a flusher")
		}
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

func userRequest(text string) Request {
	return Request{
		Model: "llama3.1:latest",
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: text},
		},
	}
}

func TestStreamNativeShape(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"content":"Hel"},"done":false}`,
		`{"message":{"content":"lo "},"done":false}`,
		`{"message":{"content":"world"},"done":true}`,
	})
	defer srv.Close()

	var chunks []string
	result := NewClient(srv.URL).Stream(context.Background(), userRequest("hi"), func(c string) {
		chunks = append(chunks, c)
	})

	if result.State != StateCompleted {
		t.Fatalf("state = %v, want completed", result.State)
	}
	if result.Content != "Hello world" {
		t.Errorf("content = %q, want %q", result.Content, "Hello world")
	}
	if got := strings.Join(chunks, ""); got != result.Content {
		t.Errorf("chunk concatenation %q differs from content %q", got, result.Content)
	}
	if len(chunks) != 3 {
		t.Errorf("got %d chunks, want 3", len(chunks))
	}
}

func TestStreamDeltaShape(t *testing.T) {
	srv := streamServer(t, []string{
		`data: {"choices":[{"delta":{"content":"foo"}}]}`,
		`data: {"choices":[{"delta":{"content":"bar"}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	client := NewClient("http://ignored")
	client.UseGateway(srv.URL, "test-key")

	result := client.Stream(context.Background(), userRequest("hi"), nil)
	if result.State != StateCompleted {
		t.Fatalf("state = %v, want completed", result.State)
	}
	if result.Content != "foobar" {
		t.Errorf("content = %q, want %q", result.Content, "foobar")
	}
}

func TestStreamSkipsMalformedFragments(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"content":"keep"},"done":false}`,
		`{"message":{"content":"thi`, // split record, never completed
		`not json at all`,
		`{"message":{"content":" this"},"done":true}`,
	})
	defer srv.Close()

	result := NewClient(srv.URL).Stream(context.Background(), userRequest("hi"), nil)
	if result.State != StateCompleted {
		t.Fatalf("state = %v, want completed", result.State)
	}
	if result.Content != "keep this" {
		t.Errorf("content = %q, want %q", result.Content, "keep this")
	}
}

func TestStreamErrorFragment(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"content":"partial "},"done":false}`,
		`{"error":"model exploded"}`,
		`{"message":{"content":"never seen"},"done":true}`,
	})
	defer srv.Close()

	result := NewClient(srv.URL).Stream(context.Background(), userRequest("hi"), nil)
	if result.State != StateFailed {
		t.Fatalf("state = %v, want failed", result.State)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "model exploded") {
		t.Errorf("err = %v, want server error text", result.Err)
	}
	// Partial content stays visible.
	if result.Content != "partial " {
		t.Errorf("content = %q, want partial output retained", result.Content)
	}
}

func TestStreamEndsWithoutDoneFlag(t *testing.T) {
	srv := streamServer(t, []string{
		`{"message":{"content":"all"},"done":false}`,
	})
	defer srv.Close()

	result := NewClient(srv.URL).Stream(context.Background(), userRequest("hi"), nil)
	if result.State != StateCompleted {
		t.Fatalf("state = %v, want completed", result.State)
	}
	if result.Content != "all" {
		t.Errorf("content = %q, want %q", result.Content, "all")
	}
}

func TestStreamNon2xx(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "json error field",
			status:  http.StatusBadRequest,
			body:    `{"error":"model not found"}`,
			wantErr: "model not found",
		},
		{
			name:    "nested error message",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"message":"upstream busy"}}`,
			wantErr: "upstream busy",
		},
		{
			name:    "raw body fallback",
			status:  http.StatusBadGateway,
			body:    "<html>gateway timeout page</html>",
			wantErr: "HTTP 502",
		},
		{
			name:    "overlong body is bounded",
			status:  http.StatusInternalServerError,
			body:    strings.Repeat("x", 5000),
			wantErr: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			result := NewClient(srv.URL).Stream(context.Background(), userRequest("hi"), nil)
			if result.State != StateFailed {
				t.Fatalf("state = %v, want failed", result.State)
			}
			if result.Err == nil || !strings.Contains(result.Err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", result.Err, tt.wantErr)
			}
			if len(result.Err.Error()) > maxErrorDisplay+32 {
				t.Errorf("error text too long for display: %d chars", len(result.Err.Error()))
			}
		})
	}
}

func TestStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"message":{"content":"one "},"done":false}`)
		flusher.Flush()
		fmt.Fprintln(w, `{"message":{"content":"two"},"done":false}`)
		flusher.Flush()
		// Hold the stream open until the client gives up.
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	var chunks int
	result := NewClient(srv.URL).Stream(ctx, userRequest("hi"), func(string) {
		chunks++
		if chunks == 2 {
			cancel()
		}
	})

	if result.State != StateAborted {
		t.Fatalf("state = %v, want aborted", result.State)
	}
	if result.Err != nil {
		t.Errorf("cancellation produced an error: %v", result.Err)
	}
	if result.Content != "one two" {
		t.Errorf("content = %q, want the two observed chunks", result.Content)
	}
}

func TestRequestEncodeAttachesImages(t *testing.T) {
	req := Request{
		Model: "llava:13b",
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "earlier"},
			{Role: RoleAssistant, Content: "reply"},
			{Role: RoleUser, Content: "what is this?"},
		},
		Images: []string{"QUJD"},
	}

	body, err := req.encode()
	if err != nil {
		t.Fatal(err)
	}

	var decoded chatRequest
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Stream {
		t.Error("stream flag not set")
	}
	for i, m := range decoded.Messages {
		isLastUser := i == 3
		if isLastUser && len(m.Images) != 1 {
			t.Errorf("last user message has %d images, want 1", len(m.Images))
		}
		if !isLastUser && len(m.Images) != 0 {
			t.Errorf("message %d unexpectedly carries images", i)
		}
	}
}
