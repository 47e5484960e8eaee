package storage

import (
	"strings"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SessionStorage {
	t.Helper()
	s, err := NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundtrip(t *testing.T) {
	s := newTestStorage(t)

	session := &Session{
		Name:         "Draft review",
		Model:        "llama3.1:latest",
		SystemPrompt: "You are a concise writing assistant.",
		Messages: []Message{
			{Role: "user", Content: "shorten this paragraph", Timestamp: time.Now()},
			{Role: "assistant", Content: "Here is a shorter version.", Timestamp: time.Now()},
		},
	}
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}
	if session.ID == "" {
		t.Fatal("save did not assign an id")
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("session not found after save")
	}
	if loaded.Name != "Draft review" || loaded.Model != "llama3.1:latest" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.SystemPrompt != session.SystemPrompt {
		t.Errorf("system prompt = %q", loaded.SystemPrompt)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(loaded.Messages))
	}
	if loaded.Messages[0].Role != "user" || loaded.Messages[1].Role != "assistant" {
		t.Error("message order not preserved")
	}
}

func TestLoadUnknownSession(t *testing.T) {
	s := newTestStorage(t)

	loaded, err := s.Load("no-such-id")
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Errorf("unknown id returned %+v", loaded)
	}
}

func TestListOrdersByUpdateTime(t *testing.T) {
	s := newTestStorage(t)

	older := &Session{Name: "older", Model: "m"}
	if err := s.Save(older); err != nil {
		t.Fatal(err)
	}
	// Force distinct timestamps; SQLite stores them with enough precision
	// but the two Save calls can land in the same instant.
	time.Sleep(10 * time.Millisecond)
	newer := &Session{Name: "newer", Model: "m"}
	if err := s.Save(newer); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions, want 2", len(list))
	}
	if list[0].Name != "newer" {
		t.Errorf("first listed = %q, want most recently updated", list[0].Name)
	}
}

func TestListCountsMessages(t *testing.T) {
	s := newTestStorage(t)

	session := &Session{
		Name:  "counted",
		Model: "m",
		Messages: []Message{
			{Role: "user", Content: "a", Timestamp: time.Now()},
			{Role: "assistant", Content: "b", Timestamp: time.Now()},
			{Role: "user", Content: "c", Timestamp: time.Now()},
		},
	}
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if list[0].MessageCount != 3 {
		t.Errorf("message count = %d, want 3", list[0].MessageCount)
	}
}

func TestResaveReplacesMessages(t *testing.T) {
	s := newTestStorage(t)

	session := &Session{
		Name:  "growing",
		Model: "m",
		Messages: []Message{
			{Role: "user", Content: "first", Timestamp: time.Now()},
		},
	}
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}

	session.Messages = append(session.Messages,
		Message{Role: "assistant", Content: "second", Timestamp: time.Now()})
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("got %d messages after resave, want 2", len(loaded.Messages))
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStorage(t)

	session := &Session{Name: "doomed", Model: "m"}
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(session.ID); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("session still loadable after delete")
	}
}

func TestRenameSession(t *testing.T) {
	s := newTestStorage(t)

	session := &Session{Name: "old name", Model: "m"}
	if err := s.Save(session); err != nil {
		t.Fatal(err)
	}
	if err := s.Rename(session.ID, "new name"); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "new name" {
		t.Errorf("name = %q", loaded.Name)
	}

	if err := s.Rename("no-such-id", "x"); err == nil {
		t.Error("renaming unknown session did not error")
	}
}

func TestCurrentSessionPointer(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.LoadCurrentSessionID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Errorf("fresh store has current session %q", id)
	}

	if err := s.SaveCurrentSessionID("abc-123"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCurrentSessionID("def-456"); err != nil {
		t.Fatal(err)
	}

	id, err = s.LoadCurrentSessionID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "def-456" {
		t.Errorf("current session = %q, want def-456", id)
	}
}

func TestGenerateSessionName(t *testing.T) {
	if got := GenerateSessionName("fix the intro paragraph"); got != "fix the intro paragraph" {
		t.Errorf("short message name = %q", got)
	}

	long := strings.Repeat("w", 50)
	if got := GenerateSessionName(long); len(got) != 33 || !strings.HasSuffix(got, "...") {
		t.Errorf("long message name = %q", got)
	}

	if got := GenerateSessionName(""); !strings.HasPrefix(got, "Session ") {
		t.Errorf("empty message name = %q", got)
	}

	longJP := strings.Repeat("案", 40)
	if got := GenerateSessionName(longJP); got != strings.Repeat("案", 30)+"..." {
		t.Errorf("multibyte name truncated mid-rune: %q", got)
	}
}
