package prompt

import (
	"strings"
	"testing"

	"ahme/chat"
	"ahme/ingest"
	"ahme/search"
)

func imageAttachment(name string) ingest.Attachment {
	return ingest.Attachment{
		Kind:    ingest.AttachmentImage,
		Name:    name,
		Payload: "aGVsbG8=",
	}
}

func TestAssembleSystemTurnFirst(t *testing.T) {
	messages, _ := Assemble(Input{
		SystemPrompt: "be helpful",
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "earlier question"},
			{Role: chat.RoleAssistant, Content: "earlier answer"},
		},
		UserText: "new question",
	})

	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	if messages[0].Role != chat.RoleSystem || messages[0].Content != "be helpful" {
		t.Errorf("turn 0 = %+v, want system prompt", messages[0])
	}
	if messages[1].Content != "earlier question" || messages[2].Content != "earlier answer" {
		t.Error("history turns modified or reordered")
	}
	if messages[3].Role != chat.RoleUser {
		t.Errorf("final turn role = %q, want user", messages[3].Role)
	}
}

func TestAssembleTextAttachmentUntruncatedContext(t *testing.T) {
	attachmentText := strings.Repeat("x", 2000)
	editorContent := strings.Repeat("d", 3000)

	messages, images := Assemble(Input{
		SystemPrompt: "sys",
		UserText:     "summarize this",
		Attachments: []ingest.Attachment{
			{Kind: ingest.AttachmentText, Name: "notes.txt", Text: attachmentText},
		},
		EditorContent: editorContent,
	})

	if len(images) != 0 {
		t.Fatalf("got %d images, want 0", len(images))
	}

	content := messages[len(messages)-1].Content
	if n := strings.Count(content, "--- Attachment:"); n != 1 {
		t.Errorf("got %d attachment sections, want 1", n)
	}
	if !strings.Contains(content, "--- Attachment: notes.txt ---") {
		t.Error("attachment section not labeled with file name")
	}
	if !strings.Contains(content, attachmentText) {
		t.Error("attachment text not included in full")
	}
	if !strings.Contains(content, editorContent) {
		t.Error("document context truncated without images present")
	}
	if strings.Contains(content, ElisionMarker) {
		t.Error("elision marker present without images")
	}
}

func TestAssembleImageTruncatesContext(t *testing.T) {
	editorContent := strings.Repeat("e", 5000)

	messages, images := Assemble(Input{
		SystemPrompt:  "sys",
		UserText:      "what is in the picture?",
		Attachments:   []ingest.Attachment{imageAttachment("shot.png")},
		EditorContent: editorContent,
	})

	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}

	content := messages[len(messages)-1].Content
	if !strings.Contains(content, ElisionMarker) {
		t.Error("missing elision marker")
	}
	if strings.Contains(content, strings.Repeat("e", DocContextBudget+1)) {
		t.Errorf("document context longer than %d chars", DocContextBudget)
	}

	instr := strings.Index(content, imagePriority)
	question := strings.Index(content, "what is in the picture?")
	if instr < 0 {
		t.Fatal("image priority instruction missing")
	}
	if question < instr {
		t.Error("image priority instruction placed after the question")
	}
}

func TestAssembleSkipsUnusableAttachments(t *testing.T) {
	messages, images := Assemble(Input{
		SystemPrompt: "sys",
		UserText:     "q",
		Attachments: []ingest.Attachment{
			{Kind: ingest.AttachmentText, Name: "pending.txt", Pending: true},
			{Kind: ingest.AttachmentText, Name: "broken.txt", ParseErr: "parse failed"},
			{Kind: ingest.AttachmentText, Name: "good.txt", Text: "fine"},
		},
	})

	if len(images) != 0 {
		t.Fatalf("got %d images, want 0", len(images))
	}
	content := messages[len(messages)-1].Content
	if strings.Contains(content, "pending.txt") || strings.Contains(content, "broken.txt") {
		t.Error("unusable attachment leaked into prompt")
	}
	if !strings.Contains(content, "--- Attachment: good.txt ---\nfine") {
		t.Error("usable attachment missing")
	}
}

func TestAssembleSearchBlock(t *testing.T) {
	tests := []struct {
		name       string
		result     search.Result
		wantsBlock bool
	}{
		{
			name: "results present",
			result: search.Result{
				Results: []search.Item{{Title: "T", URL: "https://x", Content: "snippet"}},
				Answer:  "short answer",
			},
			wantsBlock: true,
		},
		{
			name:       "skipped",
			result:     search.Result{Skipped: true, Reason: "timeout"},
			wantsBlock: false,
		},
		{
			name:       "empty",
			result:     search.Result{},
			wantsBlock: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, _ := Assemble(Input{SystemPrompt: "s", UserText: "q", Search: tt.result})
			content := messages[len(messages)-1].Content
			has := strings.Contains(content, "--- Web Search Results ---")
			if has != tt.wantsBlock {
				t.Errorf("search block present = %v, want %v", has, tt.wantsBlock)
			}
			if tt.wantsBlock && !strings.Contains(content, "Answer: short answer") {
				t.Error("answer summary missing from search block")
			}
		})
	}
}

func TestStripDataPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare payload", "aGVsbG8=", "aGVsbG8="},
		{"data url", "data:image/jpeg;base64,aGVsbG8=", "aGVsbG8="},
		{"png data url", "data:image/png;base64,QUJD", "QUJD"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripDataPrefix(tt.input)
			if got != tt.want {
				t.Errorf("StripDataPrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
			// A second application must be a no-op.
			if again := StripDataPrefix(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	in := Input{
		SystemPrompt:  "sys",
		History:       []chat.Message{{Role: chat.RoleUser, Content: "a"}},
		UserText:      "question",
		Attachments:   []ingest.Attachment{imageAttachment("i.png")},
		Search:        search.Result{Answer: "ans"},
		EditorContent: "doc",
	}

	m1, i1 := Assemble(in)
	m2, i2 := Assemble(in)

	if len(m1) != len(m2) {
		t.Fatal("message counts differ between runs")
	}
	for i := range m1 {
		if m1[i] != m2[i] {
			t.Errorf("message %d differs between runs", i)
		}
	}
	if len(i1) != 1 || len(i2) != 1 || i1[0] != i2[0] {
		t.Error("image payloads differ between runs")
	}
}
