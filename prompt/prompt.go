// Package prompt assembles the exact request sent to the inference service.
//
// Assembly is a pure function of its input: the same system prompt, history,
// question, attachments, search result and editor content always produce the
// same turns and image list.
package prompt

import (
	"fmt"
	"strings"

	"ahme/chat"
	"ahme/ingest"
	"ahme/search"
)

// DocContextBudget caps the trailing document context when images are
// attached. Image tokens and long text compete for the same context window,
// and image understanding must not be crowded out. Tunable per backend.
const DocContextBudget = 1000

// ElisionMarker flags a truncated document context section.
const ElisionMarker = "\n... [document truncated] ..."

const taskPreamble = "Answer the user's question using the context sections below when they are relevant."

const imagePriority = "One or more images are attached. Analyze the attached image(s) first and give what you see in them priority when answering."

// Input carries everything the assembler consumes.
type Input struct {
	SystemPrompt  string
	History       []chat.Message
	UserText      string
	Attachments   []ingest.Attachment
	Search        search.Result
	EditorContent string
}

// Assemble produces the ordered turns and the image payloads for one
// request. The system prompt is always turn zero, prior turns pass through
// unmodified, and the new user turn is built by fixed-order concatenation.
func Assemble(in Input) ([]chat.Message, []string) {
	images := collectImages(in.Attachments)

	messages := make([]chat.Message, 0, len(in.History)+2)
	messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: in.SystemPrompt})
	messages = append(messages, in.History...)
	messages = append(messages, chat.Message{
		Role:    chat.RoleUser,
		Content: buildUserContent(in, len(images) > 0),
	})

	return messages, images
}

func buildUserContent(in Input, hasImages bool) string {
	var b strings.Builder

	b.WriteString(taskPreamble)
	if hasImages {
		b.WriteString("\n\n")
		b.WriteString(imagePriority)
	}

	b.WriteString("\n\n--- User Question ---\n")
	b.WriteString(in.UserText)

	if block := searchBlock(in.Search); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	for _, a := range in.Attachments {
		if a.Kind != ingest.AttachmentText || !a.Usable() {
			continue
		}
		fmt.Fprintf(&b, "\n\n--- Attachment: %s ---\n%s", a.Name, a.Text)
		if a.Truncated {
			b.WriteString("\n[attachment truncated]")
		}
	}

	if in.EditorContent != "" {
		b.WriteString("\n\n--- Document Context ---\n")
		b.WriteString(docContext(in.EditorContent, hasImages))
	}

	return b.String()
}

func searchBlock(r search.Result) string {
	if r.Skipped || (len(r.Results) == 0 && r.Answer == "") {
		return ""
	}

	var b strings.Builder
	b.WriteString("--- Web Search Results ---")
	if r.Answer != "" {
		fmt.Fprintf(&b, "\nAnswer: %s", r.Answer)
	}
	for i, item := range r.Results {
		fmt.Fprintf(&b, "\n%d. %s (%s)\n   %s", i+1, item.Title, item.URL, item.Content)
	}
	return b.String()
}

// docContext truncates the editor content only when images are present;
// text-only turns are already capped upstream when needed.
func docContext(content string, hasImages bool) string {
	if !hasImages {
		return content
	}
	runes := []rune(content)
	if len(runes) <= DocContextBudget {
		return content
	}
	return string(runes[:DocContextBudget]) + ElisionMarker
}

func collectImages(attachments []ingest.Attachment) []string {
	var images []string
	for _, a := range attachments {
		if a.Kind == ingest.AttachmentImage && a.Usable() {
			images = append(images, StripDataPrefix(a.Payload))
		}
	}
	return images
}

// StripDataPrefix removes a "data:<mime>;base64," transmission prefix from
// an encoded payload. Already-bare payloads pass through untouched, so the
// operation is idempotent and a payload is never double-wrapped.
func StripDataPrefix(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if i := strings.Index(payload, ","); i >= 0 {
		return payload[i+1:]
	}
	return payload
}
