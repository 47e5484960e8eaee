package model

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ahme/chat"
	"ahme/config"
	"ahme/prompt"
	"ahme/search"
)

// historyMessages converts the UI transcript into request turns. Only user
// and assistant turns are forwarded; the system turn is added by the
// assembler.
func historyMessages(uiMessages []Message) []chat.Message {
	var out []chat.Message
	for _, msg := range uiMessages {
		if msg.Role == RoleUser || msg.Role == RoleAssistant {
			out = append(out, chat.Message{Role: msg.Role, Content: msg.Content})
		}
	}
	return out
}

// editorContent reads the current document text when the bound editor
// exposes it. Chat still works without one.
func (m *Model) editorContent() string {
	if m.Editor == nil {
		return ""
	}
	if src, ok := m.Editor.(interface{ Content() string }); ok {
		return src.Content()
	}
	return ""
}

// SendMessage starts one full send: optional search augmentation, prompt
// assembly, then the streamed completion. The returned message carries the
// sequence number of this send so a stale completion can be dropped.
func (m *Model) SendMessage(userText string) tea.Cmd {
	ctx, seq := m.beginStream()

	// Capture necessary state before the goroutine starts.
	client := m.ChatClient
	modelName := m.CurrentModel()
	systemPrompt := m.BuildSystemPrompt()
	history := historyMessages(m.Messages)
	attachments := m.OrderedAttachments()
	editorText := m.editorContent()
	searcher := m.Searcher
	searchEnabled := m.SearchEnabled

	return func() tea.Msg {
		if config.DebugLog != nil {
			config.DebugLog.Printf("send started: model=%s attachments=%d search=%v", modelName, len(attachments), searchEnabled)
		}

		searchResult := search.Result{Skipped: true, Reason: "search disabled"}
		if searchEnabled {
			searchResult = searcher.Query(ctx, userText)
			if config.DebugLog != nil && searchResult.Skipped {
				config.DebugLog.Printf("search skipped: %s", searchResult.Reason)
			}
		}

		messages, images := prompt.Assemble(prompt.Input{
			SystemPrompt:  systemPrompt,
			History:       history,
			UserText:      userText,
			Attachments:   attachments,
			Search:        searchResult,
			EditorContent: editorText,
		})

		var chunks []string
		var responseBuilder strings.Builder
		startTime := time.Now()

		result := client.Stream(ctx, chat.Request{
			Model:    modelName,
			Messages: messages,
			Images:   images,
		}, func(chunk string) {
			responseBuilder.WriteString(chunk)
			chunks = append(chunks, chunk)
		})

		if config.DebugLog != nil {
			config.DebugLog.Printf("stream %s after %v: %d chunks, %d chars",
				result.State, time.Since(startTime), len(chunks), responseBuilder.Len())
		}

		return StreamChunksCollectedMsg{
			Seq:    seq,
			Chunks: chunks,
			Result: result,
			Search: searchResult,
		}
	}
}
