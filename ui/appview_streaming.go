package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ahme/chat"
	"ahme/config"
)

// handleStreamingMessage handles all streaming-related messages
func (a AppView) handleStreamingMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case streamChunksCollectedMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("collected %d chunks, state=%s", len(msg.Chunks), msg.Result.State)
		}

		// A stale sequence means a newer send superseded this one.
		if !a.dataModel.StreamSeqCurrent(msg.Seq) || !a.dataModel.Streaming {
			if config.DebugLog != nil {
				config.DebugLog.Printf("dropping stale completion (seq %d)", msg.Seq)
			}
			return a, nil
		}

		if note := searchNote(msg.Search); note != "" {
			a.statusLine = note
		}

		switch msg.Result.State {
		case chat.StateFailed:
			// Whatever arrived before the failure stays in the transcript.
			a.dataModel.Streaming = false
			a.finalizeStreamedReply(msg.Result.Content, false)
			errText := fmt.Sprintf("Error: %v", msg.Result.Err)
			if maxWidth := a.width - 10; maxWidth > 0 {
				errText = lipgloss.NewStyle().Width(maxWidth).Render(errText)
			}
			a.dataModel.Messages = append(a.dataModel.Messages, Message{
				Role:      "system",
				Content:   errText,
				Rendered:  errText,
				Timestamp: time.Now(),
			})
			a.updateViewportContent(true)
			return a, nil

		case chat.StateAborted:
			a.dataModel.Streaming = false
			a.finalizeStreamedReply(msg.Result.Content, false)
			a.statusLine = DimStyle.Render("request cancelled")
			return a, nil
		}

		// Completed: replay the collected chunks as a typewriter effect.
		a.chunks = msg.Chunks
		a.chunkIndex = 0
		a.currentResp.Reset()

		return a, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
			return displayChunkTickMsg{}
		})

	case displayChunkTickMsg:
		// Stop the replay if the user cancelled meanwhile.
		if !a.dataModel.Streaming {
			return a, nil
		}

		if a.chunkIndex >= len(a.chunks) {
			full := a.currentResp.String()
			a.dataModel.Streaming = false
			a.finalizeStreamedReply(full, true)

			if full == "" {
				a.statusLine = ErrorStyle.Render("empty response")
				return a, nil
			}
			messageIndex := len(a.dataModel.Messages) - 1
			return a, tea.Batch(
				a.renderMarkdownAsync(messageIndex, full),
				a.dataModel.AutoSaveSession(),
			)
		}

		chunk := a.chunks[a.chunkIndex]
		a.chunkIndex++
		a.currentResp.WriteString(chunk)

		// Drop the waiting indicator once real content has arrived.
		if a.currentResp.Len() > 0 {
			a.removeLoadingMessage()
			a.updateStreamingMessage()
		}

		// First chunk lands immediately, the rest pace the replay.
		delay := 30 * time.Millisecond
		if a.chunkIndex == 1 {
			delay = time.Millisecond
		}
		return a, tea.Tick(delay, func(time.Time) tea.Msg {
			return displayChunkTickMsg{}
		})
	}

	return a, nil
}

// finalizeStreamedReply lands the accumulated reply in the transcript.
// Partial content from an aborted or failed stream is kept; only a complete
// exchange consumes the pending attachments.
func (a *AppView) finalizeStreamedReply(content string, complete bool) {
	a.removeLoadingMessage()
	a.chunks = nil
	a.chunkIndex = 0
	a.currentResp.Reset()

	if content != "" {
		a.dataModel.Messages = append(a.dataModel.Messages, Message{
			Role:      "assistant",
			Content:   content,
			Rendered:  content,
			Timestamp: time.Now(),
		})
		a.dataModel.SessionDirty = true
		if complete {
			a.dataModel.ClearAttachments()
		}
	}
	a.updateViewportContent(true)
}

func (a *AppView) removeLoadingMessage() {
	n := len(a.dataModel.Messages)
	if n > 0 && a.dataModel.Messages[n-1].Role == "system" && a.dataModel.Messages[n-1].Content == loadingMessage {
		a.dataModel.Messages = a.dataModel.Messages[:n-1]
	}
}
