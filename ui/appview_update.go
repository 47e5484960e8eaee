package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ahme/config"
	"ahme/search"
)

const loadingMessage = "Waiting for response..."

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update spinner first so TickMsg animates the waiting indicator
	if a.dataModel.Streaming && len(a.dataModel.Messages) > 0 && a.dataModel.Messages[len(a.dataModel.Messages)-1].Role == "system" {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
		a.updateViewportContent(true)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Title, attachment bar, textarea (3 lines), status bar.
		a.viewport.Width = a.width
		a.viewport.Height = a.height - 7
		a.textarea.SetWidth(a.width)
		a.attachInput.Width = a.width - 14

		a.ready = true
		a.updateViewportContent(true)

		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			cmds = append(cmds, a.renderPendingMarkdown()...)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case streamChunksCollectedMsg, displayChunkTickMsg:
		next, streamCmd := a.handleStreamingMessage(msg)
		return next, streamCmd

	case attachmentIngestedMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("attach %s: %v", msg.ID, msg.Err))
			return a, nil
		}
		a.dataModel.AddAttachment(msg.Attachment)
		if msg.Attachment.ParseErr != "" {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("%s attached but not parsed: %s", msg.Attachment.Name, msg.Attachment.ParseErr))
		} else {
			a.statusLine = fmt.Sprintf("attached %s", msg.Attachment.Name)
		}
		return a, nil

	case markdownRenderedMsg:
		if msg.MessageIndex >= 0 && msg.MessageIndex < len(a.dataModel.Messages) {
			a.dataModel.Messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(msg.MessageIndex == len(a.dataModel.Messages)-1)
		}
		return a, nil

	case modelsListMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("model list: %v", msg.Err))
			return a, nil
		}
		a.modelList = msg.Models
		a.modelListCached = true
		if a.selectedModelIdx >= len(a.modelList) {
			a.selectedModelIdx = 0
		}
		return a, nil

	case pullFinishedMsg:
		a.pulling = false
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("pull %s: %v", msg.Model, msg.Err))
			return a, nil
		}
		a.statusLine = fmt.Sprintf("pulled %s", msg.Model)
		a.modelListCached = false
		return a, a.dataModel.FetchModelList()

	case downloadTickMsg:
		if !a.dataModel.Downloads.State().Active {
			return a, nil
		}
		return a, downloadTick()

	case sessionsListMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("sessions: %v", msg.Err))
			return a, nil
		}
		a.sessionList = msg.Sessions
		if a.selectedSessionIdx >= len(a.sessionList) {
			a.selectedSessionIdx = 0
		}
		return a, nil

	case sessionLoadedMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("load session: %v", msg.Err))
			return a, nil
		}
		a.dataModel.ResetForSession(msg.Session)
		a.showSessionManager = false
		a.chunks = nil
		a.chunkIndex = 0
		a.currentResp.Reset()
		a.updateViewportContent(true)
		if a.dataModel.NeedsInitialRender {
			a.dataModel.NeedsInitialRender = false
			return a, tea.Batch(a.renderPendingMarkdown()...)
		}
		return a, nil

	case sessionSavedMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("save session: %v", msg.Err))
		} else {
			a.dataModel.SessionDirty = false
		}
		return a, nil

	case sessionRenamedMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("rename: %v", msg.Err))
		}
		return a, nil

	case sessionDeletedMsg:
		if msg.Err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("delete: %v", msg.Err))
			return a, nil
		}
		if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == msg.ID {
			a.dataModel.ResetForSession(nil)
			a.updateViewportContent(true)
		}
		return a, a.dataModel.FetchSessionList()

	case insertResultMsg:
		if msg.Inserted {
			a.statusLine = "inserted - Alt+Y keep, Alt+U undo"
		} else {
			a.statusLine = ErrorStyle.Render("no editor attached")
		}
		return a, nil

	case flashTickMsg:
		a.statusLine = ""
		return a, nil
	}

	// Forward everything else to the focused components.
	if !a.attachMode && !a.showModelSelector && !a.showSessionManager {
		a.textarea, cmd = a.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal inputs swallow keys first.
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}
	if a.attachMode {
		return a.handleAttachMode(msg)
	}
	if a.showModelSelector {
		return a.handleModelSelector(msg)
	}
	if a.showSessionManager {
		return a.handleSessionManager(msg)
	}

	if msg.Type == tea.KeyCtrlC {
		a.dataModel.AbortStream()
		a.dataModel.Quitting = true
		if a.dataModel.SessionDirty {
			return a, tea.Sequence(a.dataModel.AutoSaveSession(), tea.Quit)
		}
		return a, tea.Quit
	}

	// Enter sends; Alt+Enter stays a newline inside the textarea.
	if msg.Type == tea.KeyEnter && !msg.Alt && !a.dataModel.Streaming {
		if strings.TrimSpace(a.textarea.Value()) != "" {
			return a.sendCurrentInput()
		}
		return a, nil
	}

	switch msg.String() {
	case "esc":
		if a.dataModel.Streaming {
			if len(a.chunks) > 0 {
				// The full response already arrived; esc just stops the
				// replay, keeping what has been shown so far.
				a.dataModel.Streaming = false
				a.finalizeStreamedReply(a.currentResp.String(), false)
				a.statusLine = DimStyle.Render("request cancelled")
				return a, nil
			}
			// Still waiting on the request. Cancel it and let the aborted
			// result land with whatever partial content the server sent.
			a.dataModel.AbortStream()
			a.statusLine = DimStyle.Render("cancelling...")
			return a, nil
		}
		a.statusLine = ""
		return a, nil

	case "alt+h":
		a.showHelp = true
		return a, nil

	case "alt+m":
		a.showModelSelector = true
		if !a.modelListCached {
			return a, a.dataModel.FetchModelList()
		}
		return a, nil

	case "alt+s":
		a.showSessionManager = true
		return a, a.dataModel.FetchSessionList()

	case "alt+n":
		newSession, err := a.dataModel.CreateAndSaveNewSession("New Session", "")
		if err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("new session: %v", err))
			return a, nil
		}
		a.dataModel.ResetForSession(newSession)
		a.updateViewportContent(true)
		return a, nil

	case "alt+w":
		a.dataModel.SearchEnabled = !a.dataModel.SearchEnabled
		if a.dataModel.SearchEnabled {
			a.statusLine = "web search on"
		} else {
			a.statusLine = "web search off"
		}
		return a, nil

	case "alt+a":
		a.attachMode = true
		a.attachInput.SetValue("")
		a.attachInput.Focus()
		return a, textinput.Blink

	case "alt+x":
		a.dataModel.ClearAttachments()
		a.statusLine = "attachments cleared"
		return a, nil

	case "alt+i":
		reply, ok := a.dataModel.LastAssistantReply()
		if !ok {
			a.statusLine = ErrorStyle.Render("nothing to insert")
			return a, nil
		}
		inserted := a.dataModel.Inserter.Insert(reply)
		return a, func() tea.Msg { return insertResultMsg{Inserted: inserted} }

	case "alt+y":
		if _, pending := a.dataModel.Inserter.Pending(); pending {
			a.dataModel.Inserter.Accept()
			a.statusLine = "insertion kept"
		}
		return a, nil

	case "alt+u":
		if _, pending := a.dataModel.Inserter.Pending(); pending {
			a.dataModel.Inserter.Discard()
			a.statusLine = "insertion undone"
		}
		return a, nil

	case "alt+c":
		if reply, ok := a.dataModel.LastAssistantReply(); ok {
			clipboard.WriteAll(reply)
			a.statusLine = "copied"
			return a, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
				return flashTickMsg{}
			})
		}
		return a, nil

	case "alt+j", "alt+down":
		a.viewport.HalfPageDown()
		return a, nil

	case "alt+k", "alt+up":
		a.viewport.HalfPageUp()
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) sendCurrentInput() (tea.Model, tea.Cmd) {
	userMsg := strings.TrimSpace(a.textarea.Value())
	a.textarea.Reset()

	if config.DebugLog != nil {
		config.DebugLog.Printf("sending message: %d chars", len(userMsg))
	}

	a.dataModel.Messages = append(a.dataModel.Messages, Message{
		Role:      "user",
		Content:   userMsg,
		Rendered:  userMsg,
		Timestamp: time.Now(),
	})
	userMessageIndex := len(a.dataModel.Messages) - 1

	a.loadingSpinner = spinner.New()
	a.loadingSpinner.Spinner = spinner.Dot
	a.loadingSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	a.dataModel.Messages = append(a.dataModel.Messages, Message{
		Role:      "system",
		Content:   loadingMessage,
		Rendered:  loadingMessage,
		Timestamp: time.Now(),
	})

	a.updateViewportContent(true)

	return a, tea.Batch(
		a.renderMarkdownAsync(userMessageIndex, userMsg),
		a.dataModel.SendMessage(userMsg),
		a.loadingSpinner.Tick,
	)
}

func (a AppView) handleAttachMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.attachMode = false
		a.attachInput.Blur()
		return a, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(a.attachInput.Value())
		a.attachMode = false
		a.attachInput.Blur()
		if path == "" {
			return a, nil
		}
		a.statusLine = fmt.Sprintf("attaching %s...", path)
		return a, a.dataModel.IngestFile(config.ExpandPath(path))
	}

	var cmd tea.Cmd
	a.attachInput, cmd = a.attachInput.Update(msg)
	return a, cmd
}

// searchNote summarizes the augmentation outcome for the status line.
func searchNote(r search.Result) string {
	if r.Skipped {
		if r.Reason == "search disabled" {
			return ""
		}
		return DimStyle.Render("search skipped: " + r.Reason)
	}
	return DimStyle.Render(fmt.Sprintf("search: %d results", len(r.Results)))
}

func downloadTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return downloadTickMsg{}
	})
}
