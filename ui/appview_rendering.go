package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"ahme/config"
	"ahme/ingest"
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.dataModel.Messages) == 0 {
		a.viewport.SetContent("No messages yet. Ask something about your document.")
		return
	}

	var content strings.Builder

	for _, msg := range a.dataModel.Messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		var roleStyle = DimStyle
		var roleName string
		switch msg.Role {
		case "user":
			roleStyle = UserStyle
			roleName = "You"
		case "assistant":
			roleStyle = AssistantStyle
			roleName = "Assistant"
		default:
			roleName = "System"
		}
		role := roleStyle.Render(roleName)

		renderedContent := msg.Rendered

		// The waiting indicator animates with the spinner.
		if msg.Role == "system" && msg.Content == loadingMessage {
			renderedContent = fmt.Sprintf("%s %s", a.loadingSpinner.View(), msg.Content)
		}

		if msg.Role == "user" {
			content.WriteString(formatUserMessage(timestamp, role, renderedContent))
			continue
		}

		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, renderedContent))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) updateStreamingMessage() {
	var content strings.Builder

	for _, msg := range a.dataModel.Messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))
		switch msg.Role {
		case "user":
			content.WriteString(formatUserMessage(timestamp, UserStyle.Render("You"), msg.Rendered))
		case "assistant":
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), msg.Rendered))
		default:
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, DimStyle.Render("System"), msg.Rendered))
		}
	}

	timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
	role := AssistantStyle.Render("Assistant")

	streamContent := a.loadingSpinner.View()
	if a.currentResp.Len() > 0 {
		streamContent = a.currentResp.String() + "▋"
	}
	content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, streamContent))

	a.viewport.SetContent(content.String())
	a.viewport.GotoBottom()
}

func formatUserMessage(timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		startTime := time.Now()
		rendered := markdown.Render(content, width-4, 0)
		if config.DebugLog != nil {
			config.DebugLog.Printf("markdown rendered for message %d in %v", messageIndex, time.Since(startTime))
		}
		return markdownRenderedMsg{
			MessageIndex: messageIndex,
			Rendered:     strings.TrimRight(string(rendered), "\n"),
		}
	}
}

// renderPendingMarkdown re-renders loaded turns whose cached rendering is
// missing or stale (plain text equal to the source).
func (a AppView) renderPendingMarkdown() []tea.Cmd {
	var cmds []tea.Cmd
	for i, msg := range a.dataModel.Messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		if msg.Rendered == "" || msg.Rendered == msg.Content {
			cmds = append(cmds, a.renderMarkdownAsync(i, msg.Content))
		}
	}
	return cmds
}

func (a AppView) renderTitleBar() string {
	name := "no session"
	if a.dataModel.CurrentSession != nil {
		name = a.dataModel.CurrentSession.Name
	}
	title := TitleStyle.Render("ahme") + DimStyle.Render(" · "+a.dataModel.CurrentModel()+" · ") + name
	return runewidth.Truncate(title, a.width, "…")
}

// renderAttachmentBar lists pending attachments on one line. Names are
// truncated so the bar never wraps.
func (a AppView) renderAttachmentBar() string {
	attachments := a.dataModel.OrderedAttachments()
	if len(attachments) == 0 {
		return ""
	}

	var parts []string
	for _, att := range attachments {
		label := runewidth.Truncate(att.Name, 24, "…")
		switch {
		case att.ParseErr != "":
			label = ErrorStyle.Render("✗ " + label)
		case att.Kind == ingest.AttachmentImage:
			label = "▦ " + label
		default:
			label = "≡ " + label
			if att.Truncated {
				label += DimStyle.Render(" (truncated)")
			}
		}
		parts = append(parts, label)
	}

	bar := DimStyle.Render(fmt.Sprintf("%d attached: ", len(attachments))) + strings.Join(parts, "  ")
	return runewidth.Truncate(bar, a.width, "…")
}

func (a AppView) renderStatusBar() string {
	var parts []string

	if dl := a.dataModel.Downloads.State(); dl.Active {
		if dl.Percent >= 0 {
			parts = append(parts, SelectedStyle.Render(fmt.Sprintf("⇣ %s %.0f%%", dl.Model, dl.Percent)))
		} else {
			parts = append(parts, SelectedStyle.Render(fmt.Sprintf("⇣ %s %s", dl.Model, dl.Status)))
		}
	}

	if a.dataModel.SearchEnabled {
		parts = append(parts, StatusStyle.Render("[web]"))
	}
	if _, pending := a.dataModel.Inserter.Pending(); pending {
		parts = append(parts, InsertMarkStyle.Render("[insert pending]"))
	}
	if a.statusLine != "" {
		parts = append(parts, a.statusLine)
	}

	if len(parts) == 0 {
		parts = append(parts, FormatFooter("Enter", "Send", "Alt+A", "Attach", "Alt+M", "Models", "Alt+S", "Sessions", "Alt+H", "Help"))
	}

	return runewidth.Truncate(strings.Join(parts, "  "), a.width, "…")
}

func renderHelpModal(width, height int) string {
	lines := []string{
		TitleStyle.Render("Keys"),
		"",
		FormatFooter("Enter", "Send message"),
		FormatFooter("Alt+Enter", "Newline"),
		FormatFooter("Esc", "Cancel response"),
		FormatFooter("Alt+A", "Attach file"),
		FormatFooter("Alt+X", "Clear attachments"),
		FormatFooter("Alt+W", "Toggle web search"),
		FormatFooter("Alt+I", "Insert reply into document"),
		FormatFooter("Alt+Y", "Keep insertion"),
		FormatFooter("Alt+U", "Undo insertion"),
		FormatFooter("Alt+C", "Copy last reply"),
		FormatFooter("Alt+M", "Model selector"),
		FormatFooter("Alt+S", "Session manager"),
		FormatFooter("Alt+N", "New session"),
		FormatFooter("Alt+J/K", "Scroll transcript"),
		FormatFooter("Ctrl+C", "Quit"),
		"",
		DimStyle.Render("any key to close"),
	}
	return centerLines(lines, width, height)
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSICodes removes escape sequences for accurate width math.
func stripANSICodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func centerLines(lines []string, width, height int) string {
	var b strings.Builder
	topPad := (height - len(lines)) / 2
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		pad := (width - runewidth.StringWidth(stripANSICodes(line))) / 2
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
