package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ahme/config"
	"ahme/document"
	appmodel "ahme/model"
	"ahme/ollama"
	"ahme/storage"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Streaming UI state
	currentResp *strings.Builder // pointer to avoid copy panic
	showHelp    bool

	// Typewriter effect fields
	chunks     []string
	chunkIndex int

	loadingSpinner spinner.Model

	// Model selector
	showModelSelector bool
	modelList         []ollama.ModelInfo
	selectedModelIdx  int
	modelListCached   bool
	pullMode          bool
	pullInput         textinput.Model
	pulling           bool

	// Session management UI
	showSessionManager   bool
	sessionList          []storage.SessionMetadata
	selectedSessionIdx   int
	sessionRenameMode    bool
	sessionRenameInput   textinput.Model
	confirmDeleteSession *storage.SessionMetadata

	// Attach-file prompt
	attachMode  bool
	attachInput textinput.Model

	// Transient status line (copy feedback, search notes, errors)
	statusLine string
}

func NewAppView(cfg *config.Config, sessionStorage *storage.SessionStorage, lastSession *storage.Session, creds *config.CredentialStore, editor document.Editor, version string) AppView {
	ta := textarea.New()
	ta.Placeholder = "Ask about your document or press Alt+A to attach a file..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline; Enter alone sends (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renameInput := textinput.New()
	renameInput.Prompt = "Rename: "
	renameInput.CharLimit = 64

	pullInput := textinput.New()
	pullInput.Prompt = "Pull model: "
	pullInput.CharLimit = 128

	attachInput := textinput.New()
	attachInput.Prompt = "Attach file: "
	attachInput.CharLimit = 512

	dataModel := appmodel.NewModel(cfg, sessionStorage, lastSession, creds, editor, version)

	if lastSession == nil {
		newSession, err := dataModel.CreateAndSaveNewSession("New Session", "")
		if err == nil {
			dataModel.CurrentSession = newSession
		} else if config.DebugLog != nil {
			config.DebugLog.Printf("[AppView] initial session creation failed: %v", err)
		}
	}

	return AppView{
		dataModel:          dataModel,
		textarea:           ta,
		viewport:           vp,
		loadingSpinner:     sp,
		currentResp:        &strings.Builder{},
		sessionRenameInput: renameInput,
		pullInput:          pullInput,
		attachInput:        attachInput,
	}
}

func (a AppView) Init() tea.Cmd {
	// Markdown rendering waits for WindowSizeMsg so widths are correct.
	return tea.Batch(
		textarea.Blink,
		a.loadingSpinner.Tick,
		a.dataModel.FetchModelList(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	// Modal rendering order: help on top, then selector, then sessions.
	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}
	if a.showModelSelector {
		return a.renderModelSelector()
	}
	if a.showSessionManager {
		return a.renderSessionManager()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	if bar := a.renderAttachmentBar(); bar != "" {
		b.WriteString(bar)
		b.WriteString("\n")
	}
	if a.attachMode {
		b.WriteString(a.attachInput.View())
	} else {
		b.WriteString(a.textarea.View())
	}
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	return b.String()
}
