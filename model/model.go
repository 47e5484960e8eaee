package model

import (
	"context"

	"ahme/chat"
	"ahme/config"
	"ahme/document"
	"ahme/ingest"
	"ahme/ollama"
	"ahme/search"
	"ahme/storage"
)

// DefaultSystemPrompt is the base prompt used when neither the session nor
// the user config overrides it.
const DefaultSystemPrompt = "You are the AI assistant built into this note editor. " +
	"Be friendly and helpful, and keep answers concise."

// Model holds the panel's core data and business logic state.
type Model struct {
	// Core dependencies
	Config         *config.Config
	ChatClient     *chat.Client
	OllamaClient   *ollama.Client
	SessionStorage *storage.SessionStorage
	Ingestor       *ingest.Ingestor
	Searcher       *search.Augmenter
	Inserter       *document.Inserter
	Downloads      *DownloadTracker

	// Application data
	Messages        []Message
	CurrentSession  *storage.Session
	Attachments     map[string]ingest.Attachment
	AttachmentOrder []string
	Editor          document.Editor

	// Runtime state (not UI)
	Streaming          bool
	SearchEnabled      bool
	SessionDirty       bool
	NeedsInitialRender bool
	Quitting           bool

	// Each send invalidates the previous stream's cancel handle.
	cancelStream context.CancelFunc
	streamSeq    int

	Version string
}

// NewModel wires the panel's dependencies. A nil editor is allowed: the
// panel still chats, and insertions are simply refused.
func NewModel(cfg *config.Config, sessionStorage *storage.SessionStorage, lastSession *storage.Session, creds *config.CredentialStore, editor document.Editor, version string) *Model {
	chatClient := chat.NewClient(cfg.OllamaHost)
	if cfg.GatewayURL != "" && creds != nil {
		chatClient.UseGateway(cfg.GatewayURL, creds.Get(config.CredentialGateway))
	}

	ollamaClient, err := ollama.NewClient(cfg.OllamaHost)
	if err != nil {
		// Offline mode: model management unavailable, chat may still work
		// once the host comes back.
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] Ollama client creation failed: %v (running in offline mode)", err)
		}
		ollamaClient = nil
	}

	var parser *ingest.Parser
	if cfg.ParserURL != "" {
		parser = ingest.NewParser(cfg.ParserURL)
	}

	var searchKey string
	if creds != nil {
		searchKey = creds.Get(config.CredentialSearch)
	}
	searcher := search.NewAugmenter(searchKey)
	if cfg.SearchEndpoint != "" {
		searcher.SetEndpoint(cfg.SearchEndpoint)
	}

	var messages []Message
	if lastSession != nil {
		for _, sMsg := range lastSession.Messages {
			messages = append(messages, Message{
				Role:      sMsg.Role,
				Content:   sMsg.Content,
				Rendered:  sMsg.Rendered,
				Timestamp: sMsg.Timestamp,
			})
		}
	}

	return &Model{
		Config:             cfg,
		ChatClient:         chatClient,
		OllamaClient:       ollamaClient,
		SessionStorage:     sessionStorage,
		Ingestor:           ingest.NewIngestor(parser),
		Searcher:           searcher,
		Inserter:           document.NewInserter(editor),
		Downloads:          NewDownloadTracker(),
		Messages:           messages,
		CurrentSession:     lastSession,
		Attachments:        make(map[string]ingest.Attachment),
		Editor:             editor,
		SearchEnabled:      cfg.SearchEnabled,
		NeedsInitialRender: len(messages) > 0,
		Version:            version,
	}
}

// BuildSystemPrompt returns the system prompt for the current session,
// falling back to the configured default and then the built-in base.
func (m *Model) BuildSystemPrompt() string {
	if m.CurrentSession != nil && m.CurrentSession.SystemPrompt != "" {
		return m.CurrentSession.SystemPrompt
	}
	if m.Config.DefaultSystemPrompt != "" {
		return m.Config.DefaultSystemPrompt
	}
	return DefaultSystemPrompt
}

// CurrentModel returns the model name to chat with.
func (m *Model) CurrentModel() string {
	if m.CurrentSession != nil && m.CurrentSession.Model != "" {
		return m.CurrentSession.Model
	}
	return m.Config.DefaultModel
}

// AddAttachment registers an attachment, preserving insertion order.
func (m *Model) AddAttachment(att ingest.Attachment) {
	if _, exists := m.Attachments[att.ID]; !exists {
		m.AttachmentOrder = append(m.AttachmentOrder, att.ID)
	}
	m.Attachments[att.ID] = att
}

// RemoveAttachment drops one attachment by ID.
func (m *Model) RemoveAttachment(id string) {
	if _, exists := m.Attachments[id]; !exists {
		return
	}
	delete(m.Attachments, id)
	for i, aid := range m.AttachmentOrder {
		if aid == id {
			m.AttachmentOrder = append(m.AttachmentOrder[:i], m.AttachmentOrder[i+1:]...)
			break
		}
	}
}

// ClearAttachments drops all attachments (after a successful send, or on
// session switch).
func (m *Model) ClearAttachments() {
	m.Attachments = make(map[string]ingest.Attachment)
	m.AttachmentOrder = nil
}

// OrderedAttachments returns attachments in the order they were added.
func (m *Model) OrderedAttachments() []ingest.Attachment {
	out := make([]ingest.Attachment, 0, len(m.AttachmentOrder))
	for _, id := range m.AttachmentOrder {
		if att, ok := m.Attachments[id]; ok {
			out = append(out, att)
		}
	}
	return out
}

// beginStream allocates a fresh stream context. Any previous stream is
// aborted first; its sequence number goes stale so late messages from it
// are ignored.
func (m *Model) beginStream() (context.Context, int) {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	m.streamSeq++
	m.Streaming = true
	return ctx, m.streamSeq
}

// AbortStream cancels the in-flight stream, if any.
func (m *Model) AbortStream() {
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
}

// StreamSeqCurrent reports whether a completion message belongs to the
// latest send.
func (m *Model) StreamSeqCurrent(seq int) bool {
	return seq == m.streamSeq
}

// ResetForSession swaps in a loaded session: any in-flight stream is
// aborted and pending attachments are dropped.
func (m *Model) ResetForSession(session *storage.Session) {
	m.AbortStream()
	m.Streaming = false
	m.ClearAttachments()
	m.CurrentSession = session

	m.Messages = nil
	if session != nil {
		for _, sMsg := range session.Messages {
			m.Messages = append(m.Messages, Message{
				Role:      sMsg.Role,
				Content:   sMsg.Content,
				Rendered:  sMsg.Rendered,
				Timestamp: sMsg.Timestamp,
			})
		}
	}
	m.NeedsInitialRender = len(m.Messages) > 0
	m.SessionDirty = false
}

// LastAssistantReply returns the most recent assistant turn, for
// insertion into the editor.
func (m *Model) LastAssistantReply() (string, bool) {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Role == RoleAssistant {
			return m.Messages[i].Content, true
		}
	}
	return "", false
}
