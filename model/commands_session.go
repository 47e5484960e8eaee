package model

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ahme/storage"
)

// FetchSessionList retrieves the list of saved sessions.
func (m *Model) FetchSessionList() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}
	store := m.SessionStorage
	return func() tea.Msg {
		sessions, err := store.List()
		return SessionsListMsg{Sessions: sessions, Err: err}
	}
}

// LoadSessionCmd loads a session by ID.
func (m *Model) LoadSessionCmd(sessionID string) tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	if m.CurrentSession != nil && m.CurrentSession.ID == sessionID {
		current := m.CurrentSession
		return func() tea.Msg {
			return SessionLoadedMsg{Session: current}
		}
	}

	store := m.SessionStorage
	return func() tea.Msg {
		session, err := store.Load(sessionID)
		if err == nil && session == nil {
			err = fmt.Errorf("session %s not found", sessionID)
		}
		if err == nil {
			_ = store.SaveCurrentSessionID(sessionID)
		}
		return SessionLoadedMsg{Session: session, Err: err}
	}
}

// SaveCurrentSession persists the current transcript.
func (m *Model) SaveCurrentSession() tea.Cmd {
	if m.SessionStorage == nil || m.CurrentSession == nil {
		return nil
	}

	var sessionMessages []storage.Message
	for _, msg := range m.Messages {
		if msg.Role == RoleUser || msg.Role == RoleAssistant {
			sessionMessages = append(sessionMessages, storage.Message{
				Role:      msg.Role,
				Content:   msg.Content,
				Rendered:  msg.Rendered,
				Timestamp: msg.Timestamp,
			})
		}
	}

	m.CurrentSession.Messages = sessionMessages
	m.CurrentSession.UpdatedAt = time.Now()
	if m.CurrentSession.Model == "" {
		m.CurrentSession.Model = m.Config.DefaultModel
	}

	session := m.CurrentSession
	store := m.SessionStorage

	return func() tea.Msg {
		err := store.Save(session)
		if err == nil {
			_ = store.SaveCurrentSessionID(session.ID)
		}
		return SessionSavedMsg{Err: err}
	}
}

// AutoSaveSession saves after each completed exchange, creating the session
// and naming it from the first user turn when needed.
func (m *Model) AutoSaveSession() tea.Cmd {
	if m.SessionStorage == nil {
		return nil
	}

	if m.CurrentSession == nil {
		m.CurrentSession = &storage.Session{
			Name:      storage.GenerateSessionName(m.firstUserMessage()),
			Model:     m.Config.DefaultModel,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
	} else if m.CurrentSession.Name == "New Session" && len(m.Messages) > 0 {
		if first := m.firstUserMessage(); first != "" {
			m.CurrentSession.Name = storage.GenerateSessionName(first)
		}
	}

	return m.SaveCurrentSession()
}

func (m *Model) firstUserMessage() string {
	for _, msg := range m.Messages {
		if msg.Role == RoleUser {
			return msg.Content
		}
	}
	return ""
}

// RenameSessionCmd renames a session and refreshes the session list.
func (m *Model) RenameSessionCmd(sessionID, newName string) tea.Cmd {
	store := m.SessionStorage
	return func() tea.Msg {
		if store == nil {
			return SessionRenamedMsg{Err: fmt.Errorf("session storage not initialized")}
		}
		if err := store.Rename(sessionID, newName); err != nil {
			return SessionRenamedMsg{Err: err}
		}
		sessions, err := store.List()
		if err != nil {
			return SessionRenamedMsg{Err: err}
		}
		return SessionsListMsg{Sessions: sessions}
	}
}

// DeleteSessionCmd deletes a session and refreshes the session list.
func (m *Model) DeleteSessionCmd(sessionID string) tea.Cmd {
	store := m.SessionStorage
	return func() tea.Msg {
		if store == nil {
			return SessionDeletedMsg{ID: sessionID, Err: fmt.Errorf("session storage not initialized")}
		}
		if err := store.Delete(sessionID); err != nil {
			return SessionDeletedMsg{ID: sessionID, Err: err}
		}
		return SessionDeletedMsg{ID: sessionID}
	}
}

// CreateAndSaveNewSession creates a fresh session and makes it current.
func (m *Model) CreateAndSaveNewSession(name, systemPrompt string) (*storage.Session, error) {
	if name == "" {
		name = "New Session"
	}

	newSession := &storage.Session{
		Name:         name,
		Model:        m.Config.DefaultModel,
		SystemPrompt: systemPrompt,
		Messages:     []storage.Message{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if m.SessionStorage != nil {
		if err := m.SessionStorage.Save(newSession); err != nil {
			return nil, fmt.Errorf("failed to save new session: %w", err)
		}
		if err := m.SessionStorage.SaveCurrentSessionID(newSession.ID); err != nil {
			return nil, fmt.Errorf("failed to save current session ID: %w", err)
		}
	}

	return newSession, nil
}
