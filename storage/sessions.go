// Package storage persists panel sessions in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Message is one stored conversation turn.
type Message struct {
	Role      string
	Content   string
	Rendered  string // cached markdown rendering
	Timestamp time.Time
}

// Session is one saved conversation: its system prompt, model and ordered
// turns.
type Session struct {
	ID           string
	Name         string
	Model        string
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Messages     []Message
}

// SessionMetadata is a lightweight version of Session for listing.
type SessionMetadata struct {
	ID           string
	Name         string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// SessionStorage handles session persistence.
type SessionStorage struct {
	db *sql.DB
}

// NewSessionStorage opens (or creates) the session database under dataDir.
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	dbPath := filepath.Join(dataDir, "sessions.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &SessionStorage{db: db}
	if err := storage.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

func (s *SessionStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		model TEXT NOT NULL,
		system_prompt TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		rendered TEXT,
		timestamp DATETIME NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save writes the session and all its turns. A missing ID is assigned;
// UpdatedAt is always bumped.
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	session.UpdatedAt = time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO sessions (id, name, model, system_prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.Name, session.Model, session.SystemPrompt,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	for i, msg := range session.Messages {
		_, err := tx.Exec(`
			INSERT INTO messages (session_id, position, role, content, rendered, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			session.ID, i, msg.Role, msg.Content, msg.Rendered, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to save message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Load returns a session with its turns in order, or nil if the ID is
// unknown.
func (s *SessionStorage) Load(id string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(`
		SELECT id, name, model, COALESCE(system_prompt, ''), created_at, updated_at
		FROM sessions WHERE id = ?`, id).Scan(
		&session.ID, &session.Name, &session.Model, &session.SystemPrompt,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT role, content, COALESCE(rendered, ''), timestamp
		FROM messages WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Rendered, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return &session, nil
}

// List returns session metadata, most recently updated first.
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.name, s.model, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionMetadata
	for rows.Next() {
		var meta SessionMetadata
		err := rows.Scan(&meta.ID, &meta.Name, &meta.Model,
			&meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount)
		if err != nil {
			continue
		}
		sessions = append(sessions, meta)
	}

	return sessions, rows.Err()
}

// Delete removes a session and its turns.
func (s *SessionStorage) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return tx.Commit()
}

// Rename changes a session's display name.
func (s *SessionStorage) Rename(id string, newName string) error {
	result, err := s.db.Exec(`UPDATE sessions SET name = ?, updated_at = ? WHERE id = ?`,
		newName, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

const currentSessionKey = "current_session_id"

// SaveCurrentSessionID records which session is active.
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO app_state (key, value) VALUES (?, ?)`,
		currentSessionKey, id)
	return err
}

// LoadCurrentSessionID returns the active session id, or "" when none is
// recorded.
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`,
		currentSessionKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SessionStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GenerateSessionName derives a session name from the first user message.
func GenerateSessionName(firstMessage string) string {
	if firstMessage == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	name := firstMessage
	if runes := []rune(name); len(runes) > 30 {
		name = string(runes[:30]) + "..."
	}

	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}
	return name
}
