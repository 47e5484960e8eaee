package model

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ahme/config"
	"ahme/ingest"
)

const ingestTimeout = 60 * time.Second

// IngestFile reads and ingests one file from disk. Each file is its own
// command, so one failure never blocks the rest of a multi-file drop.
func (m *Model) IngestFile(path string) tea.Cmd {
	ingestor := m.Ingestor

	return func() tea.Msg {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			return AttachmentIngestedMsg{ID: name, Err: err}
		}
		if info.Size() > ingest.MaxUploadBytes {
			return AttachmentIngestedMsg{ID: name, Err: ingest.ErrTooLarge}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return AttachmentIngestedMsg{ID: name, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		att, err := ingestor.Ingest(ctx, name, "", data)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("ingest failed for %s: %v", name, err)
			}
			return AttachmentIngestedMsg{ID: name, Err: err}
		}

		return AttachmentIngestedMsg{ID: att.ID, Attachment: att}
	}
}

// IngestData ingests in-memory content, such as a pasted image.
func (m *Model) IngestData(name, mediaType string, data []byte) tea.Cmd {
	ingestor := m.Ingestor

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		att, err := ingestor.Ingest(ctx, name, mediaType, data)
		if err != nil {
			return AttachmentIngestedMsg{ID: name, Err: err}
		}
		return AttachmentIngestedMsg{ID: att.ID, Attachment: att}
	}
}
