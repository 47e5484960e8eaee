package model

import (
	"ahme/chat"
	"ahme/ingest"
	"ahme/ollama"
	"ahme/search"
	"ahme/storage"
)

// StreamChunksCollectedMsg carries the full outcome of one send. Seq ties
// it to the send that produced it; stale sequences are dropped.
type StreamChunksCollectedMsg struct {
	Seq    int
	Chunks []string
	Result chat.Result
	Search search.Result
}

type DisplayChunkTickMsg struct{}

type AttachmentIngestedMsg struct {
	ID         string
	Attachment ingest.Attachment
	Err        error
}

type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

type ModelsListMsg struct {
	Models []ollama.ModelInfo
	Err    error
}

type PullFinishedMsg struct {
	Model string
	Err   error
}

type DownloadTickMsg struct{}

type SessionsListMsg struct {
	Sessions []storage.SessionMetadata
	Err      error
}

type SessionLoadedMsg struct {
	Session *storage.Session
	Err     error
}

type SessionSavedMsg struct {
	Err error
}

type SessionRenamedMsg struct {
	Err error
}

type SessionDeletedMsg struct {
	ID  string
	Err error
}

type InsertResultMsg struct {
	Inserted bool
}

type FlashTickMsg struct{}
