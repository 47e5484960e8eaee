package ui

import (
	"ahme/model"
)

// Message type alias so rendering code reads naturally
type Message = model.Message

// tea.Msg aliases - the types live in the model package
type streamChunksCollectedMsg = model.StreamChunksCollectedMsg
type displayChunkTickMsg = model.DisplayChunkTickMsg
type attachmentIngestedMsg = model.AttachmentIngestedMsg
type markdownRenderedMsg = model.MarkdownRenderedMsg
type modelsListMsg = model.ModelsListMsg
type pullFinishedMsg = model.PullFinishedMsg
type downloadTickMsg = model.DownloadTickMsg
type sessionsListMsg = model.SessionsListMsg
type sessionLoadedMsg = model.SessionLoadedMsg
type sessionSavedMsg = model.SessionSavedMsg
type sessionRenamedMsg = model.SessionRenamedMsg
type sessionDeletedMsg = model.SessionDeletedMsg
type insertResultMsg = model.InsertResultMsg
type flashTickMsg = model.FlashTickMsg
