package model

import "time"

// Conversation roles. The first message sent to the inference service is
// always a system message; turns are never reordered after that.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one turn in the conversation
type Message struct {
	Role      string
	Content   string // Raw content from the model
	Rendered  string // Cached rendered markdown (optimize if storage becomes a concern)
	Timestamp time.Time
}
