package ingest

// AttachmentKind distinguishes the two canonical attachment forms.
type AttachmentKind int

const (
	AttachmentText AttachmentKind = iota
	AttachmentImage
)

// Attachment is a user-supplied file normalized for prompt assembly.
//
// Text attachments are filled asynchronously by the remote parse service:
// they start with Pending set, and end up either with Text populated or with
// ParseErr recording why extraction failed. Failed attachments are kept so
// the user can see what happened, but they never reach the assembled prompt.
//
// Image attachments are processed locally and are never pending: Payload
// holds the base64 transmission encoding, Preview a small encoding for the UI.
type Attachment struct {
	ID   string
	Kind AttachmentKind
	Name string
	Size int64

	// Text attachments
	Text      string
	Truncated bool
	Pending   bool
	ParseErr  string

	// Image attachments
	Payload string
	Preview string
}

// Usable reports whether the attachment can contribute to a prompt.
func (a *Attachment) Usable() bool {
	if a.Kind == AttachmentImage {
		return a.Payload != ""
	}
	return !a.Pending && a.ParseErr == ""
}
