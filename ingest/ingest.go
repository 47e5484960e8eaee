// Package ingest normalizes user-supplied files into chat attachments:
// images become a resized, base64-encoded payload; documents become
// extracted text with a size cap.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ahme/config"
)

const (
	// MaxUploadBytes is the upload ceiling enforced before any parse attempt.
	MaxUploadBytes = 50 * 1024 * 1024

	// MaxTextChars caps extracted text; longer documents are truncated
	// and flagged.
	MaxTextChars = 100_000
)

var (
	ErrTooLarge        = errors.New("file is too large (limit: 50MB)")
	ErrBinaryFile      = errors.New("file looks binary; attach a text file or PDF")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// textExtensions are read as-is, without a parse service.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".log": true,
	".xml": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".js": true, ".ts": true, ".tsx": true, ".jsx": true, ".py": true, ".rs": true,
	".html": true, ".css": true, ".scss": true, ".sh": true, ".bash": true,
	".go": true,
}

// imageExtensions classify as images when no media type is declared.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true,
}

// SupportedTypes is the guidance list shown when a file is rejected.
var SupportedTypes = []string{
	".txt", ".md", ".csv", ".json", ".log", ".pdf",
	".xml", ".yaml", ".yml", ".py", ".js", ".ts",
}

// UnsupportedTypeError carries the offending extension alongside the
// supported list. It matches ErrUnsupportedType under errors.Is.
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q (supported: %s)",
		e.Ext, strings.Join(SupportedTypes, ", "))
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Classify decides whether a file is an image or a document. The declared
// media type wins; the extension is the fallback, case-insensitive. Files
// without an extension are tentatively text unless the sample contains a
// null byte.
func Classify(name, mediaType string, sample []byte) (AttachmentKind, error) {
	if strings.HasPrefix(mediaType, "image/") {
		return AttachmentImage, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExtensions[ext]:
		return AttachmentImage, nil
	case ext == ".pdf" || textExtensions[ext]:
		return AttachmentText, nil
	case ext == "":
		if bytes.IndexByte(sample, 0) >= 0 {
			return AttachmentText, ErrBinaryFile
		}
		return AttachmentText, nil
	default:
		return AttachmentText, &UnsupportedTypeError{Ext: ext}
	}
}

// Ingestor routes a raw file through classification to the right pipeline.
// Images are processed locally; documents go through text extraction.
type Ingestor struct {
	parser *Parser
}

func NewIngestor(parser *Parser) *Ingestor {
	return &Ingestor{parser: parser}
}

// Ingest turns one raw file into an attachment. Parse failures do not
// discard the attachment: it comes back with ParseErr set so the caller
// can show the reason, and prompt assembly skips it.
func (g *Ingestor) Ingest(ctx context.Context, name, mediaType string, data []byte) (Attachment, error) {
	if len(data) > MaxUploadBytes {
		return Attachment{}, ErrTooLarge
	}

	kind, err := Classify(name, mediaType, sampleOf(data))
	if err != nil {
		return Attachment{}, err
	}

	if kind == AttachmentImage {
		return ProcessImage(name, data)
	}

	att := Attachment{
		ID:   uuid.New().String(),
		Kind: AttachmentText,
		Name: name,
		Size: int64(len(data)),
	}

	text, truncated, err := g.extractText(ctx, name, data)
	if err != nil {
		att.ParseErr = err.Error()
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Ingest] parse failed for %s: %v", name, err)
		}
		return att, nil
	}
	att.Text = text
	att.Truncated = truncated
	return att, nil
}

// extractText reads recognized text formats in-process; everything else
// (PDF today) needs the parse service.
func (g *Ingestor) extractText(ctx context.Context, name string, data []byte) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(name))

	if ext == ".pdf" {
		if g.parser == nil {
			return "", false, errors.New("PDF parsing requires a parser service (set parser.url)")
		}
		return g.parser.Parse(ctx, name, data)
	}

	if g.parser != nil && !textExtensions[ext] {
		return g.parser.Parse(ctx, name, data)
	}

	text := string(data)
	if strings.IndexByte(text, 0) >= 0 {
		return "", false, ErrBinaryFile
	}
	text, truncated := TruncateText(text)
	return text, truncated, nil
}

// TruncateText applies the extracted-text ceiling, reporting whether
// anything was cut.
func TruncateText(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= MaxTextChars {
		return text, false
	}
	return string(runes[:MaxTextChars]), true
}

func sampleOf(data []byte) []byte {
	const sampleSize = 8192
	if len(data) > sampleSize {
		return data[:sampleSize]
	}
	return data
}
