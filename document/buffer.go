package document

import "strings"

// Buffer is a line-based in-memory document implementing Editor.
// It tracks a cursor, an optional selection and at most one visual mark.
type Buffer struct {
	lines  []string
	cursor Position
	sel    *Range
	mark   *Range
}

// NewBuffer creates a buffer holding content, cursor at 1:1.
func NewBuffer(content string) *Buffer {
	return &Buffer{
		lines:  strings.Split(content, "\n"),
		cursor: Position{Line: 1, Col: 1},
	}
}

// Content returns the full document text.
func (b *Buffer) Content() string {
	return strings.Join(b.lines, "\n")
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// SetCursor moves the cursor, clamped to the document.
func (b *Buffer) SetCursor(p Position) {
	b.cursor = b.clamp(p)
}

// SetSelection sets the active selection and moves the cursor to its end.
func (b *Buffer) SetSelection(r Range) {
	clamped := Range{Start: b.clamp(r.Start), End: b.clamp(r.End)}
	b.sel = &clamped
	b.cursor = clamped.End
}

// ClearSelection drops the active selection.
func (b *Buffer) ClearSelection() {
	b.sel = nil
}

func (b *Buffer) Selection() (Range, bool) {
	if b.sel == nil || b.sel.IsEmpty() {
		return Range{}, false
	}
	return *b.sel, true
}

func (b *Buffer) CursorPosition() Position {
	return b.cursor
}

// SpliceText replaces r with text. The cursor lands at the end of the
// inserted text and any selection is consumed by the edit.
func (b *Buffer) SpliceText(r Range, text string) {
	start := b.clamp(r.Start)
	end := b.clamp(r.End)

	prefix := string([]rune(b.lines[start.Line-1])[:start.Col-1])
	suffix := string([]rune(b.lines[end.Line-1])[end.Col-1:])

	inserted := strings.Split(text, "\n")
	inserted[0] = prefix + inserted[0]
	inserted[len(inserted)-1] += suffix

	rebuilt := make([]string, 0, len(b.lines)-(end.Line-start.Line+1)+len(inserted))
	rebuilt = append(rebuilt, b.lines[:start.Line-1]...)
	rebuilt = append(rebuilt, inserted...)
	rebuilt = append(rebuilt, b.lines[end.Line:]...)
	b.lines = rebuilt

	b.sel = nil
	b.cursor = EndPosition(start, text)
}

func (b *Buffer) DeleteRange(r Range) {
	b.SpliceText(r, "")
}

func (b *Buffer) MarkRange(r Range) {
	marked := r
	b.mark = &marked
}

func (b *Buffer) ClearMark() {
	b.mark = nil
}

// Mark returns the current visual mark, if any.
func (b *Buffer) Mark() (Range, bool) {
	if b.mark == nil {
		return Range{}, false
	}
	return *b.mark, true
}

// clamp constrains p to valid coordinates within the buffer.
func (b *Buffer) clamp(p Position) Position {
	if p.Line < 1 {
		p.Line = 1
	}
	if p.Line > len(b.lines) {
		p.Line = len(b.lines)
	}
	if p.Col < 1 {
		p.Col = 1
	}
	if max := len([]rune(b.lines[p.Line-1])) + 1; p.Col > max {
		p.Col = max
	}
	return p
}
