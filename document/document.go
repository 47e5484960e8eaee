// Package document provides the host-document capability consumed by the
// AI panel: a coordinate model, an editor contract, and the reversible
// insert-then-confirm transaction for generated text.
//
// The panel never talks to a concrete editor widget. Anything that can
// splice text, delete a range and carry a visual mark can host an insertion;
// the in-memory Buffer in this package is the reference implementation used
// by the TUI and by tests.
package document

import (
	"strings"
	"unicode/utf8"
)

// Position is a 1-based (line, column) coordinate in a document.
// Column counts runes; column 1 is before the first rune of the line.
type Position struct {
	Line int
	Col  int
}

// Range is a half-open span between two positions, Start inclusive,
// End exclusive. A zero-width range (Start == End) is a caret.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range is zero-width.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Editor is the contract a host document implements for the panel.
//
// Selection returns the current selection and whether it is non-empty.
// SpliceText replaces the given range with text (an empty range inserts).
// MarkRange applies the single visual marker; ClearMark removes it.
type Editor interface {
	Selection() (Range, bool)
	CursorPosition() Position
	SpliceText(r Range, text string)
	DeleteRange(r Range)
	MarkRange(r Range)
	ClearMark()
}

// EndPosition computes where text ends when inserted at start.
// Single-line text advances the column by its rune count; multi-line text
// advances the line by newline count and the column restarts after the
// final line.
func EndPosition(start Position, text string) Position {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return Position{Line: start.Line, Col: start.Col + utf8.RuneCountInString(text)}
	}
	return Position{
		Line: start.Line + len(lines) - 1,
		Col:  utf8.RuneCountInString(lines[len(lines)-1]) + 1,
	}
}
