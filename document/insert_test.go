package document

import "testing"

func TestEndPosition(t *testing.T) {
	tests := []struct {
		name  string
		start Position
		text  string
		want  Position
	}{
		{
			name:  "empty text",
			start: Position{Line: 3, Col: 5},
			text:  "",
			want:  Position{Line: 3, Col: 5},
		},
		{
			name:  "single line",
			start: Position{Line: 1, Col: 4},
			text:  "hello",
			want:  Position{Line: 1, Col: 9},
		},
		{
			name:  "two lines",
			start: Position{Line: 2, Col: 7},
			text:  "foo\nbar",
			want:  Position{Line: 3, Col: 4},
		},
		{
			name:  "trailing newline",
			start: Position{Line: 1, Col: 1},
			text:  "abc\n",
			want:  Position{Line: 2, Col: 1},
		},
		{
			name:  "multibyte runes",
			start: Position{Line: 1, Col: 1},
			text:  "héllo",
			want:  Position{Line: 1, Col: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndPosition(tt.start, tt.text)
			if got != tt.want {
				t.Errorf("EndPosition(%v, %q) = %v, want %v", tt.start, tt.text, got, tt.want)
			}
		})
	}
}

func TestInsertDiscardRestoresDocument(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		cursor Position
		text   string
	}{
		{
			name:   "single line at start",
			doc:    "alpha beta",
			cursor: Position{Line: 1, Col: 1},
			text:   "NEW ",
		},
		{
			name:   "single line mid document",
			doc:    "one\ntwo\nthree",
			cursor: Position{Line: 2, Col: 2},
			text:   "XYZ",
		},
		{
			name:   "multi line insertion",
			doc:    "head\ntail",
			cursor: Position{Line: 1, Col: 5},
			text:   "\ngenerated line 1\ngenerated line 2",
		},
		{
			name:   "empty insertion",
			doc:    "unchanged",
			cursor: Position{Line: 1, Col: 4},
			text:   "",
		},
		{
			name:   "insertion at end of document",
			doc:    "last line",
			cursor: Position{Line: 1, Col: 10},
			text:   "...\nmore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(tt.doc)
			buf.SetCursor(tt.cursor)
			ins := NewInserter(buf)

			if !ins.Insert(tt.text) {
				t.Fatal("Insert returned false")
			}
			ins.Discard()

			if got := buf.Content(); got != tt.doc {
				t.Errorf("after discard: got %q, want %q", got, tt.doc)
			}
			if _, ok := ins.Pending(); ok {
				t.Error("pending range survived discard")
			}
			if _, ok := buf.Mark(); ok {
				t.Error("mark survived discard")
			}
		})
	}
}

func TestInsertAcceptKeepsText(t *testing.T) {
	buf := NewBuffer("before after")
	buf.SetCursor(Position{Line: 1, Col: 8})
	ins := NewInserter(buf)

	if !ins.Insert("MIDDLE ") {
		t.Fatal("Insert returned false")
	}
	ins.Accept()

	if got, want := buf.Content(), "before MIDDLE after"; got != want {
		t.Errorf("after accept: got %q, want %q", got, want)
	}
	if _, ok := ins.Pending(); ok {
		t.Error("pending range survived accept")
	}
	if _, ok := buf.Mark(); ok {
		t.Error("mark survived accept")
	}
}

func TestInsertReplacesSelection(t *testing.T) {
	buf := NewBuffer("keep REPLACE keep")
	buf.SetSelection(Range{
		Start: Position{Line: 1, Col: 6},
		End:   Position{Line: 1, Col: 13},
	})
	ins := NewInserter(buf)

	ins.Insert("new")
	if got, want := buf.Content(), "keep new keep"; got != want {
		t.Fatalf("after insert over selection: got %q, want %q", got, want)
	}

	// Discard removes exactly the inserted span.
	ins.Discard()
	if got, want := buf.Content(), "keep  keep"; got != want {
		t.Errorf("after discard: got %q, want %q", got, want)
	}
}

func TestInsertMarksExactSpan(t *testing.T) {
	buf := NewBuffer("line one\nline two")
	buf.SetCursor(Position{Line: 2, Col: 5})
	ins := NewInserter(buf)

	ins.Insert("A\nBB")

	mark, ok := buf.Mark()
	if !ok {
		t.Fatal("no mark after insert")
	}
	want := Range{
		Start: Position{Line: 2, Col: 5},
		End:   Position{Line: 3, Col: 3},
	}
	if mark != want {
		t.Errorf("mark = %v, want %v", mark, want)
	}
	pending, _ := ins.Pending()
	if pending != want {
		t.Errorf("pending = %v, want %v", pending, want)
	}
}

func TestSecondInsertDiscardsFirst(t *testing.T) {
	buf := NewBuffer("base")
	buf.SetCursor(Position{Line: 1, Col: 5})
	ins := NewInserter(buf)

	ins.Insert(" first")
	// Cursor now sits after the first insertion; inserting again must
	// silently revert it before splicing the new text.
	ins.Insert(" second")

	if got, want := buf.Content(), "base second"; got != want {
		t.Errorf("after second insert: got %q, want %q", got, want)
	}

	ins.Discard()
	if got, want := buf.Content(), "base"; got != want {
		t.Errorf("after final discard: got %q, want %q", got, want)
	}
}

func TestInsertWithoutEditor(t *testing.T) {
	ins := NewInserter(nil)
	if ins.Insert("text") {
		t.Error("Insert succeeded with no editor")
	}
	if _, ok := ins.Pending(); ok {
		t.Error("pending range created with no editor")
	}
	// Resolving a transaction that never started must not panic.
	ins.Accept()
	ins.Discard()
}
