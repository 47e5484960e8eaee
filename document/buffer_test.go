package document

import "testing"

func TestBufferSplice(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		r    Range
		text string
		want string
	}{
		{
			name: "insert at caret",
			doc:  "hello world",
			r:    Range{Start: Position{1, 6}, End: Position{1, 6}},
			text: ",",
			want: "hello, world",
		},
		{
			name: "replace within line",
			doc:  "aaa bbb ccc",
			r:    Range{Start: Position{1, 5}, End: Position{1, 8}},
			text: "XX",
			want: "aaa XX ccc",
		},
		{
			name: "replace across lines",
			doc:  "one\ntwo\nthree",
			r:    Range{Start: Position{1, 3}, End: Position{3, 3}},
			text: "-",
			want: "on-ree",
		},
		{
			name: "insert multi line",
			doc:  "ab",
			r:    Range{Start: Position{1, 2}, End: Position{1, 2}},
			text: "1\n2",
			want: "a1\n2b",
		},
		{
			name: "delete range",
			doc:  "delete me now",
			r:    Range{Start: Position{1, 7}, End: Position{1, 10}},
			text: "",
			want: "delete now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer(tt.doc)
			buf.SpliceText(tt.r, tt.text)
			if got := buf.Content(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBufferCursorAfterSplice(t *testing.T) {
	buf := NewBuffer("xy")
	buf.SpliceText(Range{Start: Position{1, 2}, End: Position{1, 2}}, "a\nbc")
	if got, want := buf.CursorPosition(), (Position{Line: 2, Col: 3}); got != want {
		t.Errorf("cursor = %v, want %v", got, want)
	}
}

func TestBufferClampsOutOfRange(t *testing.T) {
	buf := NewBuffer("short")
	buf.SetCursor(Position{Line: 99, Col: 99})
	if got, want := buf.CursorPosition(), (Position{Line: 1, Col: 6}); got != want {
		t.Errorf("cursor = %v, want %v", got, want)
	}
}
