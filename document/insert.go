package document

// Inserter runs the insert-then-confirm transaction for generated text.
//
// Insert splices text at the selection (or cursor), records the exact span
// and marks it visually. The caller then resolves the transaction with
// Accept, which keeps the text, or Discard, which deletes exactly the
// recorded span. At most one insertion is ever pending: inserting again
// first discards the previous pending one.
type Inserter struct {
	ed      Editor
	pending *Range
}

// NewInserter creates an inserter bound to ed. A nil editor is allowed;
// Insert then reports failure instead of panicking.
func NewInserter(ed Editor) *Inserter {
	return &Inserter{ed: ed}
}

// Insert splices text into the document at the current selection, or at a
// zero-width point at the cursor when nothing is selected. It returns false
// without touching any state when the editor is unavailable.
func (i *Inserter) Insert(text string) bool {
	if i.ed == nil {
		return false
	}

	// Explicit precondition: a pending insertion is discarded before the
	// new one starts, so two never coexist.
	if i.pending != nil {
		i.Discard()
	}

	target, ok := i.ed.Selection()
	if !ok {
		p := i.ed.CursorPosition()
		target = Range{Start: p, End: p}
	}

	i.ed.SpliceText(target, text)

	span := Range{Start: target.Start, End: EndPosition(target.Start, text)}
	i.pending = &span
	i.ed.MarkRange(span)
	return true
}

// Accept finalizes the pending insertion: the text stays, the mark goes.
func (i *Inserter) Accept() {
	if i.pending == nil {
		return
	}
	i.ed.ClearMark()
	i.pending = nil
}

// Discard reverts the pending insertion, deleting exactly the recorded span.
func (i *Inserter) Discard() {
	if i.pending == nil {
		return
	}
	span := *i.pending
	i.ed.ClearMark()
	i.pending = nil
	i.ed.DeleteRange(span)
}

// Pending returns the span of the not-yet-resolved insertion, if any.
func (i *Inserter) Pending() (Range, bool) {
	if i.pending == nil {
		return Range{}, false
	}
	return *i.pending, true
}
