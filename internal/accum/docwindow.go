package accum

// docStartMarker and docEndMarker are the structural pseudo-terms that
// bracket a document-level TF window (spec §4.3: "at document start (<doc>
// posting) the accumulator opens a TF-accumulation window ... at </doc> the
// window flushes one posting per seen term").
const (
	docStartMarker = "<doc>"
	docEndMarker   = "</doc>"
)

// OpenDocument starts a new document-level TF window at docStart, the
// posting offset of the <doc> marker.
func (a *Accumulator) OpenDocument(docStart int64) error {
	if a.closed.Load() {
		return ErrAccumulatorClosed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.addPostingLocked(docStartMarker, docStart); err != nil {
		return err
	}
	clear(a.docWindow)
	a.docStart = docStart
	a.inDoc = true
	return nil
}

// CloseDocument ends the current document-level TF window at docEnd,
// flushing one posting per distinct term seen since OpenDocument, with the
// term's saturated frequency count encoded into the low DocLevelMaxTF bits
// of the document's start offset.
func (a *Accumulator) CloseDocument(docEnd int64) error {
	if a.closed.Load() {
		return ErrAccumulatorClosed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.inDoc {
		return nil
	}

	encodedBase := a.docStart << DocLevelMaxTF
	for term, tf := range a.docWindow {
		posting := encodedBase | int64(tf)
		if err := a.addPostingLocked(term, posting); err != nil {
			return err
		}
	}

	if err := a.addPostingLocked(docEndMarker, docEnd); err != nil {
		return err
	}

	clear(a.docWindow)
	a.inDoc = false
	return nil
}

// DecodeDocLevelPosting splits a document-level posting back into the
// document's start offset and the term's saturated frequency within it.
func DecodeDocLevelPosting(posting int64) (docStart int64, tf int) {
	return posting >> DocLevelMaxTF, int(posting & maxTF)
}
