package werrors

// IndexError provides specialized error handling for accumulator / in-place /
// on-disk index lookup and mutation operations.
type IndexError struct {
	*baseError
	term      string
	segmentID uint16
	operation string
	indexSize int
}

func NewIndexError(err error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(err, code, msg)}
}

func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

func (ie *IndexError) WithTerm(term string) *IndexError {
	ie.term = term
	return ie
}

func (ie *IndexError) WithSegmentID(segmentID uint16) *IndexError {
	ie.segmentID = segmentID
	return ie
}

func (ie *IndexError) WithOperation(operation string) *IndexError {
	ie.operation = operation
	return ie
}

func (ie *IndexError) WithIndexSize(size int) *IndexError {
	ie.indexSize = size
	return ie
}

func (ie *IndexError) Term() string      { return ie.term }
func (ie *IndexError) SegmentID() uint16 { return ie.segmentID }
func (ie *IndexError) Operation() string { return ie.operation }
func (ie *IndexError) IndexSize() int    { return ie.indexSize }

func NewTermNotFoundError(term string) *IndexError {
	return NewIndexError(nil, ErrorCodeIndexKeyNotFound, "term not found in index").
		WithTerm(term).WithOperation("GetPostings")
}

func NewNonMonotonicPostingError(term string, prev, next int64) *IndexError {
	return NewIndexError(nil, ErrorCodeNonMonotonicPosting, "posting is not strictly increasing").
		WithTerm(term).WithOperation("Add").
		WithDetail("previousPosting", prev).WithDetail("nextPosting", next)
}
