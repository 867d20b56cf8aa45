package werrors

// QueryError is a specialized error type for the GCL/BM25 query engine (C8):
// parse failures, unknown or unsupported commands, and cancellation.
type QueryError struct {
	*baseError
	command string
	body    string
}

func NewQueryError(err error, code ErrorCode, msg string) *QueryError {
	return &QueryError{baseError: NewBaseError(err, code, msg)}
}

func (qe *QueryError) WithMessage(msg string) *QueryError {
	qe.baseError.WithMessage(msg)
	return qe
}

func (qe *QueryError) WithCode(code ErrorCode) *QueryError {
	qe.baseError.WithCode(code)
	return qe
}

func (qe *QueryError) WithDetail(key string, value any) *QueryError {
	qe.baseError.WithDetail(key, value)
	return qe
}

func (qe *QueryError) WithCommand(command string) *QueryError {
	qe.command = command
	return qe
}

func (qe *QueryError) WithBody(body string) *QueryError {
	qe.body = body
	return qe
}

func (qe *QueryError) Command() string { return qe.command }
func (qe *QueryError) Body() string    { return qe.body }

func NewUnknownCommandError(command string) *QueryError {
	return NewQueryError(nil, ErrorCodeUnknownCommand, "unknown command").WithCommand(command)
}

func NewCancelledError(command string) *QueryError {
	return NewQueryError(nil, ErrorCodeCancelled, "query cancelled").WithCommand(command)
}
