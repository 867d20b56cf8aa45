package werrors

// ValidationError is a specialized error type for input validation failures.
type ValidationError struct {
	*baseError
	field    string
	rule     string
	provided any
	expected any
}

func NewValidationError(err error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{baseError: NewBaseError(err, code, msg)}
}

func (ve *ValidationError) WithMessage(msg string) *ValidationError {
	ve.baseError.WithMessage(msg)
	return ve
}

func (ve *ValidationError) WithCode(code ErrorCode) *ValidationError {
	ve.baseError.WithCode(code)
	return ve
}

func (ve *ValidationError) WithDetail(key string, value any) *ValidationError {
	ve.baseError.WithDetail(key, value)
	return ve
}

func (ve *ValidationError) WithField(field string) *ValidationError {
	ve.field = field
	return ve
}

func (ve *ValidationError) WithRule(rule string) *ValidationError {
	ve.rule = rule
	return ve
}

func (ve *ValidationError) WithProvided(value any) *ValidationError {
	ve.provided = value
	return ve
}

func (ve *ValidationError) WithExpected(value any) *ValidationError {
	ve.expected = value
	return ve
}

func (ve *ValidationError) Field() string    { return ve.field }
func (ve *ValidationError) Rule() string     { return ve.rule }
func (ve *ValidationError) Provided() any    { return ve.provided }
func (ve *ValidationError) Expected() any    { return ve.expected }

func NewRequiredFieldError(fieldName string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "required field is missing or empty").
		WithField(fieldName).WithRule("required")
}

func NewFieldRangeError(fieldName string, provided, min, max any) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "field value is outside acceptable range").
		WithField(fieldName).WithRule("range").WithProvided(provided).
		WithDetail("minValue", min).WithDetail("maxValue", max)
}
