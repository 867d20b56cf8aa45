// This file generalizes the teacher's pkg/errors/errors.go helper surface
// (Is*/As*/GetErrorCode/GetErrorDetails) across the five leaf error types
// wumpus needs: ValidationError, StorageError, IndexError, CompressionError,
// and QueryError.
package werrors

import stdErrors "errors"

func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

func IsCompressionError(err error) bool {
	var ce *CompressionError
	return stdErrors.As(err, &ce)
}

func IsQueryError(err error) bool {
	var qe *QueryError
	return stdErrors.As(err, &qe)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	return ve, stdErrors.As(err, &ve)
}

func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	return se, stdErrors.As(err, &se)
}

func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	return ie, stdErrors.As(err, &ie)
}

func AsCompressionError(err error) (*CompressionError, bool) {
	var ce *CompressionError
	return ce, stdErrors.As(err, &ce)
}

func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	return qe, stdErrors.As(err, &qe)
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't have a specific code.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	if ce, ok := AsCompressionError(err); ok {
		return ce.Code()
	}
	if qe, ok := AsQueryError(err); ok {
		return qe.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok && ve.Details() != nil {
		return ve.Details()
	}
	if se, ok := AsStorageError(err); ok && se.Details() != nil {
		return se.Details()
	}
	if ie, ok := AsIndexError(err); ok && ie.Details() != nil {
		return ie.Details()
	}
	if ce, ok := AsCompressionError(err); ok && ce.Details() != nil {
		return ce.Details()
	}
	if qe, ok := AsQueryError(err); ok && qe.Details() != nil {
		return qe.Details()
	}
	return make(map[string]any)
}
