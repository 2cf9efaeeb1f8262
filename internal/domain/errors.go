package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before any I/O was attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnsupportedVariableError reports a requested variable outside the known set.
type UnsupportedVariableError struct {
	Name string
}

func (e *UnsupportedVariableError) Error() string {
	return fmt.Sprintf("unsupported variable %q", e.Name)
}

// NetworkError wraps a connection, DNS, or timeout failure from the provider.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather provider unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response from the provider.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("weather provider returned status %d", e.Code)
}

// MalformedResponseError reports a 2xx response whose body does not have the
// expected shape: unparseable JSON, a missing hourly axis, series whose length
// does not match the time axis, or an unparseable timestamp.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed provider response: %s", e.Reason)
}

// IncompleteDataError reports a requested variable absent from the response.
type IncompleteDataError struct {
	Variable Variable
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("response is missing requested variable %q", e.Variable)
}

// DataIntegrityError reports a sample that is neither numeric nor the
// provider's null sentinel. Such values are never coerced to zero because a
// fabricated zero would corrupt downstream statistics.
type DataIntegrityError struct {
	Variable Variable
	Token    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("non-numeric sample %s for variable %q", e.Token, e.Variable)
}

// StorageError reports a persistence failure: unwritable path, I/O error, or
// a concurrent modification detected during a merge-then-rewrite.
type StorageError struct {
	Reason string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage failure (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("storage failure: %s", e.Reason)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CorruptFileError reports a persisted file that exists but does not parse
// into the expected schema.
type CorruptFileError struct {
	Path   string
	Reason string
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt dataset file %s: %s", e.Path, e.Reason)
}

// ErrorKind maps an error to its taxonomy label for API responses and logs.
// Unknown errors map to "internal".
func ErrorKind(err error) string {
	var (
		validation  *ValidationError
		unsupported *UnsupportedVariableError
		network     *NetworkError
		httpStatus  *HTTPStatusError
		malformed   *MalformedResponseError
		incomplete  *IncompleteDataError
		integrity   *DataIntegrityError
		storage     *StorageError
		corrupt     *CorruptFileError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &unsupported):
		return "unsupported_variable"
	case errors.As(err, &network):
		return "network"
	case errors.As(err, &httpStatus):
		return "http_status"
	case errors.As(err, &malformed):
		return "malformed_response"
	case errors.As(err, &incomplete):
		return "incomplete_data"
	case errors.As(err, &integrity):
		return "data_integrity"
	case errors.As(err, &storage):
		return "storage"
	case errors.As(err, &corrupt):
		return "corrupt_file"
	default:
		return "internal"
	}
}
