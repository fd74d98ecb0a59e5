package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed query.
type ErrorKind string

const (
	// KindTransport means no usable response was received.
	KindTransport ErrorKind = "transport"
	// KindService means the remote service answered with a non-success status.
	KindService ErrorKind = "service"
	// KindEmpty means the response was valid but carried no usable data.
	KindEmpty ErrorKind = "empty"
	// KindRequest means the query could not be issued at all (unknown endpoint,
	// unencodable parameters).
	KindRequest ErrorKind = "request"
)

// APIError is the structured error surfaced to display surfaces instead of a
// raw transport exception.
type APIError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status,omitempty"`
	Code       int       `json:"code,omitempty"`
	Message    string    `json:"message"`

	Err error `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError returns err as an *APIError, wrapping anything else as a transport
// failure. It returns nil for a nil error.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Kind:    KindTransport,
		Message: err.Error(),
		Err:     err,
	}
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
