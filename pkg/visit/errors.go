package visit

import (
	"errors"
	"fmt"
)

var (
	ErrLocationRequired  = errors.New("visit: location required")
	ErrSurfaceRequired   = errors.New("visit: surface required")
	ErrVisitableRequired = errors.New("visit: visitable required")
	ErrUnknownKind       = errors.New("visit: unknown kind")
	ErrUnknownAction     = errors.New("visit: unknown action")
)

// HTTPError reports a response the surface delivered with a non-2xx
// status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http failure: status %d", e.StatusCode)
}

// NewHTTPError creates an HTTPError for the given status code.
func NewHTTPError(statusCode int) *HTTPError {
	return &HTTPError{StatusCode: statusCode}
}

// NetworkError reports a transport-level failure: the load never produced
// an interpretable HTTP response.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("network failure: %s", e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a NetworkError wrapping an optional cause.
func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{Message: message, Cause: cause}
}

// HTTPStatus extracts the status code from an HTTPError, if err is one.
func HTTPStatus(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsNetworkFailure reports whether err classifies as a transport failure.
func IsNetworkFailure(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
