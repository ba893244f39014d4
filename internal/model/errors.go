package model

// ErrorKind classifies failures by how the worker should react to them.
type ErrorKind string

const (
	// ErrValidation means local input validation failed; nothing was sent.
	ErrValidation ErrorKind = "validation"
	// ErrCooldown means the claim throttle is still active; nothing was sent.
	ErrCooldown ErrorKind = "cooldown"
	// ErrConflict means the backend refused the operation definitively,
	// e.g. the task was already claimed by someone else.
	ErrConflict ErrorKind = "conflict"
	// ErrTransient means the request failed in transport and may be retried.
	ErrTransient ErrorKind = "transient"
	// ErrServer means the backend returned an unclassified non-zero code.
	ErrServer ErrorKind = "server"
)

// Error is a worker-facing failure. Message is always safe to display;
// transport detail stays in the wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Code    int
	cause   error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewBackendError builds an Error from a backend envelope code and message.
func NewBackendError(kind ErrorKind, code int, message string) *Error {
	if message == "" {
		message = "the request could not be completed, please try again"
	}
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapTransient wraps a transport failure as a retryable error.
func WrapTransient(message string, cause error) *Error {
	return &Error{Kind: ErrTransient, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the worker may usefully retry the operation.
func (e *Error) Retryable() bool {
	return e.Kind == ErrTransient || e.Kind == ErrCooldown
}
