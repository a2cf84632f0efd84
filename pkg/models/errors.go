package models

// Conflict kinds surfaced in error response meta so clients can branch
// without parsing messages.
const (
	ConflictAlreadyLinked = "already_linked"
	ConflictIMNMismatch   = "imn_mismatch"
)

// ConflictError reports a linking conflict. The global error handler maps it
// to a 409 response with Kind under meta.conflict.
type ConflictError struct {
	Kind    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a new ConflictError
func NewConflictError(kind, message string) *ConflictError {
	return &ConflictError{Kind: kind, Message: message}
}
