package chat

import "fmt"

// The engine reports failures through a small typed taxonomy so the
// transport layer can map them to status codes without string matching.

// ValidationError is a recoverable bad-input failure, surfaced to the
// caller as a field-level message. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ErrEmptyMessage rejects a message with no text and no attachment.
// Checked before any attachment rule so the reason stays distinct.
var ErrEmptyMessage = &ValidationError{Field: "message", Reason: "message must contain text or a file"}

// AuthorizationError is returned when a non-admin attempts an admin
// action. The action is named for the log line, not the client.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// NotFoundError reports a missing target row.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// StorageError wraps a blob-upload failure.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// PersistError wraps a row-insert failure. When the insert fails after a
// successful upload, the uploaded blob is orphaned; the engine logs the
// URL but does not roll it back.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist: %v", e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }
