package facts

import "fmt"

// ValidationError reports a malformed request payload. It is terminal: the
// pipeline fails fast on it and never retries, distinguishing "malformed
// request" from transient provider failures.
type ValidationError struct {
	Field   string // offending field, or "" for a document-level failure
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
