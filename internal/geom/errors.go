package geom

import "fmt"

// ValidationError reports a geometric value that violates a construction
// invariant. It is not recoverable: the offending value must not be used.
type ValidationError struct {
	Kind   string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Kind + ": " + e.Reason
}

func invalid(kind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
