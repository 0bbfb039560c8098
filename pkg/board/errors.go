package board

import "fmt"

// Returned for malformed board or move text, never leaves partial state behind
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid notation %q: %s", e.Input, e.Reason)
}

func formatErrorf(input, format string, args ...any) error {
	return &FormatError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
