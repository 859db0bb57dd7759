package document

import "fmt"

// FormatError reports text that does not follow the document grammar.
type FormatError struct {
	Line    int // 1-based; 0 when the error is not tied to a line
	Message string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func formatErrorf(line int, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Message: fmt.Sprintf(format, args...)}
}
