package chunk

import (
	"fmt"

	"github.com/zurustar/sampleconv/pkg/messages"
)

// ParseError reports a structurally invalid container. Key is a stable
// message-key identifier (see pkg/messages); Offset is the byte position at
// which the problem was detected, or -1 when not applicable.
type ParseError struct {
	Key    string
	Offset int64
	Args   []any
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("[%s] %s (at offset %d)", e.Key, messages.Get(e.Key, e.Args...), e.Offset)
	}
	return fmt.Sprintf("[%s] %s", e.Key, messages.Get(e.Key, e.Args...))
}

// NewParseError creates a ParseError for the given message key.
func NewParseError(key string, offset int64, args ...any) *ParseError {
	return &ParseError{Key: key, Offset: offset, Args: args}
}
