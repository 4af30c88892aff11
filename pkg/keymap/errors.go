package keymap

import (
	"github.com/zurustar/sampleconv/pkg/messages"
)

// MultisampleError reports that a sample set could not be reconciled into a
// valid key/velocity layout. It is fatal to the multisample being mapped but
// carries no meaning for other multisamples in a batch.
type MultisampleError struct {
	Key  string
	Args []any
}

func (e *MultisampleError) Error() string {
	return "[" + e.Key + "] " + messages.Get(e.Key, e.Args...)
}

func newMultisampleError(key string, args ...any) *MultisampleError {
	return &MultisampleError{Key: key, Args: args}
}

// CombinationError reports a failed stereo left/right pairing.
type CombinationError struct {
	Key  string
	Args []any
}

func (e *CombinationError) Error() string {
	return "[" + e.Key + "] " + messages.Get(e.Key, e.Args...)
}

func newCombinationError(key string, args ...any) *CombinationError {
	return &CombinationError{Key: key, Args: args}
}
