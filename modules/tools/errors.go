package tools

import (
	"errors"
	"fmt"
)

// ErrKeyGen marks a key generation whose output did not contain the
// expected key pattern.
var ErrKeyGen = errors.New("key generation failed")

// ToolchainError wraps a failed or timed-out external tool invocation.
// It is fatal for the current attempt; retry policy lives with the
// caller.
type ToolchainError struct {
	Tool string
	Err  error
}

func (e *ToolchainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolchainError) Unwrap() error {
	return e.Err
}

