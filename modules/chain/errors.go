package chain

import (
	"errors"
	"fmt"
)

// ErrConfigUnavailable is returned when the key-block lookup or the
// parameter projection yields no value. Callers with a documented
// default apply it instead of propagating.
var ErrConfigUnavailable = errors.New("chain config parameter unavailable")

// RpcError wraps a transport failure of a gateway operation.
type RpcError struct {
	Op  string
	Err error
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RpcError) Unwrap() error {
	return e.Err
}
