package correlation

import (
	"errors"
	"fmt"
)

// ErrUnknownIDFormat is returned by NewGenerator for unsupported formats
var ErrUnknownIDFormat = errors.New("correlation: unknown id format")

// PanicError carries a panic raised by work started with Go
type PanicError struct {
	Value any
	Stack []byte
	Chain Chain
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("correlation: task %s panicked: %v", e.Chain.Last(), e.Value)
}

// Unwrap exposes the panic value when it was an error
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
