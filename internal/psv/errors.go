package psv

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfTable is returned by row reads once the table has ended.
	ErrEndOfTable = errors.New("end of table")
	// ErrNotReady is returned by row reads on a table that has no committed header.
	ErrNotReady = errors.New("table header not parsed")
)

// ReadError reports a failure of the underlying input.
type ReadError struct {
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read input after line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
