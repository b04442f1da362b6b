package extract

import "fmt"

// InputError reports an input that could not be opened or read. Other inputs
// are still processed.
type InputError struct {
	Name string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Name, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// SelectionError reports an invalid table selection.
type SelectionError struct{ Message string }

func (e SelectionError) Error() string { return e.Message }
