package convert

import "fmt"

// PreconditionError aborts a batch before any conversion work starts:
// the external toolkit is unavailable or there is nothing to convert.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("precondition failed: %s", e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
