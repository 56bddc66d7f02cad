package fetch

import "fmt"

// RetrievalError reports a failed archive download. Staged files already
// written for that archive are left behind in an undefined state and must be
// ignored by the caller.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
