package mdb

import "fmt"

// ExtractionError reports a failed toolkit invocation against one legacy
// database file. Table is empty for file-level operations.
type ExtractionError struct {
	File  string
	Table string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("extracting table %q from %s: %v", e.Table, e.File, e.Err)
	}
	return fmt.Sprintf("extracting from %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
