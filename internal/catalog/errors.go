package catalog

import "fmt"

// FetchError reports an unreachable catalog page or a non-success status.
// Discovery cannot proceed without the page, so this is fatal to the run.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching catalog %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching catalog %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a catalog page that could not be parsed as markup.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing catalog %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
