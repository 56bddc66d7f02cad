package config

import "errors"

var (
	// ErrEmptyCatalogURL is returned when no catalog URL is configured
	ErrEmptyCatalogURL = errors.New("catalog_url cannot be empty")
	// ErrEmptyLinkSelector is returned when no link selector is configured
	ErrEmptyLinkSelector = errors.New("link_selector cannot be empty")
	// ErrEmptyOutputRoot is returned when the output root is empty
	ErrEmptyOutputRoot = errors.New("output_root cannot be empty")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidDelay is returned when the request delay is negative
	ErrInvalidDelay = errors.New("request_delay cannot be negative")
	// ErrNoExtensions is returned when no convertible file extensions are configured
	ErrNoExtensions = errors.New("file_extensions cannot be empty")
)
