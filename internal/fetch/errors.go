package fetch

import "errors"

var (
	// ErrTimeout means the page never finished loading within the
	// configured window.
	ErrTimeout = errors.New("page load timed out")

	// ErrFetch wraps any other failure opening or reading a resource.
	ErrFetch = errors.New("fetch failed")

	// ErrNotInitialized means a fetch was attempted before the browser
	// connection was set up.
	ErrNotInitialized = errors.New("fetcher not initialized")
)
