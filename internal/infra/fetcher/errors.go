// Package fetcher retrieves full article content for entries whose feed body
// is too thin, using the Mozilla Readability extraction algorithm.
package fetcher

import "errors"

var (
	// ErrInvalidURL indicates the URL failed validation before any request
	// was made.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the URL resolves to a private, loopback, or
	// link-local address.
	ErrPrivateIP = errors.New("URL resolves to private IP")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("content fetch timed out")

	// ErrBodyTooLarge indicates the response exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates the redirect chain exceeded the limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrExtractionFailed indicates Readability found no usable article
	// content in the page.
	ErrExtractionFailed = errors.New("content extraction failed")
)
