package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength caps URL length to keep index tokens and storage bounded.
const maxURLLength = 2048

// ValidateURL validates the format of a URL used for feeds and webhook
// endpoints. It checks that the URL is well-formed, uses an HTTP or HTTPS
// scheme, and has a host. Returns a ValidationError if the URL is invalid or
// empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsed.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}
