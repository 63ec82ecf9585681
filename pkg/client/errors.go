package client

import "fmt"

// APIError - Helix API responded with unexpected status code
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("twitch api responded with status %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("twitch api responded with status %d", e.StatusCode)
}
