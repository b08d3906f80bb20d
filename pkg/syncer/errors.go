package syncer

import "fmt"

const maxBodyLen = 512

// StatusError is returned by sources when the remote answered with a non-2xx
// status. Body is truncated.
type StatusError struct {
	StatusCode int
	Body       string
}

// NewStatusError builds a StatusError, truncating the response body.
func NewStatusError(code int, body []byte) *StatusError {
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen]
	}
	return &StatusError{StatusCode: code, Body: string(body)}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// TransportError marks a failed primary page request. The run stops and the
// records collected so far are flagged as partial.
type TransportError struct {
	Entity     string
	Offset     int
	Cursor     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: page at offset %d failed with status %d: %v", e.Entity, e.Offset, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: page at offset %d failed: %v", e.Entity, e.Offset, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EnrichmentError marks a failed secondary lookup. It never aborts a run.
type EnrichmentError struct {
	Entity     string
	Column     string
	Href       string
	StatusCode int
	Err        error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("%s: resolve %s from %s: %v", e.Entity, e.Column, e.Href, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }
