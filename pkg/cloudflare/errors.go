package cloudflare

import (
	"fmt"
	"strings"
)

// ErrorKind classifies API failures. Every kind is fatal to a report run.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// APIError describes a failed API call
type APIError struct {
	Kind       ErrorKind
	Path       string
	StatusCode int
	Messages   []Message
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindStatus:
		msg := fmt.Sprintf("cloudflare %s: unexpected status %d", e.Path, e.StatusCode)
		if len(e.Messages) > 0 {
			parts := make([]string, 0, len(e.Messages))
			for _, m := range e.Messages {
				parts = append(parts, fmt.Sprintf("%d %s", m.Code, m.Message))
			}
			msg += " (" + strings.Join(parts, "; ") + ")"
		}
		return msg
	case KindDecode:
		return fmt.Sprintf("cloudflare %s: failed to decode response: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("cloudflare %s: request failed: %v", e.Path, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}
