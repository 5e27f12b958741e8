package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TransportError is a failure to complete the exchange: the request could not
// be sent, or the response body could not be read or decoded.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a response with status >= 400. Message is taken from the
// response body and may be empty.
type HTTPError struct {
	Status     int
	StatusText string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.StatusText, e.Message)
}

// PartialFailureError reports a multi-status exchange that completed but in
// which some items failed.
type PartialFailureError struct {
	Status     int
	StatusText string
	Failed     int
	Total      int
	Items      MultiStatus
}

func (e *PartialFailureError) Error() string {
	return e.Message()
}

// Message is the user-facing summary.
func (e *PartialFailureError) Message() string {
	return fmt.Sprintf("%d of %d operations failed.", e.Failed, e.Total)
}

// errorMessage extracts a message from an error body: the JSON string or
// compact JSON value when the body is JSON, otherwise the trimmed text.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if json.Valid(trimmed) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if obj.Message != "" {
				return obj.Message
			}
			if obj.Error != "" {
				return obj.Error
			}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err == nil {
			return compact.String()
		}
	}
	return strings.TrimSpace(string(trimmed))
}
