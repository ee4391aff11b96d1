package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// APIError is a non-2xx backend response. Body holds the raw payload so
// callers can surface validation detail the backend attached.
type APIError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: backend returned %d", e.StatusCode)
}

// newAPIError builds an APIError from a response body, extracting the
// Django-style "detail" field when present.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

func hasStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsUnauthorized reports a credential failure (401).
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports a permission failure (403). Never retried.
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsNotFound reports a missing resource (404).
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsNetworkError reports a transport-level failure: no response was received
// at all (connection refused, DNS, timeout). The UI shows a connectivity
// message for these instead of an auth message.
func IsNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
