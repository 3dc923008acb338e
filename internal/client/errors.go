// ABOUTME: Typed API errors and the failure taxonomy used by callers
// ABOUTME: Maps HTTP status and transport failures to auth/validation/not-found/transient kinds

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failure so callers can decide how to surface it
type Kind int

const (
	// KindRequest is any other client-side 4xx
	KindRequest Kind = iota
	// KindAuth is a bad credential or an expired/invalid token
	KindAuth
	// KindForbidden is a valid session lacking permission
	KindForbidden
	// KindValidation is malformed input or server-side field errors
	KindValidation
	// KindNotFound is a missing resource
	KindNotFound
	// KindTransient is a network failure, timeout, rate limit, or 5xx
	KindTransient
	// KindCanceled means the caller gave up
	KindCanceled
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindCanceled:
		return "canceled"
	default:
		return "request"
	}
}

// APIError is returned for every failed request
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Fields holds per-field validation messages keyed by JSON field name
	Fields    map[string]string
	RequestID string
	Err       error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		sb.WriteString(" [")
		sb.WriteString(e.FieldSummary())
		sb.WriteString("]")
	}
	return sb.String()
}

// Unwrap returns the underlying transport error, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// FieldSummary renders field errors as "field: message" pairs in stable order
func (e *APIError) FieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, ", ")
}

func kindOf(err error) (Kind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAuth
}

// IsForbidden reports whether err is a permission failure
func IsForbidden(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindForbidden
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsTransient reports whether err is a network or server failure worth retrying
func IsTransient(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransient
}

// Message returns a short user-facing message for err
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Kind {
	case KindAuth:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Authentication failed. Please log in again."
	case KindForbidden:
		return "You do not have permission to do that."
	case KindValidation:
		if len(apiErr.Fields) > 0 {
			return apiErr.FieldSummary()
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid input."
	case KindNotFound:
		return "Not found."
	case KindTransient:
		return "Something went wrong. Please try again."
	case KindCanceled:
		return "Request canceled."
	default:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed with status %d.", apiErr.StatusCode)
	}
}

// kindForStatus maps an HTTP status code to a failure kind
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests, status >= 500:
		return KindTransient
	default:
		return KindRequest
	}
}

// parseError builds an APIError from a non-2xx response body.
// The backend answers with {"message"}, {"error"}, {"errors": {...}} or a bare string.
func parseError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		RequestID:  requestID,
	}

	var structured struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		apiErr.Message = structured.Message
		if apiErr.Message == "" {
			apiErr.Message = structured.Error
		}
		if len(structured.Errors) > 0 {
			apiErr.Fields = structured.Errors
		}
		if apiErr.Message == "" && apiErr.Fields == nil {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		apiErr.Message = plain
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// requestError converts transport and context errors to an APIError
func (c *Client) requestError(ctx context.Context, err error) *APIError {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &APIError{Kind: KindCanceled, Message: "request canceled", Err: err}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &APIError{Kind: KindTransient, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTransient, Message: "request timed out", Err: err}
	}
	return &APIError{
		Kind:    KindTransient,
		Message: fmt.Sprintf("cannot connect to backend at %s", c.baseURL),
		Err:     err,
	}
}
