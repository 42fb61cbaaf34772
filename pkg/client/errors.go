package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Error categories. Every error returned by Client matches at most one of
// them with errors.Is.
var (
	// ErrValidation is a request rejected because of its input, either before
	// it was sent or by the server.
	ErrValidation = errors.New("validation failed")
	// ErrAuth is a rejected credential or an expired or invalid session.
	ErrAuth = errors.New("not authenticated")
	// ErrNetwork is a transport failure: no response was received.
	ErrNetwork = errors.New("network error")
	// ErrServer is a 5xx response or a response body that could not be read.
	ErrServer = errors.New("server error")
)

var (
	// ErrInvalidCredentials is returned by Login when the server rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is returned when the refresh token is rejected and the
	// session has been torn down.
	ErrSessionExpired = errors.New("session invalid or token reused")
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	// Fields holds per-field messages from an {"errors": {...}} body.
	Fields map[string]string

	// structured is set when Message came from a JSON error body.
	structured bool
}

func (e *HTTPError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, joinFields(e.Fields))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto an error category.
func (e *HTTPError) Unwrap() error {
	switch {
	case len(e.Fields) > 0:
		return ErrValidation
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuth
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.StatusCode >= 500:
		return ErrServer
	}
	return nil
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// ValidationError is returned before any network call when input fails the
// client-side checks.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "validation failed: " + joinFields(e.Fields)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// errorBody is the union of the error shapes the API returns.
type errorBody struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func decodeError(resp *http.Response) *HTTPError {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}

	var apiErr errorBody
	if json.Unmarshal(respBody, &apiErr) == nil {
		if fields := decodeFieldErrors(apiErr.Errors); len(fields) > 0 {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, Fields: fields, structured: true}
		}
		if apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, structured: true}
		}
		if apiErr.Message != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message, structured: true}
		}
	}

	msg := strings.TrimSpace(string(respBody))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

// decodeFieldErrors accepts {"field": "msg"} and [{"path": "field", "msg": "..."}].
func decodeFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var byField map[string]string
	if json.Unmarshal(raw, &byField) == nil {
		for k, v := range byField {
			if v == "" {
				delete(byField, k)
			}
		}
		return byField
	}
	var list []struct {
		Path  string `json:"path"`
		Param string `json:"param"`
		Msg   string `json:"msg"`
	}
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	fields := make(map[string]string, len(list))
	for _, item := range list {
		name := item.Path
		if name == "" {
			name = item.Param
		}
		if name == "" || item.Msg == "" {
			continue
		}
		if _, seen := fields[name]; !seen {
			fields[name] = item.Msg
		}
	}
	return fields
}
