package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the Gemini API.
type APIError struct {
	Code    int
	State   string
	Message string
}

func (e *APIError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("gemini http status %d (%s): %s", e.Code, e.State, e.Message)
	}
	return fmt.Sprintf("gemini http status %d: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int { return e.Code }

// Status returns the RPC status name, e.g. RESOURCE_EXHAUSTED.
func (e *APIError) Status() string { return e.State }

func newAPIError(code int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{Code: code, Message: strings.TrimSpace(string(body))}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.State = envelope.Error.Status
	}
	return apiErr
}
