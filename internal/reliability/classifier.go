package reliability

import (
	"errors"
	"strings"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

type statusCoder interface {
	StatusCode() int
}

type statusTexter interface {
	Status() string
}

// IsRetryable reports whether a caller may retry after err. Errors carrying an
// HTTP status are judged by it; anything else gets fallback.
func IsRetryable(err error, fallback bool) bool {
	if err == nil {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.StatusCode())
	}
	return fallback
}

// IsQuotaError reports whether err signals rate limiting or quota exhaustion.
// Typed status information is checked first, then the error text.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == 429 {
		return true
	}
	var st statusTexter
	if errors.As(err, &st) && strings.EqualFold(strings.TrimSpace(st.Status()), "RESOURCE_EXHAUSTED") {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "quota")
}

// FailureKind groups backend failures by how they are shown to the learner.
type FailureKind string

const (
	FailureQuota   FailureKind = "quota"
	FailureNetwork FailureKind = "network"
)

func Classify(err error) FailureKind {
	if IsQuotaError(err) {
		return FailureQuota
	}
	return FailureNetwork
}
