package unipile

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Classification is the typed error verdict for a LinkedIn call.
type Classification struct {
	Type        string
	IsTransient bool
	Message     string
}

// Error type labels.
const (
	ErrNetwork    = "network"
	ErrTimeout    = "timeout"
	ErrAuth       = "auth"
	ErrRateLimit  = "rate_limit"
	ErrNotFound   = "not_found"
	ErrValidation = "validation"
	ErrAPI        = "api"
	ErrUnknown    = "unknown"
)

// ClassifyError maps an error from a Unipile call to the pipeline error
// taxonomy. Rate limits, timeouts, network faults, and 5xx responses are
// transient.
func ClassifyError(err error) Classification {
	if err == nil {
		return Classification{Type: ErrUnknown}
	}
	msg := err.Error()

	var ae *apiError
	if errors.As(err, &ae) {
		return classifyStatus(ae.StatusCode, msg)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{Type: ErrTimeout, IsTransient: true, Message: msg}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Classification{Type: ErrTimeout, IsTransient: true, Message: msg}
		}
		return Classification{Type: ErrNetwork, IsTransient: true, Message: msg}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout"):
		return Classification{Type: ErrTimeout, IsTransient: true, Message: msg}
	case strings.Contains(lower, "econn"), strings.Contains(lower, "connection"):
		return Classification{Type: ErrNetwork, IsTransient: true, Message: msg}
	}

	return Classification{Type: ErrUnknown, Message: msg}
}

func classifyStatus(code int, msg string) Classification {
	switch {
	case code == 401 || code == 403:
		return Classification{Type: ErrAuth, Message: msg}
	case code == 404:
		return Classification{Type: ErrNotFound, Message: msg}
	case code == 422 || code == 400:
		return Classification{Type: ErrValidation, Message: msg}
	case code == 429:
		return Classification{Type: ErrRateLimit, IsTransient: true, Message: msg}
	case code >= 500:
		return Classification{Type: ErrAPI, IsTransient: true, Message: msg}
	default:
		return Classification{Type: ErrAPI, Message: msg}
	}
}
