package resilience

import (
	"errors"
	"strings"
)

// Kind classifies a failure for retry policy and diagnostics.
type Kind string

const (
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindRateLimit     Kind = "rate_limit"
	KindServerError   Kind = "server_error"
	KindAuth          Kind = "auth"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAPI           Kind = "api"
	KindBlockedDomain Kind = "blocked_domain"
	KindUnknown       Kind = "unknown"
)

// Transient reports whether a kind is safe to retry.
func (k Kind) Transient() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimit, KindServerError:
		return true
	}
	return false
}

// StageError is a classified pipeline failure carrying the stage it occurred
// in. Fatal stage errors end the run; per-candidate ones are recorded and
// skipped.
type StageError struct {
	Stage     string
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *StageError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError from a kind, deriving retryability from
// the kind's transience.
func NewStageError(stage string, kind Kind, message string) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, Retryable: kind.Transient()}
}

// Classify extracts the stage error from err, or derives one from message
// heuristics when the chain carries no classification.
func Classify(stage string, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		out := *se
		if out.Stage == "" {
			out.Stage = stage
		}
		return &out
	}
	kind := kindFromMessage(err.Error())
	return &StageError{Stage: stage, Kind: kind, Message: err.Error(), Retryable: kind.Transient(), Err: err}
}

// IsRetryable reports whether err may be retried: an explicit retryable
// StageError, or a message matching transient provider patterns.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return kindFromMessage(err.Error()).Transient()
}

func kindFromMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "429"), strings.Contains(m, "rate limit"):
		return KindRateLimit
	case strings.Contains(m, "timeout"):
		return KindTimeout
	case strings.Contains(m, "network"), strings.Contains(m, "econn"):
		return KindNetwork
	case strings.Contains(m, "500"), strings.Contains(m, "502"),
		strings.Contains(m, "503"), strings.Contains(m, "504"),
		strings.Contains(m, "bad gateway"), strings.Contains(m, "unavailable"),
		strings.Contains(m, "internal server error"):
		return KindServerError
	default:
		return KindUnknown
	}
}
