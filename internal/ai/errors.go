package ai

import (
	"errors"
	"fmt"
	"time"
)

// Kind groups provider failures by what a caller can do about them.
type Kind string

const (
	KindConfig      Kind = "config"
	KindAuth        Kind = "auth"
	KindRateLimit   Kind = "rate_limit"
	KindQuota       Kind = "quota"
	KindModel       Kind = "model_not_found"
	KindRequest     Kind = "bad_request"
	KindServer      Kind = "server"
	KindUnreachable Kind = "unreachable"
)

func describe(what string, e *APIError) string {
	if e == nil {
		return what
	}
	return what + ": " + e.Error()
}

// AuthError is a rejected or missing credential (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return describe("credentials rejected", e.APIError) }
func (e *AuthError) Unwrap() error { return e.APIError }

// RateLimitError is a 429. RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return describe(fmt.Sprintf("rate limited for %s", e.RetryAfter.Round(time.Second)), e.APIError)
	}
	return describe("rate limited", e.APIError)
}
func (e *RateLimitError) Unwrap() error { return e.APIError }

// ModelNotFoundError means the provider does not serve the requested model.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return describe("unknown model", e.APIError) }
func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

// BadRequestError is a request the provider refused as invalid.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return describe("request rejected", e.APIError) }
func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError covers billing and credit exhaustion.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return describe("quota exhausted", e.APIError) }
func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is a 5xx from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return describe("provider failure", e.APIError) }
func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP exchange happened at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("cannot reach provider: %v", e.Err)
	}
	return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ConfigError indicates a runtime cannot be used because a required setting,
// usually a credential, is missing. Callers must not fall back on it.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Key)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// KindOf classifies err, returning "" for anything that is not a provider failure.
func KindOf(err error) Kind {
	var (
		ce  *ConfigError
		ae  *AuthError
		rl  *RateLimitError
		qe  *QuotaExceededError
		nf  *ModelNotFoundError
		br  *BadRequestError
		se  *ServerError
		ue  *UnreachableError
		raw *APIError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return KindConfig
	case errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &rl):
		return KindRateLimit
	case errors.As(err, &qe):
		return KindQuota
	case errors.As(err, &nf):
		return KindModel
	case errors.As(err, &br):
		return KindRequest
	case errors.As(err, &se):
		return KindServer
	case errors.As(err, &ue):
		return KindUnreachable
	case errors.As(err, &raw):
		if raw.StatusCode >= 500 {
			return KindServer
		}
		return KindRequest
	}
	return ""
}

// Temporary reports whether the same request may succeed later unchanged.
func Temporary(err error) bool {
	switch KindOf(err) {
	case KindRateLimit, KindServer, KindUnreachable:
		return true
	}
	return false
}
