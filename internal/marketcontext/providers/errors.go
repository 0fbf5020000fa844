package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for upstream data providers.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "provider_outage"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorNotConfigured  ErrorCategory = "not_configured"
)

// ProviderError wraps an upstream failure with its category.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func newError(category ErrorCategory, provider, message string, underlying error) *ProviderError {
	return &ProviderError{Category: category, Provider: provider, Message: message, Underlying: underlying}
}

// CategoryOf returns the category of err, or "" when err is not a ProviderError.
func CategoryOf(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// statusCategory maps an HTTP status to a failure category.
func statusCategory(status int) ErrorCategory {
	switch {
	case status == 401 || status == 403:
		return ErrorAuthentication
	case status == 429:
		return ErrorRateLimited
	case status == 408 || status == 504:
		return ErrorTimeout
	case status >= 500:
		return ErrorOutage
	default:
		return ErrorBadData
	}
}
