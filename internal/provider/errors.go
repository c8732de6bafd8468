package provider

import (
	"errors"
	"fmt"
)

// UnreachableError reports a network, DNS or connection failure reaching a gateway
type UnreachableError struct {
	Provider ProviderType
	URL      string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s gateway unreachable at %s: %v", e.Provider, e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// HTTPError reports a gateway that answered with a non-2xx status
type HTTPError struct {
	Provider   ProviderType
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s gateway returned HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s gateway returned HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NormalizationError reports a 2xx payload that did not have the expected shape
type NormalizationError struct {
	Provider ProviderType
	Reason   string
	Err      error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ValidationError reports caller input missing a mandatory field or holding an invalid value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
