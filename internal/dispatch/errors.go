package dispatch

import (
	"errors"
	"fmt"

	"github.com/hyperjump/chatnova/internal/models"
)

var (
	// ErrUnknownProvider is returned when the requested provider is not registered.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrAllProvidersFailed matches any *AllProvidersFailedError.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// AllProvidersFailedError carries the cause of every attempt. Fallback is empty when
// no fallback was tried.
type AllProvidersFailedError struct {
	Preferred    models.ProviderID
	Fallback     models.ProviderID
	PreferredErr error
	FallbackErr  error
}

func (e *AllProvidersFailedError) Error() string {
	if e.Fallback == "" {
		return fmt.Sprintf("%v: %s: %v", ErrAllProvidersFailed, e.Preferred, e.PreferredErr)
	}
	return fmt.Sprintf("%v: %s: %v; %s: %v", ErrAllProvidersFailed, e.Preferred, e.PreferredErr, e.Fallback, e.FallbackErr)
}

func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

func (e *AllProvidersFailedError) Unwrap() []error {
	errs := []error{e.PreferredErr}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}
