package main

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("photo service api key not configured")
	ErrInvalidAPIKey = errors.New("invalid photo service api key, please check your settings")
	ErrQueueClosed   = errors.New("request queue closed")
)

// QuotaError is returned when the provider answers 429. The request queue
// treats it as a retry signal rather than a failure.
type QuotaError struct {
	Provider string
	ResetAt  time.Time
}

func (e *QuotaError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("429: %s api rate limit exceeded", e.Provider)
	}
	return fmt.Sprintf("429: %s api rate limit exceeded (resets %s)", e.Provider, e.ResetAt.Format(time.RFC3339))
}

// ServiceError is any other non-2xx answer from the provider.
type ServiceError struct {
	Provider string
	Status   int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s api error: %d", e.Provider, e.Status)
}

// isConfigError reports whether retrying with another query is pointless.
func isConfigError(err error) bool {
	return errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrInvalidAPIKey)
}
