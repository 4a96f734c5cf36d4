// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// The four failure classes the pipeline distinguishes. Only configuration
// errors are fatal to a run; everything else is recorded per row or per
// chunk and the batch keeps going.

// ValidationError marks an input row that cannot be processed: missing
// required fields or a URL no extractor recognizes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RetrievalError wraps any network or provider failure: timeout,
// non-success status, malformed response, private or removed content.
type RetrievalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieval failed for %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retrieval failed for %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrieval wraps err as a retrieval failure for url.
func NewRetrieval(url string, err error) *RetrievalError {
	return &RetrievalError{URL: url, Err: err}
}

// NewRetrievalStatus records a non-success HTTP status for url.
func NewRetrievalStatus(url string, statusCode int, err error) *RetrievalError {
	return &RetrievalError{URL: url, StatusCode: statusCode, Err: err}
}

// FallbackExhaustedError means both the authenticated lookup and the
// page-scraping fallback failed for the same URL.
type FallbackExhaustedError struct {
	URL         string
	PrimaryErr  error
	FallbackErr error
}

func (e *FallbackExhaustedError) Error() string {
	return fmt.Sprintf("all retrieval strategies failed for %s: primary: %v; fallback: %v",
		e.URL, e.PrimaryErr, e.FallbackErr)
}

func (e *FallbackExhaustedError) Unwrap() error { return e.FallbackErr }

// ConfigurationError is the only fatal class: malformed credential or an
// unusable storage backend, detected once before any rows are processed.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfiguration creates a fatal configuration error.
func NewConfiguration(message string, err error) *ConfigurationError {
	return &ConfigurationError{Message: message, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsRetrieval reports whether err is (or wraps) a RetrievalError.
func IsRetrieval(err error) bool {
	var target *RetrievalError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsFallbackExhausted reports whether err is (or wraps) a FallbackExhaustedError.
func IsFallbackExhausted(err error) bool {
	var target *FallbackExhaustedError
	return errors.As(err, &target)
}

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Permanent marks err as not worth retrying; Retry unwraps and returns it
// immediately. Used for HTTP statuses that will not change on retry.
func Permanent(err error) error {
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retry runs operation up to MaxRetries+1 times with exponential backoff
// and jitter. Validation, configuration and Permanent-marked errors are
// never retried.
func Retry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if IsValidation(err) || IsConfiguration(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(cfg, attempt)):
		}
	}

	return lastErr
}

// backoffDelay computes base_delay * 2^attempt plus jitter, capped at MaxDelay.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<uint(attempt))
	if delay <= 0 || delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay/2) + 1))
	total := delay + jitter
	if total > cfg.MaxDelay {
		total = cfg.MaxDelay
	}
	return total
}
