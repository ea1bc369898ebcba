package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind buckets provider failures by how the caller should react.
type ErrorKind string

const (
	// ErrorKindRateLimited means the backend asked us to slow down, retry
	// after a longer backoff.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindTransient covers timeouts and server-side failures that a
	// plain retry may resolve.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindFatal means retrying cannot help, the run must abort.
	ErrorKindFatal ErrorKind = "fatal"
)

// ProviderError is a classified failure from a chat backend.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (err *ProviderError) Error() string {
	if err.StatusCode > 0 {
		return fmt.Sprintf("provider request failed with status '%d': %s", err.StatusCode, err.Message)
	}
	return err.Message
}

// NewProviderError builds a ProviderError with its kind derived from the
// HTTP status code.
func NewProviderError(statusCode int, message string) *ProviderError {
	return &ProviderError{
		Kind:       ClassifyStatus(statusCode),
		StatusCode: statusCode,
		Message:    message,
	}
}

// ClassifyStatus maps an HTTP status code to an ErrorKind. 429 is rate
// limiting, request timeouts and 5xx are transient, everything else
// (auth failures, bad requests, missing models) is fatal.
func ClassifyStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorKindRateLimited
	case statusCode == http.StatusRequestTimeout, statusCode >= 500:
		return ErrorKindTransient
	default:
		return ErrorKindFatal
	}
}

// Classify derives the ErrorKind for any error coming out of a provider
// stream. Unclassified errors count as transient so network hiccups get
// retried, a canceled context never does.
func Classify(err error) ErrorKind {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ErrorKindFatal
	}
	return ErrorKindTransient
}
