package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a document load failure.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindPermission  Kind = "permission"
	KindCorrupted   Kind = "corrupted"
	KindUnsupported Kind = "unsupported"
	KindUnknown     Kind = "unknown"
)

// LoadError is a structured, classified document load failure. The technical
// Message goes to logs; UserMessage is what the host UI shows. Retryable
// drives the loader's automatic re-attempt policy.
type LoadError struct {
	Kind        Kind   `json:"kind"`
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
	Retryable   bool   `json:"retryable"`
	Cause       error  `json:"-"`
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a retryable transport failure
func NewNetworkError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindNetwork,
		Message:     message,
		UserMessage: "Could not reach the document source. Check your connection and try again.",
		Retryable:   true,
		Cause:       cause,
	}
}

// NewTimeoutError creates a retryable slow-source failure
func NewTimeoutError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindTimeout,
		Message:     message,
		UserMessage: "The document took too long to load. Try again in a moment.",
		Retryable:   true,
		Cause:       cause,
	}
}

// NewPermissionError creates a non-retryable access failure
func NewPermissionError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindPermission,
		Message:     message,
		UserMessage: "You don't have permission to open this document.",
		Retryable:   false,
		Cause:       cause,
	}
}

// NewCorruptedError creates a non-retryable structural failure
func NewCorruptedError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindCorrupted,
		Message:     message,
		UserMessage: "This document appears to be damaged and cannot be displayed.",
		Retryable:   false,
		Cause:       cause,
	}
}

// NewUnsupportedError creates a non-retryable format failure
func NewUnsupportedError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindUnsupported,
		Message:     message,
		UserMessage: "This document uses a format the viewer does not support.",
		Retryable:   false,
		Cause:       cause,
	}
}

// NewUnknownError creates a retryable catch-all failure
func NewUnknownError(message string, cause error) *LoadError {
	return &LoadError{
		Kind:        KindUnknown,
		Message:     message,
		UserMessage: "Something went wrong while loading the document. Try again.",
		Retryable:   true,
		Cause:       cause,
	}
}

// Classify maps an arbitrary error from the open/parse path onto the load
// failure taxonomy. Already-classified errors pass through unchanged.
func Classify(err error) *LoadError {
	if err == nil {
		return nil
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("source deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTimeoutError("network timeout", err)
		}
		return NewNetworkError("transport failure", err)
	}

	// The document backend reports most failures as flat strings, so fall
	// back to message inspection for anything without a structured type.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return NewTimeoutError("source timed out", err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") || strings.Contains(msg, "network"):
		return NewNetworkError("transport failure", err)
	case strings.Contains(msg, "password") || strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") || strings.Contains(msg, "forbidden"):
		return NewPermissionError("document access denied", err)
	case strings.Contains(msg, "unsupported") || strings.Contains(msg, "unknown format"):
		return NewUnsupportedError("unsupported document format", err)
	case strings.Contains(msg, "cannot open") || strings.Contains(msg, "corrupt") || strings.Contains(msg, "malformed") || strings.Contains(msg, "invalid"):
		return NewCorruptedError("document failed structural validation", err)
	default:
		return NewUnknownError("unclassified load failure", err)
	}
}

// IsKind checks if the error is of a specific kind
func IsKind(err error, kind Kind) bool {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Kind == kind
	}
	return false
}

// IsRetryable reports whether an automatic re-attempt is appropriate
func IsRetryable(err error) bool {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Retryable
	}
	return false
}
