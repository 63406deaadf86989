// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisory

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client failures for retry and presentation decisions.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota

	// ErrTypeConnection - service unreachable. Transient; retried.
	ErrTypeConnection

	// ErrTypeTimeout - the request exceeded its deadline. Transient; retried.
	ErrTypeTimeout

	// ErrTypeModelNotFound - the named model is not installed. Terminal.
	ErrTypeModelNotFound

	// ErrTypeMalformedResponse - unexpected payload shape. Terminal.
	ErrTypeMalformedResponse
)

// ClientError is a classified failure from the advisory service. Message
// states what failed; Remedy states what the operator can do about it.
type ClientError struct {
	Type    ErrorType
	Message string
	Remedy  string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure class is transient.
func (e *ClientError) Retryable() bool {
	return e.Type == ErrTypeConnection || e.Type == ErrTypeTimeout
}

// UserMessage joins the message and remedy for display.
func (e *ClientError) UserMessage() string {
	if e.Remedy == "" {
		return e.Message
	}
	return e.Message + ". " + e.Remedy
}

func connectionError(endpoint string, cause error) *ClientError {
	return &ClientError{
		Type:    ErrTypeConnection,
		Message: "could not connect to advisory service at " + endpoint,
		Remedy:  "Start the service (ollama serve) and check ADVISORY_ENDPOINT",
		Cause:   cause,
	}
}

func timeoutError(cause error) *ClientError {
	return &ClientError{
		Type:    ErrTypeTimeout,
		Message: "advisory request timed out",
		Remedy:  "Increase ADVISORY_TIMEOUT or switch to a smaller model",
		Cause:   cause,
	}
}

func modelNotFoundError(model string) *ClientError {
	return &ClientError{
		Type:    ErrTypeModelNotFound,
		Message: "model " + model + " not found on the advisory service",
		Remedy:  "Pull it first: ollama pull " + model,
	}
}

func malformedResponseError(detail string, cause error) *ClientError {
	return &ClientError{
		Type:    ErrTypeMalformedResponse,
		Message: "unexpected advisory response: " + detail,
		Remedy:  "Check that ADVISORY_ENDPOINT points at an Ollama-compatible service",
		Cause:   cause,
	}
}

// =============================================================================
// CLASSIFIER HELPERS
// =============================================================================

// IsConnection reports whether err is a connection-class failure.
func IsConnection(err error) bool { return hasType(err, ErrTypeConnection) }

// IsTimeout reports whether err is a timeout-class failure.
func IsTimeout(err error) bool { return hasType(err, ErrTypeTimeout) }

// IsModelNotFound reports whether err is a missing-model failure.
func IsModelNotFound(err error) bool { return hasType(err, ErrTypeModelNotFound) }

// IsMalformedResponse reports whether err is a payload-shape failure.
func IsMalformedResponse(err error) bool { return hasType(err, ErrTypeMalformedResponse) }

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}
