// Package domain defines the core domain models for zumi.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes follow ZC-<AREA>-<NNNN>; the last four digits carry the HTTP class
// (4xxx client, 5xxx server) so transports can map them without a table.
type DomainError struct {
	Code    string // Error code (e.g., "ZC-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on code so that errors.Is(err, ErrSessionNotFound) holds for
// copies produced by WithDetails/WithCause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrValidation indicates a record failed field validation.
	ErrValidation = NewDomainError("ZC-ARG-4001", "validation failed")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("ZC-ARG-4002", "missing required argument")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("ZC-ARG-4003", "invalid argument")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound covers both never-created and expired sessions.
	ErrSessionNotFound = NewDomainError("ZC-SESS-4040", "session not found")

	// ErrVersionConflict indicates an optimistic version mismatch on update.
	ErrVersionConflict = NewDomainError("ZC-SESS-4091", "session version conflict, please retry")

	// ErrStatusRegression indicates an attempt to move a session status backwards.
	ErrStatusRegression = NewDomainError("ZC-SESS-4092", "session status cannot move backwards")

	// ErrDuplicateSession indicates an id collision at creation.
	// Ids are generated server-side, so this is an invariant violation.
	ErrDuplicateSession = NewDomainError("ZC-SESS-5090", "duplicate session id")
)

// ============================================================================
// Proof Errors (PROOF)
// ============================================================================

var (
	// ErrProofNotFound indicates the proof record is absent or expired.
	ErrProofNotFound = NewDomainError("ZC-PROOF-4040", "proof not found")

	// ErrProofGeneration indicates the proof generator failed.
	ErrProofGeneration = NewDomainError("ZC-PROOF-5000", "proof generation failed")
)

// ============================================================================
// Balance Errors (BAL)
// ============================================================================

var (
	// ErrBalanceNotCached means the cache holds nothing for the address.
	// It never means a zero balance.
	ErrBalanceNotCached = NewDomainError("ZC-BAL-4040", "balance not cached")
)

// ============================================================================
// Chain Errors (CHAIN)
// ============================================================================

var (
	// ErrInvalidAddress indicates the address failed the chain probe.
	ErrInvalidAddress = NewDomainError("ZC-CHAIN-4001", "invalid address")

	// ErrUpstreamFailure indicates the chain node was unreachable or returned an error.
	ErrUpstreamFailure = NewDomainError("ZC-CHAIN-5020", "chain service unavailable")
)

// ============================================================================
// Webhook Errors (HOOK)
// ============================================================================

var (
	// ErrWebhookNotFound indicates no notification is stored for the session.
	ErrWebhookNotFound = NewDomainError("ZC-HOOK-4040", "webhook not found")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("ZC-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key did not match any configured hash.
	ErrAPIKeyInvalid = NewDomainError("ZC-AUTH-4011", "invalid api key")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("ZC-AUTH-4290", "too many requests")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("ZC-SYS-5000", "internal server error")

	// ErrCorruptRecord indicates stored bytes failed to decode or validate.
	ErrCorruptRecord = NewDomainError("ZC-SYS-5001", "corrupt stored record")

	// ErrStorageFailure indicates the key-value store was unreachable or failed.
	ErrStorageFailure = NewDomainError("ZC-SYS-5020", "storage unavailable")

	// ErrBadRequest indicates a malformed request body.
	ErrBadRequest = NewDomainError("ZC-SYS-4000", "bad request")
)
