// Package errors provides error handling for selor.
//
// This package re-exports github.com/cockroachdb/errors so every error carries a
// stack trace and can be annotated with hints for CLI users, and defines the
// sentinel errors shared by the atom pool, satisfaction matrix and explanation
// packages.
//
// Usage:
//
//	if err := pool.Verify(vocab); err != nil {
//	    return errors.Wrap(err, "load atom pool")
//	}
//
//	return errors.WithHint(errors.Wrap(ErrSchemaMismatch, "vocabulary"),
//	    "rebuild the pool with `selor pool build`")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// AssertionFailedf reports a broken internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors. Wrap them with Wrap/Wrapf to add context; callers match
// with Is.
var (
	// ErrNotFound indicates the requested pool, run or file does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input, e.g. an unknown atom id in an antecedent
	ErrInvalidRequest = New("invalid request")

	// ErrNotSupported indicates an unsupported dataset/base-model pairing or modality
	ErrNotSupported = New("not supported")

	// ErrInvalidAtom indicates an atom whose fields do not fit its kind
	ErrInvalidAtom = New("invalid atom")

	// ErrFrozen indicates a mutation attempted after the atom store was finalized
	ErrFrozen = New("atom store is frozen")

	// ErrSchemaMismatch indicates a persisted pool built under a different
	// vocabulary, column schema or artifact format
	ErrSchemaMismatch = New("schema mismatch")

	// ErrDimensionMismatch indicates a feature matrix whose shape does not
	// match the atoms or embeddings it is combined with
	ErrDimensionMismatch = New("dimension mismatch")

	// ErrQuotaUnderfilled indicates text mining found fewer qualifying words
	// than the requested atom quota (strict mode only)
	ErrQuotaUnderfilled = New("atom quota underfilled")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsNotSupportedError checks if an error is or wraps ErrNotSupported
func IsNotSupportedError(err error) bool {
	return err != nil && Is(err, ErrNotSupported)
}

// IsSchemaMismatchError checks if an error is or wraps ErrSchemaMismatch
func IsSchemaMismatchError(err error) bool {
	return err != nil && Is(err, ErrSchemaMismatch)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// NewNotSupportedError creates a not-supported error with a formatted message
func NewNotSupportedError(format string, args ...interface{}) error {
	return Wrapf(ErrNotSupported, format, args...)
}

// NewSchemaMismatchError creates a schema-mismatch error with a formatted message
func NewSchemaMismatchError(format string, args ...interface{}) error {
	return Wrapf(ErrSchemaMismatch, format, args...)
}
