// Package shared provides the error taxonomy and result type used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by who can fix it and how it should surface.
type Kind string

const (
	// KindInvalidRequest marks bad or missing caller input.
	KindInvalidRequest Kind = "invalid_request"
	// KindProviderUnavailable marks a transport or backend whose configuration is absent.
	KindProviderUnavailable Kind = "provider_unavailable"
	// KindProviderFailure marks an external call that returned an error.
	KindProviderFailure Kind = "provider_failure"
	// KindRender marks a document rendering failure.
	KindRender Kind = "render_error"
	// KindStorage marks an object upload or signed-URL failure.
	KindStorage Kind = "storage_error"
	// KindNotFound marks a missing stored record.
	KindNotFound Kind = "not_found"
	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "internal"
)

// Error is a classified error. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
