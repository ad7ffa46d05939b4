// Package gqlerrors implements the error taxonomy of spec §7: Missing,
// Network, Decode, GraphQLErrors and Programming, generalized from the
// teacher's pkg/errors.AppError (typed error, cause-chaining, predicate
// helpers) to the cache's five error kinds.
package gqlerrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error surfaced by the pipeline.
type Kind string

const (
	// KindMissing is the internal cache-read sentinel: a required
	// record or link was absent. Never crosses the cache's public
	// surface — callers convert it to a cache-miss (§4.4.1, §7).
	KindMissing Kind = "MISSING"
	// KindNetwork means the transport failed to complete the request.
	KindNetwork Kind = "NETWORK"
	// KindDecode means the response JSON failed to deserialize.
	KindDecode Kind = "DECODE"
	// KindGraphQL means the server returned response.errors alongside
	// possibly-null data; never treated as a transport failure.
	KindGraphQL Kind = "GRAPHQL"
	// KindProgramming indicates a code-gen contract violation (missing
	// __typename on a union, malformed selection): fail fast, not
	// recoverable.
	KindProgramming Kind = "PROGRAMMING"
)

// Error is the cache/pipeline's error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// Missing constructs the internal Missing sentinel for a given entity
// key / field key pair.
func Missing(entityKey, fieldKey string) *Error {
	return &Error{Kind: KindMissing, Message: fmt.Sprintf("missing %s.%s", entityKey, fieldKey)}
}

// Network constructs a transport-failure error.
func Network(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Cause: cause}
}

// Decode constructs a response-decode error.
func Decode(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Cause: cause}
}

// GraphQL constructs an error representing server-side GraphQL errors.
func GraphQL(message string) *Error {
	return &Error{Kind: KindGraphQL, Message: message}
}

// Programming constructs a fail-fast programming error.
func Programming(message string) *Error {
	return &Error{Kind: KindProgramming, Message: message}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsMissing reports whether err is the internal Missing sentinel.
func IsMissing(err error) bool { return Is(err, KindMissing) }

// AsError extracts *Error from an error chain, if present.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Wrap wraps err as a Programming error with additional context if it
// is not already a gqlerrors.Error; otherwise prefixes its message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if e := AsError(err); e != nil {
		e.Message = fmt.Sprintf("%s: %s", message, e.Message)
		return e
	}
	return (&Error{Kind: KindProgramming, Message: message}).WithCause(err)
}
