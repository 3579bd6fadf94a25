// Package fail classifies failures at external-call boundaries (venue, oracle)
// so callers can branch on the kind instead of matching error strings.
package fail

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type Kind string

const (
	Timeout   Kind = "timeout"
	Rejected  Kind = "rejected"
	Transport Kind = "transport"
	Malformed Kind = "malformed"
)

// Error is returned by every venue and oracle implementation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FromContext wraps a transport-level error, classifying deadlines and
// network timeouts as Timeout. Errors that are already classified pass through.
func FromContext(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(Timeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return New(Timeout, op, err)
	}
	return New(Transport, op, err)
}
