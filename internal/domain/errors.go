package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure a tool reports wraps exactly one of these.
var (
	// ErrPreconditionFailed marks bad input: unknown county, missing field,
	// incomplete attributes, wrong geometry.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrResourceExists marks an output that is already present.
	ErrResourceExists = errors.New("resource exists")
	// ErrExternalCallFailed marks a failed filesystem, database, or encoder call.
	ErrExternalCallFailed = errors.New("external call failed")
)

// OpError is an error of a known kind raised by a named operation.
type OpError struct {
	Kind error
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Precondition returns a PreconditionFailed error with a formatted message.
func Precondition(op, format string, args ...any) error {
	return &OpError{Kind: ErrPreconditionFailed, Op: op, Err: fmt.Errorf(format, args...)}
}

// Exists returns a ResourceExists error for the given path or name.
func Exists(op, name string) error {
	return &OpError{Kind: ErrResourceExists, Op: op, Err: fmt.Errorf("%s already exists", name)}
}

// External wraps a library or I/O failure. A nil err yields nil.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Kind: ErrExternalCallFailed, Op: op, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil when err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrPreconditionFailed, ErrResourceExists, ErrExternalCallFailed} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName is the short label used in logs and run events.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrPreconditionFailed:
		return "precondition_failed"
	case ErrResourceExists:
		return "resource_exists"
	case ErrExternalCallFailed:
		return "external_call_failed"
	}
	if err != nil {
		return "unknown"
	}
	return ""
}
