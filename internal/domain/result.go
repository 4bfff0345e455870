package domain

import "fmt"

// ResultKind tags the outcome of a call into an external collaborator
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultTransientError
	ResultPermanentError
	ResultNotFound
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultTransientError:
		return "transient_error"
	case ResultPermanentError:
		return "permanent_error"
	case ResultNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("result_kind(%d)", int(k))
	}
}

// Result is the single tagged outcome returned by collaborator interfaces.
// Value is only meaningful when Kind is ResultOK; Err carries the cause otherwise.
type Result[T any] struct {
	Kind  ResultKind
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Kind: ResultOK, Value: v}
}

// Transient wraps a failure that is expected to go away on retry (network, 5xx)
func Transient[T any](err error) Result[T] {
	return Result[T]{Kind: ResultTransientError, Err: err}
}

// Permanent wraps a failure that a retry alone will not fix (4xx, bad payload)
func Permanent[T any](err error) Result[T] {
	return Result[T]{Kind: ResultPermanentError, Err: err}
}

// NotFound signals an absent record
func NotFound[T any]() Result[T] {
	return Result[T]{Kind: ResultNotFound, Err: ErrNotFound}
}

func (r Result[T]) IsOK() bool {
	return r.Kind == ResultOK
}

// Error returns a non-nil error for every non-OK result
func (r Result[T]) Error() error {
	if r.Kind == ResultOK {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return fmt.Errorf("%s", r.Kind)
}
