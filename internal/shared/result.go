package shared

// Result is the outcome of a single external capability call: either a value or
// a classified error. Callers decide whether to capture the error or propagate it.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds a failed result.
func Err[T any](kind Kind, message string) Result[T] {
	return Result[T]{err: &Error{Kind: kind, Message: message}}
}

// ErrFrom builds a failed result from an existing error, keeping its kind when
// it is already classified.
func ErrFrom[T any](kind Kind, err error) Result[T] {
	if err == nil {
		return Err[T](kind, "unknown error")
	}
	if e, ok := err.(*Error); ok {
		return Result[T]{err: e}
	}
	return Result[T]{err: &Error{Kind: kind, Err: err}}
}

// IsOk reports whether the call succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Failure returns the classified error, or nil on success.
func (r Result[T]) Failure() *Error { return r.err }

// Unpack converts the result into Go's value/error pair.
func (r Result[T]) Unpack() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
