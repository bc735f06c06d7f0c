package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// ErrPanic marks a handler that panicked. It is retried like any other failure.
var ErrPanic = NewError("HANDLER_PANIC", "handler panicked", http.StatusInternalServerError).AsRetryable()

// RecoverPanic converts a recovered value into ErrPanic with the stack attached.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}

	return ErrPanic.
		WithCause(cause).
		WithDetail("stack_trace", string(debug.Stack()))
}

// Guard runs fn and reports a panic inside it as an ErrPanic error.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverPanic(r)
		}
	}()
	return fn()
}
