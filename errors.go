package v8shim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIsolateDisposed is returned by lifecycle calls on an isolate that
	// has already been disposed.
	ErrIsolateDisposed = errors.New("isolate has been disposed")

	// ErrPropertyNotFound is returned by the accessor and attribute tables
	// when no entry exists for a name.
	ErrPropertyNotFound = errors.New("property not found")
)

// UsageError reports a misuse of the handle API: closing scopes out of
// order, allocating a handle with no open scope, using a released handle or
// disposing a persistent twice. These are programmer errors and are raised
// with panic, never returned.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("v8shim: %s: %s", e.Op, e.Msg)
}

func usagef(op, format string, args ...interface{}) {
	panic(&UsageError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// JSError is the error form of a javascript exception, returned by the
// convenience calls (Eval, Create, ParseJson) that report failures as Go
// errors instead of through a TryCatch.
type JSError struct {
	// Message is the string conversion of the thrown value.
	Message string
	// StackTrace is the engine's stack trace, if the thrown value had one.
	StackTrace string
	// Terminated is set when execution was interrupted by Terminate.
	Terminated bool
}

func (e *JSError) Error() string {
	var b strings.Builder
	b.WriteString("Uncaught exception: ")
	b.WriteString(e.Message)
	if e.StackTrace != "" && e.StackTrace != e.Message {
		b.WriteString("\nStack trace: ")
		b.WriteString(e.StackTrace)
	}
	return b.String()
}
