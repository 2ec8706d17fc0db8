package v8shim

import (
	"fmt"

	"github.com/dop251/goja"
)

// TryCatch captures the javascript exceptions raised by bridge calls made
// while it is the innermost open TryCatch. Like HandleScope, TryCatches nest
// strictly and must be closed in reverse order of creation.
//
// A TryCatch opened inside a native callback only sees exceptions raised
// inside that callback; anything it does not catch is thrown back into
// javascript when the callback returns.
type TryCatch struct {
	iso   *Isolate
	depth int

	ctx        *Context
	exception  goja.Value
	message    string
	stack      string
	caught     bool
	terminated bool
	verbose    bool
	closed     bool
}

// NewTryCatch opens a capture region.
func (iso *Isolate) NewTryCatch() *TryCatch {
	iso.checkReady("NewTryCatch")
	tc := &TryCatch{iso: iso, depth: iso.callbackDepth}
	iso.tryCatches = append(iso.tryCatches, tc)
	return tc
}

// Close pops the TryCatch. Closing one that is not the innermost, or closing
// twice, panics.
func (tc *TryCatch) Close() {
	if tc.closed {
		usagef("TryCatch.Close", "already closed")
	}
	iso := tc.iso
	if n := len(iso.tryCatches); n == 0 || iso.tryCatches[n-1] != tc {
		usagef("TryCatch.Close", "not the innermost try/catch")
	}
	iso.tryCatches = iso.tryCatches[:len(iso.tryCatches)-1]
	tc.closed = true
	tc.exception = nil
}

// HasCaught reports whether an exception has been recorded since creation or
// the last Reset.
func (tc *TryCatch) HasCaught() bool { return tc.caught }

// Exception returns the thrown value in the innermost scope, or the empty
// handle if nothing was caught.
func (tc *TryCatch) Exception() Value {
	if !tc.caught {
		return Value{}
	}
	return tc.iso.newLocal(tc.ctx, tc.exception)
}

// Message is the string conversion of the thrown value.
func (tc *TryCatch) Message() string { return tc.message }

// StackTrace is the engine's description of where the exception was thrown.
func (tc *TryCatch) StackTrace() string { return tc.stack }

// CanContinue is false once execution has been terminated.
func (tc *TryCatch) CanContinue() bool { return !tc.terminated }

// SetVerbose makes the TryCatch also log every exception it captures.
func (tc *TryCatch) SetVerbose(verbose bool) { tc.verbose = verbose }

// Reset forgets the recorded exception so the TryCatch can be reused.
func (tc *TryCatch) Reset() {
	tc.ctx = nil
	tc.exception = nil
	tc.message = ""
	tc.stack = ""
	tc.caught = false
	tc.terminated = false
}

// Error returns the caught exception as a *JSError, or nil.
func (tc *TryCatch) Error() error {
	if !tc.caught {
		return nil
	}
	return &JSError{Message: tc.message, StackTrace: tc.stack, Terminated: tc.terminated}
}

func (tc *TryCatch) capture(ctx *Context, val goja.Value, stack string, terminated bool) {
	tc.ctx = ctx
	tc.exception = val
	tc.message = safeString(val)
	tc.stack = stack
	tc.caught = true
	tc.terminated = terminated
	if tc.verbose {
		tc.iso.log.WithField("exception", tc.message).Warn("caught exception")
	}
}

// safeString converts a thrown value without letting a throwing toString
// escape.
func safeString(val goja.Value) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<unprintable exception: %v>", r)
		}
	}()
	return val.String()
}

// report turns an error returned by goja into an exception record.
func (iso *Isolate) report(ctx *Context, err error) {
	switch e := err.(type) {
	case *goja.InterruptedError:
		iso.record(ctx, ctx.vm.ToValue(e.Value()), e.String(), true)
	case *goja.Exception:
		iso.record(ctx, e.Value(), e.String(), false)
	case *goja.CompilerSyntaxError:
		iso.record(ctx, ctx.construct("SyntaxError", e.Error()), e.Error(), false)
	case *goja.CompilerReferenceError:
		iso.record(ctx, ctx.construct("ReferenceError", e.Error()), e.Error(), false)
	default:
		iso.record(ctx, ctx.vm.NewGoError(err), err.Error(), false)
	}
}

// record routes an exception to the innermost TryCatch that belongs to the
// current callback level. Inside a callback with no such TryCatch the
// exception is rethrown into javascript when the callback returns; at the
// top level it is logged and dropped.
func (iso *Isolate) record(ctx *Context, val goja.Value, stack string, terminated bool) {
	if terminated && iso.callbackDepth > 0 {
		iso.pendingTerminate = true
	}
	if n := len(iso.tryCatches); n > 0 {
		if tc := iso.tryCatches[n-1]; tc.depth == iso.callbackDepth {
			tc.capture(ctx, val, stack, terminated)
			return
		}
	}
	if iso.callbackDepth > 0 {
		if !terminated {
			iso.pendingThrow = val
		}
		return
	}
	iso.log.WithField("exception", safeString(val)).Warn("uncaught exception")
}

// construct calls one of the global error constructors.
func (ctx *Context) construct(ctor, msg string) goja.Value {
	obj, err := ctx.vm.New(ctx.vm.Get(ctor), ctx.vm.ToValue(msg))
	if err != nil {
		return ctx.vm.NewGoError(fmt.Errorf("%s: %s", ctor, msg))
	}
	return obj
}

// NewError creates an Error object with the given message.
func (ctx *Context) NewError(msg string) Value {
	ctx.check("NewError")
	return ctx.iso.newLocal(ctx, ctx.construct("Error", msg))
}

// NewRangeError creates a RangeError object with the given message.
func (ctx *Context) NewRangeError(msg string) Value {
	ctx.check("NewRangeError")
	return ctx.iso.newLocal(ctx, ctx.construct("RangeError", msg))
}

// NewReferenceError creates a ReferenceError object with the given message.
func (ctx *Context) NewReferenceError(msg string) Value {
	ctx.check("NewReferenceError")
	return ctx.iso.newLocal(ctx, ctx.construct("ReferenceError", msg))
}

// NewSyntaxError creates a SyntaxError object with the given message.
func (ctx *Context) NewSyntaxError(msg string) Value {
	ctx.check("NewSyntaxError")
	return ctx.iso.newLocal(ctx, ctx.construct("SyntaxError", msg))
}

// NewTypeError creates a TypeError object with the given message.
func (ctx *Context) NewTypeError(msg string) Value {
	ctx.check("NewTypeError")
	return ctx.iso.newLocal(ctx, ctx.construct("TypeError", msg))
}
