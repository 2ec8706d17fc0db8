package v8shim

import (
	"fmt"

	"github.com/dop251/goja"
)

// FunctionCallback is the signature for Go functions that are exposed to
// javascript via NewFunction. The returned handle is the javascript return
// value; the empty handle returns undefined. To throw, call
// Isolate.ThrowException and return its result. Panics are caught and
// rethrown into javascript as errors, except *UsageError, which is reraised.
type FunctionCallback func(Arguments) Value

// Arguments provide the context for handling a javascript call into go.
type Arguments struct {
	ctx    *Context
	args   []Value
	this   Object
	data   Value
	caller Loc
}

// Loc defines a script location.
type Loc struct {
	Funcname, Filename string
	Line, Column       int
}

// Len returns the number of arguments passed by the caller.
func (a Arguments) Len() int { return len(a.args) }

// At returns the specified argument or undefined if it doesn't exist.
func (a Arguments) At(n int) Value {
	if n < len(a.args) && n >= 0 {
		return a.args[n]
	}
	return a.ctx.Undefined()
}

// This is the receiver of the call.
func (a Arguments) This() Object { return a.this }

// Holder is the object the function was found on. goja does not distinguish
// it from the receiver.
func (a Arguments) Holder() Object { return a.this }

// Data is the value given to NewFunction, or undefined.
func (a Arguments) Data() Value { return a.data }

func (a Arguments) Context() *Context { return a.ctx }
func (a Arguments) Isolate() *Isolate { return a.ctx.iso }

// Caller is the script location that javascript is calling from. If the
// function is called directly from Go (e.g. via Call()), then Caller will be
// empty.
func (a Arguments) Caller() Loc { return a.caller }

// NewFunction creates a function value that calls a Go function when invoked.
// This value is created but NOT visible in the Context until it is explicitly
// passed to the Context (either via a .Set() call or as a callback return
// value).
//
// The name that is provided is the name of the defined javascript function,
// and generally doesn't affect anything. That is, for a call such as:
//
//	fn := ctx.NewFunction("my_func_name", callback, Value{})
//
// fn.String() (or calling .toString() on the object within the JS VM) would
// result in something like:
//
//	function my_func_name() { [native code] }
//
// data is kept alive for as long as the context and handed to every call.
func (ctx *Context) NewFunction(name string, cb FunctionCallback, data Value) Function {
	ctx.check("NewFunction")
	if cb == nil {
		usagef("NewFunction", "nil callback for %q", name)
	}
	kept := ctx.keep(data)
	fn := ctx.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return ctx.callback(name, func() Value {
			args := Arguments{
				ctx:    ctx,
				args:   make([]Value, len(call.Arguments)),
				caller: ctx.caller(),
			}
			for i, a := range call.Arguments {
				args.args[i] = ctx.iso.newLocal(ctx, a)
			}
			args.this = Object{ctx.iso.newLocal(ctx, call.This)}
			if kept != nil {
				args.data = kept.Local()
			} else {
				args.data = ctx.Undefined()
			}
			return cb(args)
		})
	}).(*goja.Object)
	fn.DefineDataProperty("name", ctx.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	return Function{Object{ctx.iso.newLocal(ctx, fn)}}
}

// Bind is NewFunction without a data value.
func (ctx *Context) Bind(name string, cb FunctionCallback) Function {
	return ctx.NewFunction(name, cb, Value{})
}

// callback runs fn as a native callback: inside its own HandleScope, with
// panics converted to javascript errors, and with any exception scheduled by
// ThrowException or left uncaught inside fn rethrown once it returns.
func (ctx *Context) callback(name string, fn func() Value) goja.Value {
	iso := ctx.iso
	iso.checkReady("callback")
	outerThrow := iso.takePendingThrow()
	scope := iso.NewHandleScope()
	iso.callbackDepth++

	var (
		result goja.Value
		misuse *UsageError
	)
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if ue, ok := r.(*UsageError); ok {
				misuse = ue
				return
			}
			iso.pendingThrow = ctx.vm.NewGoError(fmt.Errorf("panic during callback %q: %v", name, r))
		}()
		res := fn()
		if res.IsEmpty() {
			return
		}
		gv := res.native("callback result")
		if _, ok := gv.(*goja.Object); ok && res.c.ctx != ctx {
			iso.pendingThrow = ctx.vm.NewGoError(fmt.Errorf("callback %q returned an object from another context", name))
			return
		}
		result = gv
	}()

	iso.callbackDepth--
	iso.unwind(scope)
	scope.Close()
	thrown := iso.takePendingThrow()
	iso.pendingThrow = outerThrow
	if misuse != nil {
		panic(misuse)
	}

	if iso.pendingTerminate {
		iso.pendingTerminate = false
		ctx.vm.Interrupt("execution terminated")
	}
	if thrown != nil {
		panic(thrown)
	}
	if result == nil {
		return goja.Undefined()
	}
	return result
}

// unwind releases every scope opened above s and left open.
func (iso *Isolate) unwind(s *HandleScope) {
	for len(iso.scopes) > 0 {
		top := iso.scopes[len(iso.scopes)-1]
		if top == s {
			return
		}
		iso.log.WithField("scope", top.id).Warn("handle scope left open by callback")
		top.Close()
	}
}

// caller finds the innermost javascript frame on the stack.
func (ctx *Context) caller() Loc {
	for _, f := range ctx.vm.CaptureCallStack(8, nil) {
		pos := f.Position()
		if pos.Filename == "" && pos.Line == 0 {
			continue
		}
		return Loc{
			Funcname: f.FuncName(),
			Filename: pos.Filename,
			Line:     pos.Line,
			Column:   pos.Column,
		}
	}
	return Loc{}
}

// Call this value as a function with the given receiver. An empty recv
// passes undefined.
func (f Function) Call(recv Value, args ...Value) Value {
	gv := f.native("Function.Call")
	ctx := f.c.ctx
	ctx.check("Function.Call")
	call, ok := goja.AssertFunction(gv)
	if !ok {
		usagef("Function.Call", "value is not a function")
	}
	this := goja.Undefined()
	if !recv.IsEmpty() {
		this = recv.nativeIn(ctx, "Function.Call")
	}
	gargs := natives(ctx, "Function.Call", args)
	return ctx.try(func() (goja.Value, error) { return call(this, gargs...) })
}

// NewInstance calls the function as a constructor.
func (f Function) NewInstance(args ...Value) Object {
	gv := f.native("Function.NewInstance")
	ctx := f.c.ctx
	ctx.check("Function.NewInstance")
	gargs := natives(ctx, "Function.NewInstance", args)
	return Object{ctx.try(func() (goja.Value, error) { return ctx.vm.New(gv, gargs...) })}
}

// Name returns the function's name property.
func (f Function) Name() string {
	return f.Get("name").String()
}

func natives(ctx *Context, op string, args []Value) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, a := range args {
		out[i] = a.nativeIn(ctx, op)
	}
	return out
}
