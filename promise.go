package v8shim

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// PromiseState defines the state of a promise: either pending, resolved, or
// rejected. Promises that are pending have no result value yet. A promise that
// is resolved has a result value, and a promise that is rejected has a result
// value that is usually the error.
type PromiseState uint8

const (
	PromiseStatePending PromiseState = iota
	PromiseStateResolved
	PromiseStateRejected
	kNumPromiseStates
)

var promiseStateStrings = [kNumPromiseStates]string{"Pending", "Resolved", "Rejected"}

func (s PromiseState) String() string {
	if s >= kNumPromiseStates {
		return fmt.Sprintf("InvalidPromiseState:%d", int(s))
	}
	return promiseStateStrings[s]
}

// Resolver settles a promise created by NewPromise. Only the first call to
// Resolve or Reject has an effect.
type Resolver struct {
	ctx     *Context
	resolve func(interface{})
	reject  func(interface{})
	settled bool
}

// NewPromise creates a pending promise and the resolver that settles it.
// Reactions registered with then() run the next time script is executed in
// the context, as goja drains its job queue at the end of every run.
func (ctx *Context) NewPromise() (Object, *Resolver) {
	ctx.check("NewPromise")
	p, resolve, reject := ctx.vm.NewPromise()
	r := &Resolver{
		ctx:     ctx,
		resolve: func(v interface{}) { resolve(v) },
		reject:  func(v interface{}) { reject(v) },
	}
	return Object{ctx.iso.newLocal(ctx, ctx.vm.ToValue(p))}, r
}

func (r *Resolver) settle(op string, fn func(interface{}), v Value) bool {
	r.ctx.check(op)
	var gv goja.Value = goja.Undefined()
	if !v.IsEmpty() {
		gv = v.nativeIn(r.ctx, op)
	}
	if r.settled {
		return false
	}
	r.settled = true
	fn(gv)
	return true
}

// Resolve fulfills the promise with v. An empty v resolves with undefined.
func (r *Resolver) Resolve(v Value) bool { return r.settle("Resolver.Resolve", r.resolve, v) }

// Reject rejects the promise with v.
func (r *Resolver) Reject(v Value) bool { return r.settle("Resolver.Reject", r.reject, v) }

// PromiseInfo will return information about the promise if this value's
// underlying kind is KindPromise, otherwise it will return an error. If there
// is no error, then the returned value will depend on the promise state:
//
//	pending: the empty handle
//	fulfilled: the value of the promise
//	rejected: the rejected result, usually a JS error
func (v Value) PromiseInfo() (PromiseState, Value, error) {
	if !v.IsPromise() {
		return 0, Value{}, errors.New("not a promise")
	}
	p, ok := v.native("PromiseInfo").Export().(*goja.Promise)
	if !ok {
		return 0, Value{}, errors.New("not a promise")
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return PromiseStateResolved, v.local(p.Result()), nil
	case goja.PromiseStateRejected:
		return PromiseStateRejected, v.local(p.Result()), nil
	}
	return PromiseStatePending, Value{}, nil
}

var emptyProgram = goja.MustCompile("microtasks", "", false)

// RunMicrotasks runs the reactions of promises settled from Go since script
// last ran in the context. Exceptions thrown by them go to the innermost
// TryCatch.
func (ctx *Context) RunMicrotasks() {
	ctx.check("RunMicrotasks")
	ctx.do(func() error {
		_, err := ctx.vm.RunProgram(emptyProgram)
		return err
	})
}
