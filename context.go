package v8shim

import (
	"fmt"
	"weak"

	"github.com/dop251/goja"
)

// Context is a sandboxed js environment with its own set of built-in objects
// and functions. Values and javascript operations within a context are visible
// only within that context unless the Go code explicitly moves values from one
// context to another.
type Context struct {
	id  int
	iso *Isolate
	vm  *goja.Runtime

	// hasOwn is Object.prototype.hasOwnProperty and ownDesc is
	// Object.getOwnPropertyDescriptor of this realm.
	hasOwn  goja.Callable
	ownDesc goja.Callable

	// objects holds the accessor table of every object that had API
	// accessors defined on it. The keys are weak; tables of collected
	// objects are disposed by sweep once sweepAt tables exist.
	objects map[weak.Pointer[goja.Object]]*AccessorStorage
	sweepAt int
	// owned are the persistents kept alive for the lifetime of the context,
	// such as the data values of native functions.
	owned []*Persistent
}

const minSweep = 64

// NewContext creates a new, clean context within this isolate.
func (iso *Isolate) NewContext() *Context {
	iso.checkReady("NewContext")
	ctx := &Context{
		iso:     iso,
		vm:      goja.New(),
		objects: map[weak.Pointer[goja.Object]]*AccessorStorage{},
		sweepAt: minSweep,
	}
	object := ctx.vm.Get("Object").ToObject(ctx.vm)
	proto := object.Get("prototype").ToObject(ctx.vm)
	ctx.hasOwn, _ = goja.AssertFunction(proto.Get("hasOwnProperty"))
	ctx.ownDesc, _ = goja.AssertFunction(object.Get("getOwnPropertyDescriptor"))

	iso.contextsMutex.Lock()
	iso.nextContextId++
	ctx.id = iso.nextContextId
	iso.contexts[ctx.id] = ctx
	iso.contextsMutex.Unlock()

	iso.log.WithField("context", ctx.id).Debug("context created")
	return ctx
}

// Isolate returns the isolate that owns the context.
func (ctx *Context) Isolate() *Isolate { return ctx.iso }

func (ctx *Context) check(op string) {
	ctx.iso.checkReady(op)
	if ctx.vm == nil {
		usagef(op, "context #%d has been disposed", ctx.id)
	}
}

// Enter makes ctx the current context. Enter and Exit pair up like
// HandleScope creation and Close.
func (ctx *Context) Enter() {
	ctx.check("Context.Enter")
	ctx.iso.entered = append(ctx.iso.entered, ctx)
}

// Exit leaves the context. It panics unless ctx is the most recently entered
// context.
func (ctx *Context) Exit() {
	iso := ctx.iso
	if n := len(iso.entered); n == 0 || iso.entered[n-1] != ctx {
		usagef("Context.Exit", "context #%d is not the current context", ctx.id)
	}
	iso.entered = iso.entered[:len(iso.entered)-1]
}

// Global returns the JS global object for this context, with properties like
// Object, Array, JSON, etc.
func (ctx *Context) Global() Object {
	ctx.check("Context.Global")
	return Object{ctx.iso.newLocal(ctx, ctx.vm.GlobalObject())}
}

// Dispose releases the context together with its accessor and attribute
// tables. Handles into a disposed context panic when used.
func (ctx *Context) Dispose() {
	iso := ctx.iso
	if ctx.vm == nil {
		usagef("Context.Dispose", "context #%d already disposed", ctx.id)
	}
	for _, e := range iso.entered {
		if e == ctx {
			usagef("Context.Dispose", "context #%d is still entered", ctx.id)
		}
	}
	for _, s := range ctx.objects {
		s.Dispose()
	}
	ctx.objects = nil
	for _, p := range ctx.owned {
		p.Dispose()
	}
	ctx.owned = nil

	iso.contextsMutex.Lock()
	delete(iso.contexts, ctx.id)
	ctx.vm = nil
	iso.contextsMutex.Unlock()

	ctx.hasOwn, ctx.ownDesc = nil, nil
	iso.log.WithField("context", ctx.id).Debug("context disposed")
}

// Terminate interrupts any script running in this context. This may be
// called from any goroutine.
func (ctx *Context) Terminate() {
	ctx.iso.contextsMutex.Lock()
	defer ctx.iso.contextsMutex.Unlock()
	if vm := ctx.vm; vm != nil {
		vm.Interrupt("execution terminated")
	}
}

// try runs fn and turns its goja result into a local handle. A javascript
// exception, whether returned or raised as a panic by goja, is recorded and
// yields the empty handle.
func (ctx *Context) try(fn func() (goja.Value, error)) (res Value) {
	iso := ctx.iso
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		res = Value{}
		switch x := r.(type) {
		case *goja.Exception:
			iso.report(ctx, x)
		case *goja.InterruptedError:
			if iso.callbackDepth == 0 {
				ctx.vm.ClearInterrupt()
			}
			iso.report(ctx, x)
		case goja.Value:
			iso.record(ctx, x, "", false)
		default:
			panic(r)
		}
	}()
	gv, err := fn()
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok && iso.callbackDepth == 0 {
			ctx.vm.ClearInterrupt()
		}
		iso.report(ctx, err)
		return Value{}
	}
	return iso.newLocal(ctx, gv)
}

// do is try for operations with no result.
func (ctx *Context) do(fn func() error) bool {
	return !ctx.try(func() (goja.Value, error) {
		return goja.Undefined(), fn()
	}).IsEmpty()
}

// Eval runs the javascript code in the VM. The filename parameter is
// informational only -- it is shown in javascript stack traces. Unlike
// Compile and Run, exceptions are returned as a *JSError.
func (ctx *Context) Eval(jsCode, filename string) (Value, error) {
	tc := ctx.iso.NewTryCatch()
	defer tc.Close()
	res := ctx.CompileString(jsCode, filename).Run()
	if err := tc.Error(); err != nil {
		return Value{}, err
	}
	return res, nil
}

// ParseJson uses JSON.parse to parse the string and return the parsed
// object.
func (ctx *Context) ParseJson(json string) (Value, error) {
	ctx.check("ParseJson")
	parse, ok := goja.AssertFunction(ctx.vm.Get("JSON").ToObject(ctx.vm).Get("parse"))
	if !ok {
		return Value{}, fmt.Errorf("cannot get JSON.parse")
	}
	tc := ctx.iso.NewTryCatch()
	defer tc.Close()
	res := ctx.try(func() (goja.Value, error) {
		return parse(goja.Undefined(), ctx.vm.ToValue(json))
	})
	if err := tc.Error(); err != nil {
		return Value{}, err
	}
	return res, nil
}

// accessors returns the accessor table of obj, or nil if it has none.
func (ctx *Context) accessors(obj *goja.Object) *AccessorStorage {
	return ctx.objects[weak.Make(obj)]
}

// accessorsFor returns the accessor table of obj, creating it on first use.
func (ctx *Context) accessorsFor(obj *goja.Object) *AccessorStorage {
	key := weak.Make(obj)
	s := ctx.objects[key]
	if s == nil {
		if len(ctx.objects) >= ctx.sweepAt {
			ctx.sweep()
		}
		s = NewAccessorStorage()
		ctx.objects[key] = s
	}
	return s
}

// sweep disposes the accessor tables of objects the Go runtime has
// collected and returns how many it disposed. An accessor whose data refers
// back to its own object keeps that object alive.
func (ctx *Context) sweep() int {
	n := 0
	for key, s := range ctx.objects {
		if key.Value() == nil {
			s.Dispose()
			delete(ctx.objects, key)
			n++
		}
	}
	ctx.sweepAt = max(2*len(ctx.objects), minSweep)
	return n
}

// ownAttributes reads the attributes of the own data or accessor property
// name from its descriptor. ok is false if there is no such property.
// ReadOnly is only derived for data properties.
func (ctx *Context) ownAttributes(obj *goja.Object, name string) (attrs PropertyAttribute, ok bool) {
	desc, err := ctx.ownDesc(goja.Undefined(), obj, ctx.vm.ToValue(name))
	if err != nil || desc == nil || goja.IsUndefined(desc) {
		return None, false
	}
	d := desc.ToObject(ctx.vm)
	if !d.Get("enumerable").ToBoolean() {
		attrs |= DontEnum
	}
	if !d.Get("configurable").ToBoolean() {
		attrs |= DontDelete
	}
	if w := d.Get("writable"); w != nil && !goja.IsUndefined(w) && !w.ToBoolean() {
		attrs |= ReadOnly
	}
	return attrs, true
}

func (ctx *Context) keep(v Value) *Persistent {
	if v.IsEmpty() {
		return nil
	}
	p := NewPersistent(v)
	ctx.owned = append(ctx.owned, p)
	return p
}
