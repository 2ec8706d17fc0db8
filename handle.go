package v8shim

import (
	"github.com/dop251/goja"
)

// cell is the rooted slot behind a handle. While a cell is live it keeps its
// goja value reachable; releasing it drops the reference so the value can be
// collected. A cell belongs to exactly one owner: a HandleScope, or the
// persistent table of its isolate when owner is nil.
type cell struct {
	val   goja.Value
	ctx   *Context
	owner *HandleScope
	live  bool
	kinds kindMask
}

func (iso *Isolate) release(c *cell) {
	if !c.live {
		return
	}
	c.live = false
	c.val = nil
	iso.cellsReleased++
}

// Value is a local handle to a javascript value. It is a non-owning view onto
// a cell in a HandleScope and must not be used after that scope is closed.
// The zero Value is the empty handle, returned by any call that failed
// because javascript threw an exception.
type Value struct {
	c *cell
}

// IsEmpty reports whether the handle has no backing cell.
func (v Value) IsEmpty() bool { return v.c == nil }

func (v Value) native(op string) goja.Value {
	if v.c == nil {
		usagef(op, "empty handle")
	}
	if !v.c.live {
		usagef(op, "handle used after its scope was closed or it was disposed")
	}
	if v.c.ctx.vm == nil {
		usagef(op, "handle belongs to a disposed context")
	}
	return v.c.val
}

// nativeIn is native for a value about to be handed to ctx. Every context
// is a separate goja runtime, so objects cannot move between them.
func (v Value) nativeIn(ctx *Context, op string) goja.Value {
	gv := v.native(op)
	if v.c.ctx != ctx {
		if _, ok := gv.(*goja.Object); ok {
			usagef(op, "object belongs to context #%d, not #%d", v.c.ctx.id, ctx.id)
		}
	}
	return gv
}

// Context returns the context the value was created in, or nil for the empty
// handle.
func (v Value) Context() *Context {
	if v.c == nil {
		return nil
	}
	return v.c.ctx
}

// local allocates a sibling handle in the innermost scope of v's isolate.
func (v Value) local(gv goja.Value) Value {
	return v.c.ctx.iso.newLocal(v.c.ctx, gv)
}

func (iso *Isolate) newLocal(ctx *Context, gv goja.Value) Value {
	if gv == nil {
		return Value{}
	}
	if len(iso.scopes) == 0 {
		usagef("allocate handle", "no handle scope is open")
	}
	s := iso.scopes[len(iso.scopes)-1]
	return Value{s.adopt(ctx, gv)}
}

// NewLocal copies a handle, typically a *Persistent, into the innermost open
// HandleScope.
func (iso *Isolate) NewLocal(v Value) Value {
	iso.checkReady("NewLocal")
	if v.IsEmpty() {
		return Value{}
	}
	return iso.newLocal(v.c.ctx, v.native("NewLocal"))
}

// HandleScope batches the lifetime of local handles. Scopes nest strictly:
// only the innermost open scope may be closed, and closing it releases
// every handle allocated while it was innermost.
type HandleScope struct {
	iso    *Isolate
	id     uint64
	parent *HandleScope
	cells  []*cell
	closed bool
}

// NewHandleScope opens a scope nested inside the current innermost one.
func (iso *Isolate) NewHandleScope() *HandleScope {
	iso.checkReady("NewHandleScope")
	if max := iso.cfg.MaxScopeDepth; max > 0 && len(iso.scopes) >= max {
		usagef("NewHandleScope", "more than %d nested handle scopes", max)
	}
	iso.nextScopeId++
	s := &HandleScope{iso: iso, id: iso.nextScopeId}
	if n := len(iso.scopes); n > 0 {
		s.parent = iso.scopes[n-1]
	}
	iso.scopes = append(iso.scopes, s)
	return s
}

func (s *HandleScope) adopt(ctx *Context, gv goja.Value) *cell {
	c := &cell{val: gv, ctx: ctx, owner: s, live: true}
	s.cells = append(s.cells, c)
	s.iso.cellsAllocated++
	return c
}

// Close releases every handle owned by the scope and pops it. Closing a
// scope that is not the innermost one, or closing it twice, panics.
func (s *HandleScope) Close() {
	if s.closed {
		usagef("HandleScope.Close", "scope #%d is already closed", s.id)
	}
	iso := s.iso
	top := iso.scopes[len(iso.scopes)-1]
	if top != s {
		usagef("HandleScope.Close", "scope #%d closed while scope #%d is still open", s.id, top.id)
	}
	iso.scopes = iso.scopes[:len(iso.scopes)-1]
	s.release()
	s.closed = true
}

func (s *HandleScope) release() {
	for _, c := range s.cells {
		s.iso.release(c)
	}
	s.cells = nil
}

// Escape copies v into the enclosing scope so that it survives Close. It
// panics when s is closed or is the outermost scope.
func (s *HandleScope) Escape(v Value) Value {
	if s.closed {
		usagef("HandleScope.Escape", "scope #%d is closed", s.id)
	}
	if s.parent == nil {
		usagef("HandleScope.Escape", "scope #%d has no enclosing scope", s.id)
	}
	if v.IsEmpty() {
		return Value{}
	}
	return Value{s.parent.adopt(v.c.ctx, v.native("HandleScope.Escape"))}
}

// Len returns the number of handles owned by the scope.
func (s *HandleScope) Len() int { return len(s.cells) }

// Persistent is a handle whose lifetime is independent of any HandleScope. It
// stays valid until Dispose, which must be called exactly once.
//
// Persistent embeds Value, so the usual handle methods can be called on it
// directly, and p.Value can be passed wherever a Value is expected.
type Persistent struct {
	Value
}

// NewPersistent roots v outside of any scope. An empty v yields an empty
// Persistent.
func NewPersistent(v Value) *Persistent {
	if v.IsEmpty() {
		return &Persistent{}
	}
	gv := v.native("NewPersistent")
	iso := v.c.ctx.iso
	iso.checkReady("NewPersistent")
	c := &cell{val: gv, ctx: v.c.ctx, live: true}
	iso.persistents[c] = struct{}{}
	iso.cellsAllocated++
	return &Persistent{Value{c}}
}

// Dispose releases the root. Disposing an empty or already disposed handle
// panics, including a copy of a Persistent whose root was already released.
// Afterwards IsEmpty reports true.
func (p *Persistent) Dispose() {
	if p.c == nil {
		usagef("Persistent.Dispose", "handle is empty or already disposed")
	}
	iso := p.c.ctx.iso
	iso.checkReady("Persistent.Dispose")
	if !p.c.live {
		p.c = nil
		usagef("Persistent.Dispose", "root already released through a copy")
	}
	delete(iso.persistents, p.c)
	iso.release(p.c)
	p.c = nil
}

// Local returns a local handle to the same value in the innermost scope.
func (p *Persistent) Local() Value {
	if p.c == nil {
		return Value{}
	}
	return p.c.ctx.iso.NewLocal(p.Value)
}
