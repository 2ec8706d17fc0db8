package v8shim

import (
	"strconv"

	"github.com/dop251/goja"
)

// NewObject creates an empty object.
func (ctx *Context) NewObject() Object {
	ctx.check("NewObject")
	return Object{ctx.iso.newLocal(ctx, ctx.vm.NewObject())}
}

func (o Object) object(op string) *goja.Object {
	obj, ok := o.native(op).(*goja.Object)
	if !ok {
		usagef(op, "value is not an object")
	}
	o.c.ctx.check(op)
	return obj
}

func orUndefined(v goja.Value) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	return v
}

// Get a field from the object. A missing field is undefined; a getter that
// throws yields the empty handle.
func (o Object) Get(name string) Value {
	obj := o.object("Object.Get")
	return o.c.ctx.try(func() (goja.Value, error) {
		return orUndefined(obj.Get(name)), nil
	})
}

// GetIndex gets the value at the specified index.
func (o Object) GetIndex(idx int) Value {
	return o.Get(strconv.Itoa(idx))
}

// GetValue gets the property named by key. Numbers and strings that print
// the same name the same property.
func (o Object) GetValue(key Value) Value {
	obj := o.object("Object.GetValue")
	if sym, ok := key.native("Object.GetValue").(*goja.Symbol); ok {
		return o.c.ctx.try(func() (goja.Value, error) {
			return orUndefined(obj.GetSymbol(sym)), nil
		})
	}
	return o.Get(key.String())
}

// Set a field on the object. It returns false, without assigning, if the
// own field is ReadOnly, and false if the assignment threw.
func (o Object) Set(name string, value Value) bool {
	obj := o.object("Object.Set")
	ctx := o.c.ctx
	if attrs, ok := ctx.ownAttributes(obj, name); ok && attrs&ReadOnly != 0 {
		return false
	}
	gv := value.nativeIn(ctx, "Object.Set")
	return ctx.do(func() error { return obj.Set(name, gv) })
}

// SetIndex sets the object's value at the specified index.
func (o Object) SetIndex(idx int, value Value) bool {
	return o.Set(strconv.Itoa(idx), value)
}

// SetValue sets the property named by key.
func (o Object) SetValue(key, value Value) bool {
	obj := o.object("Object.SetValue")
	if sym, ok := key.native("Object.SetValue").(*goja.Symbol); ok {
		gv := value.nativeIn(o.c.ctx, "Object.SetValue")
		return o.c.ctx.do(func() error { return obj.SetSymbol(sym, gv) })
	}
	return o.Set(key.String(), value)
}

// ForceSet defines name as a data property with the given attributes,
// replacing any existing definition. The attributes live in the property
// descriptor, where script sees them too.
func (o Object) ForceSet(name string, value Value, attrs PropertyAttribute) bool {
	obj := o.object("Object.ForceSet")
	ctx := o.c.ctx
	gv := value.nativeIn(ctx, "Object.ForceSet")
	ok := ctx.do(func() error {
		return obj.DefineDataProperty(name, gv,
			flag(attrs&ReadOnly == 0),
			flag(attrs&DontDelete == 0),
			flag(attrs&DontEnum == 0))
	})
	if ok {
		if s := ctx.accessors(obj); s != nil {
			s.Remove(name)
		}
	}
	return ok
}

// SetWithAttributes is ForceSet that respects an existing ReadOnly
// definition.
func (o Object) SetWithAttributes(name string, value Value, attrs PropertyAttribute) bool {
	obj := o.object("Object.SetWithAttributes")
	if attrs, ok := o.c.ctx.ownAttributes(obj, name); ok && attrs&ReadOnly != 0 {
		return false
	}
	return o.ForceSet(name, value, attrs)
}

// GetAttributes returns the attributes of the own property name. API
// accessors report the attributes they were registered with.
func (o Object) GetAttributes(name string) PropertyAttribute {
	obj := o.object("Object.GetAttributes")
	ctx := o.c.ctx
	if s := ctx.accessors(obj); s != nil {
		if d, ok := s.lookup(name); ok {
			return d.Attributes
		}
	}
	attrs, _ := ctx.ownAttributes(obj, name)
	return attrs
}

func flag(b bool) goja.Flag {
	if b {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

// hasOwnProperty reports whether obj has an own property called name.
func (ctx *Context) hasOwnProperty(obj *goja.Object, name string) bool {
	res, err := ctx.hasOwn(obj, ctx.vm.ToValue(name))
	return err == nil && res.ToBoolean()
}

// Has reports whether name is a property of the object or its prototypes.
func (o Object) Has(name string) bool {
	obj := o.object("Object.Has")
	for p := obj; p != nil; p = p.Prototype() {
		if o.c.ctx.hasOwnProperty(p, name) {
			return true
		}
	}
	return false
}

// HasIndex is Has for an array index.
func (o Object) HasIndex(idx int) bool { return o.Has(strconv.Itoa(idx)) }

// HasOwnProperty reports whether name is an own property of the object.
func (o Object) HasOwnProperty(name string) bool {
	return o.c.ctx.hasOwnProperty(o.object("Object.HasOwnProperty"), name)
}

// Delete removes the property. It returns false if the property could not
// be deleted, e.g. because it was defined DontDelete.
func (o Object) Delete(name string) bool {
	obj := o.object("Object.Delete")
	ctx := o.c.ctx
	if attrs, ok := ctx.ownAttributes(obj, name); ok && attrs&DontDelete != 0 {
		return false
	}
	if err := obj.Delete(name); err != nil {
		return false
	}
	if s := ctx.accessors(obj); s != nil {
		s.Remove(name)
	}
	return true
}

// DeleteIndex is Delete for an array index.
func (o Object) DeleteIndex(idx int) bool { return o.Delete(strconv.Itoa(idx)) }

// GetPropertyNames returns the names a for-in loop over the object would
// visit: enumerable own properties first, then enumerable inherited ones not
// shadowed by a closer property.
func (o Object) GetPropertyNames() Array {
	obj := o.object("Object.GetPropertyNames")
	seen := map[string]bool{}
	var names []interface{}
	for p := obj; p != nil; p = p.Prototype() {
		enumerable := map[string]bool{}
		for _, k := range p.Keys() {
			enumerable[k] = true
		}
		for _, k := range p.GetOwnPropertyNames() {
			if seen[k] {
				continue
			}
			seen[k] = true
			if enumerable[k] {
				names = append(names, k)
			}
		}
	}
	return o.c.ctx.newArrayOf(names)
}

// GetOwnPropertyNames returns the enumerable own property names.
func (o Object) GetOwnPropertyNames() Array {
	obj := o.object("Object.GetOwnPropertyNames")
	keys := obj.Keys()
	names := make([]interface{}, len(keys))
	for i, k := range keys {
		names[i] = k
	}
	return o.c.ctx.newArrayOf(names)
}

// GetPrototype returns the prototype, or null.
func (o Object) GetPrototype() Value {
	obj := o.object("Object.GetPrototype")
	if p := obj.Prototype(); p != nil {
		return o.local(p)
	}
	return o.local(goja.Null())
}

// SetPrototype replaces the prototype. proto must be an object or null.
func (o Object) SetPrototype(proto Value) bool {
	obj := o.object("Object.SetPrototype")
	var p *goja.Object
	switch gv := proto.native("Object.SetPrototype").(type) {
	case *goja.Object:
		p = gv
	default:
		if !goja.IsNull(gv) {
			usagef("Object.SetPrototype", "prototype must be an object or null")
		}
	}
	return o.c.ctx.do(func() error { return obj.SetPrototype(p) })
}

// Clone makes a shallow copy: a new object with the same prototype and the
// same enumerable own properties.
func (o Object) Clone() Object {
	obj := o.object("Object.Clone")
	ctx := o.c.ctx
	return Object{ctx.try(func() (goja.Value, error) {
		var clone *goja.Object
		if obj.ClassName() == "Array" {
			clone = ctx.vm.NewArray()
		} else {
			clone = ctx.vm.NewObject()
			if err := clone.SetPrototype(obj.Prototype()); err != nil {
				return nil, err
			}
		}
		for _, k := range obj.Keys() {
			if err := clone.Set(k, obj.Get(k)); err != nil {
				return nil, err
			}
		}
		return clone, nil
	})}
}

// ClassName is the internal class of the object, such as "Object",
// "Array" or "Function".
func (o Object) ClassName() string { return o.object("Object.ClassName").ClassName() }

// AccessorInfo is passed to accessor callbacks.
type AccessorInfo struct {
	ctx  *Context
	this Object
	data Value
}

func (i AccessorInfo) This() Object      { return i.this }
func (i AccessorInfo) Holder() Object    { return i.this }
func (i AccessorInfo) Data() Value       { return i.data }
func (i AccessorInfo) Context() *Context { return i.ctx }
func (i AccessorInfo) Isolate() *Isolate { return i.ctx.iso }

// SetAccessor defines name as an accessor property whose reads call getter
// and whose writes call setter. A nil setter makes assignments fail in
// strict code and be ignored otherwise. The registration is kept in the
// object's AccessorStorage until the object is collected; data is available
// to both callbacks.
func (o Object) SetAccessor(name string, getter AccessorGetter, setter AccessorSetter, data Value, attrs PropertyAttribute) bool {
	obj := o.object("Object.SetAccessor")
	ctx := o.c.ctx
	s := ctx.accessorsFor(obj)
	s.AddAccessor(name, getter, setter, data, attrs)
	return ctx.defineAccessor(obj, s, name)
}

// defineAccessor installs a property on obj that dispatches to the entry for
// name in store at the time of each access.
func (ctx *Context) defineAccessor(obj *goja.Object, store *AccessorStorage, name string) bool {
	entry, err := store.Get(name)
	if err != nil {
		return false
	}
	info := func(e PropertyData, this goja.Value) AccessorInfo {
		ai := AccessorInfo{ctx: ctx, this: Object{ctx.iso.newLocal(ctx, this)}, data: ctx.Undefined()}
		if e.Data != nil && !e.Data.IsEmpty() {
			ai.data = e.Data.Local()
		}
		return ai
	}

	var getter, setter goja.Value
	if entry.Getter != nil {
		getter = ctx.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.callback(name, func() Value {
				e, ok := store.lookup(name)
				if !ok || e.Getter == nil {
					return ctx.Undefined()
				}
				return e.Getter(ctx.NewString(name), info(e, call.This))
			})
		})
	}
	if entry.Setter != nil && entry.Attributes&ReadOnly == 0 {
		setter = ctx.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.callback(name, func() Value {
				if e, ok := store.lookup(name); ok && e.Setter != nil {
					e.Setter(ctx.NewString(name), ctx.iso.newLocal(ctx, call.Argument(0)), info(e, call.This))
				}
				return Value{}
			})
		})
	}
	return ctx.do(func() error {
		return obj.DefineAccessorProperty(name, getter, setter,
			flag(entry.Attributes&DontDelete == 0),
			flag(entry.Attributes&DontEnum == 0))
	})
}
