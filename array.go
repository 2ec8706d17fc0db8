package v8shim

import (
	"github.com/dop251/goja"
)

// NewArray creates an array with length elements, all holes.
func (ctx *Context) NewArray(length int) Array {
	ctx.check("NewArray")
	arr := ctx.vm.NewArray()
	if length > 0 {
		arr.Set("length", length)
	}
	return Array{Object{ctx.iso.newLocal(ctx, arr)}}
}

func (ctx *Context) newArrayOf(items []interface{}) Array {
	return Array{Object{ctx.iso.newLocal(ctx, ctx.vm.NewArray(items...))}}
}

// Length returns the array's length property.
func (a Array) Length() uint32 {
	return toUint32(a.object("Array.Length").Get("length").ToFloat())
}

// CloneElementAt returns a shallow clone of the object stored at index, or
// the empty handle if that element is not an object.
func (a Array) CloneElementAt(index int) Object {
	el := a.GetIndex(index)
	if el.IsEmpty() {
		return Object{}
	}
	if _, ok := el.native("Array.CloneElementAt").(*goja.Object); !ok {
		return Object{}
	}
	return el.AsObject().Clone()
}
