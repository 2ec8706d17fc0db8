package v8shim

import (
	"fmt"

	"github.com/dop251/goja"
)

// Typed handle wrappers. They are the same handle as the Value they embed; a
// cast (v.AsObject() and friends) only changes which methods are available.
type (
	String   struct{ Value }
	Object   struct{ Value }
	Array    struct{ Object }
	Function struct{ Object }
	Date     struct{ Object }
	Number   struct{ Value }
	Integer  struct{ Number }
	Boolean  struct{ Value }
)

// kinds of the empty handle is the empty set.
func (v Value) kinds() kindMask {
	if v.c == nil {
		return 0
	}
	gv := v.native("kind")
	if v.c.kinds == 0 {
		v.c.kinds = classify(gv)
	}
	return v.c.kinds
}

// IsKind will test whether the underlying value is the specified JS kind.
// The kind of a value is set when the value is created and will not change.
func (v Value) IsKind(k Kind) bool { return v.kinds().Is(k) }

func (v Value) IsUndefined() bool { return v.IsKind(KindUndefined) }
func (v Value) IsNull() bool      { return v.IsKind(KindNull) }
func (v Value) IsTrue() bool      { return v.IsKind(KindTrue) }
func (v Value) IsFalse() bool     { return v.IsKind(KindFalse) }
func (v Value) IsBoolean() bool   { return v.IsKind(KindBoolean) }
func (v Value) IsNumber() bool    { return v.IsKind(KindNumber) }
func (v Value) IsInt32() bool     { return v.IsKind(KindInt32) }
func (v Value) IsUint32() bool    { return v.IsKind(KindUint32) }
func (v Value) IsString() bool    { return v.IsKind(KindString) }
func (v Value) IsObject() bool    { return v.IsKind(KindObject) }
func (v Value) IsArray() bool     { return v.IsKind(KindArray) }
func (v Value) IsFunction() bool  { return v.IsKind(KindFunction) }
func (v Value) IsDate() bool      { return v.IsKind(KindDate) }
func (v Value) IsRegExp() bool    { return v.IsKind(KindRegExp) }
func (v Value) IsPromise() bool   { return v.IsKind(KindPromise) }

// Kinds lists every kind the value belongs to, e.g. "[Int32,Number,Uint32]".
func (v Value) Kinds() string { return v.kinds().String() }

// guard runs a conversion that may call back into javascript (valueOf,
// toString). If it throws, the exception is recorded and false is returned.
func (v Value) guard(fn func(gv goja.Value)) bool {
	gv := v.native("convert")
	ctx := v.c.ctx
	return ctx.do(func() error {
		fn(gv)
		return nil
	})
}

// BooleanValue converts the value using the javascript truthiness rules.
func (v Value) BooleanValue() bool { return v.native("BooleanValue").ToBoolean() }

// NumberValue is ToNumber. It returns NaN if the conversion throws.
func (v Value) NumberValue() float64 {
	f := nan
	v.guard(func(gv goja.Value) { f = gv.ToFloat() })
	return f
}

// IntegerValue is ToInteger, saturated to the int64 range.
func (v Value) IntegerValue() int64 {
	var i int64
	v.guard(func(gv goja.Value) { i = gv.ToInteger() })
	return i
}

// Float64, Int64 and Bool are the short forms of NumberValue, IntegerValue
// and BooleanValue.
func (v Value) Float64() float64 { return v.NumberValue() }
func (v Value) Int64() int64     { return v.IntegerValue() }
func (v Value) Bool() bool       { return v.BooleanValue() }

// Int32Value is the ECMAScript ToInt32 conversion.
func (v Value) Int32Value() int32 { return toInt32(v.NumberValue()) }

// Uint32Value is the ECMAScript ToUint32 conversion.
func (v Value) Uint32Value() uint32 { return toUint32(v.NumberValue()) }

// convert wraps a conversion producing a new javascript value.
func (v Value) convert(op string, fn func(gv goja.Value) goja.Value) Value {
	gv := v.native(op)
	ctx := v.c.ctx
	return ctx.try(func() (goja.Value, error) { return fn(gv), nil })
}

// ToString applies the javascript String() conversion.
func (v Value) ToString() String {
	return String{v.convert("ToString", func(gv goja.Value) goja.Value {
		if _, ok := gv.(*goja.Symbol); ok {
			panic(v.c.ctx.vm.NewTypeError("Cannot convert a Symbol value to a string"))
		}
		return gv.ToString()
	})}
}

// ToObject boxes primitives. Converting null or undefined throws a
// TypeError and returns the empty handle.
func (v Value) ToObject() Object {
	return Object{v.convert("ToObject", func(gv goja.Value) goja.Value {
		return gv.ToObject(v.c.ctx.vm)
	})}
}

// ToNumber applies the javascript Number() conversion.
func (v Value) ToNumber() Number {
	return Number{v.convert("ToNumber", func(gv goja.Value) goja.Value {
		return gv.ToNumber()
	})}
}

// ToInt32 returns a handle to ToInt32(v).
func (v Value) ToInt32() Integer {
	i := v.Int32Value()
	return Integer{Number{v.local(v.c.ctx.vm.ToValue(i))}}
}

// ToUint32 returns a handle to ToUint32(v).
func (v Value) ToUint32() Integer {
	i := v.Uint32Value()
	return Integer{Number{v.local(v.c.ctx.vm.ToValue(i))}}
}

// ToBoolean returns a handle to the truthiness of v.
func (v Value) ToBoolean() Boolean {
	return Boolean{v.local(v.c.ctx.vm.ToValue(v.BooleanValue()))}
}

// String returns the string representation of the value using the ToString()
// method. For primitive types this is just the printable value. For objects,
// this is "[object Object]". Functions print the function definition. The
// empty handle, or a value whose conversion throws, prints as "".
func (v Value) String() string {
	if v.IsEmpty() {
		return ""
	}
	var s string
	v.guard(func(gv goja.Value) { s = gv.String() })
	return s
}

// Equals is the javascript == operator.
func (v Value) Equals(other Value) bool {
	a, b := v.native("Equals"), other.native("Equals")
	var eq bool
	v.guard(func(goja.Value) { eq = a.Equals(b) })
	return eq
}

// StrictEquals is the javascript === operator.
func (v Value) StrictEquals(other Value) bool {
	return v.native("StrictEquals").StrictEquals(other.native("StrictEquals"))
}

// SameValue is the SameValue algorithm used by Object.is.
func (v Value) SameValue(other Value) bool {
	return v.native("SameValue").SameAs(other.native("SameValue"))
}

// Export converts the value to its natural Go representation as goja does:
// objects become map[string]interface{}, arrays []interface{}, numbers int64
// or float64.
func (v Value) Export() interface{} {
	return v.native("Export").Export()
}

// MarshalJSON implements the json.Marshaler interface using the JSON.stringify
// function from the VM to serialize the value and fails if that cannot be
// found.
//
// Note that JSON.stringify will ignore function values. For example, this JS
// object:
//
//	{ foo: function() { return "x" }, bar: 3 }
//
// will serialize to this:
//
//	{"bar":3}
func (v Value) MarshalJSON() ([]byte, error) {
	gv := v.native("MarshalJSON")
	ctx := v.c.ctx
	stringify, ok := goja.AssertFunction(ctx.vm.Get("JSON").ToObject(ctx.vm).Get("stringify"))
	if !ok {
		return nil, fmt.Errorf("cannot get JSON.stringify")
	}
	res, err := stringify(goja.Undefined(), gv)
	if err != nil {
		return nil, fmt.Errorf("failed to stringify val: %v", err)
	}
	return []byte(res.String()), nil
}

// Bytes returns a byte slice extracted from this value when the value
// is an ArrayBuffer or a Uint8Array. The returned byte slice is copied from
// the underlying buffer, so modifying it will not be reflected in the VM.
// Values of other types return nil.
func (v Value) Bytes() []byte {
	var data []byte
	switch x := v.native("Bytes").Export().(type) {
	case goja.ArrayBuffer:
		data = x.Bytes()
	case []byte:
		data = x
	default:
		return nil
	}
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret
}

// AsObject casts without checking. Object methods on a non-object panic.
func (v Value) AsObject() Object     { return Object{v} }
func (v Value) AsArray() Array       { return Array{Object{v}} }
func (v Value) AsString() String     { return String{v} }
func (v Value) AsFunction() Function { return Function{Object{v}} }
func (v Value) AsDate() Date         { return Date{Object{v}} }
func (v Value) AsNumber() Number     { return Number{v} }
func (v Value) AsBoolean() Boolean   { return Boolean{v} }
