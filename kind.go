package v8shim

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/dop251/goja"
)

type Kind uint8

// Value kinds
const (
	KindUndefined Kind = iota
	KindNull
	KindTrue
	KindFalse
	KindName
	KindString
	KindSymbol
	KindFunction
	KindArray
	KindObject
	KindBoolean
	KindNumber
	KindInt32
	KindUint32
	KindDate
	KindArgumentsObject
	KindBooleanObject
	KindNumberObject
	KindStringObject
	KindSymbolObject
	KindNativeError
	KindRegExp
	KindPromise
	KindMap
	KindSet
	KindWeakMap
	KindWeakSet
	KindArrayBuffer
	KindTypedArray
	KindDataView
	KindBigInt
	kNumKinds
)

var kindStrings = [kNumKinds]string{
	"Undefined", "Null", "True", "False", "Name", "String", "Symbol",
	"Function", "Array", "Object", "Boolean", "Number", "Int32", "Uint32",
	"Date", "ArgumentsObject", "BooleanObject", "NumberObject",
	"StringObject", "SymbolObject", "NativeError", "RegExp", "Promise",
	"Map", "Set", "WeakMap", "WeakSet", "ArrayBuffer", "TypedArray",
	"DataView", "BigInt",
}

func (k Kind) String() string {
	if k >= kNumKinds {
		return fmt.Sprintf("NoSuchKind:%d", int(k))
	}
	return kindStrings[k]
}

// kindMask is a set of kinds; most values have several (a function is also
// an object, a small positive number is Number, Int32 and Uint32).
type kindMask uint64

func mask(kinds ...Kind) kindMask {
	var m kindMask
	for _, k := range kinds {
		m |= 1 << k
	}
	return m
}

func (m kindMask) Is(k Kind) bool { return m&(1<<k) != 0 }

func (m kindMask) String() string {
	var names []string
	for k := Kind(0); k < kNumKinds; k++ {
		if m.Is(k) {
			names = append(names, k.String())
		}
	}
	return "[" + strings.Join(names, ",") + "]"
}

// Value kind unions for the object classes goja reports.
var classKinds = map[string]kindMask{
	"Array":             mask(KindObject, KindArray),
	"Function":          mask(KindObject, KindFunction),
	"Date":              mask(KindObject, KindDate),
	"RegExp":            mask(KindObject, KindRegExp),
	"Error":             mask(KindObject, KindNativeError),
	"Arguments":         mask(KindObject, KindArgumentsObject),
	"Boolean":           mask(KindObject, KindBooleanObject),
	"Number":            mask(KindObject, KindNumberObject),
	"String":            mask(KindObject, KindStringObject),
	"Symbol":            mask(KindObject, KindSymbolObject),
	"Promise":           mask(KindObject, KindPromise),
	"Map":               mask(KindObject, KindMap),
	"Set":               mask(KindObject, KindSet),
	"WeakMap":           mask(KindObject, KindWeakMap),
	"WeakSet":           mask(KindObject, KindWeakSet),
	"ArrayBuffer":       mask(KindObject, KindArrayBuffer),
	"DataView":          mask(KindObject, KindDataView),
	"Uint8Array":        mask(KindObject, KindTypedArray),
	"Uint8ClampedArray": mask(KindObject, KindTypedArray),
	"Int8Array":         mask(KindObject, KindTypedArray),
	"Uint16Array":       mask(KindObject, KindTypedArray),
	"Int16Array":        mask(KindObject, KindTypedArray),
	"Uint32Array":       mask(KindObject, KindTypedArray),
	"Int32Array":        mask(KindObject, KindTypedArray),
	"Float32Array":      mask(KindObject, KindTypedArray),
	"Float64Array":      mask(KindObject, KindTypedArray),
}

func classify(v goja.Value) kindMask {
	switch {
	case v == nil:
		return 0
	case goja.IsUndefined(v):
		return mask(KindUndefined)
	case goja.IsNull(v):
		return mask(KindNull)
	}

	switch x := v.(type) {
	case *goja.Object:
		m := mask(KindObject)
		cls := x.ClassName()
		if cls == "Object" {
			cls = builtinTag(x)
		}
		if k, ok := classKinds[cls]; ok {
			m |= k
		}
		if _, ok := goja.AssertFunction(x); ok {
			m |= mask(KindFunction)
		}
		return m
	case *goja.Symbol:
		return mask(KindName, KindSymbol)
	}

	switch v.ExportType().Kind() {
	case reflect.Bool:
		if v.ToBoolean() {
			return mask(KindBoolean, KindTrue)
		}
		return mask(KindBoolean, KindFalse)
	case reflect.String:
		return mask(KindName, KindString)
	case reflect.Int64, reflect.Float64:
		m := mask(KindNumber)
		f := v.ToFloat()
		if isInt32(f) {
			m |= mask(KindInt32)
		}
		if isUint32(f) {
			m |= mask(KindUint32)
		}
		return m
	case reflect.Ptr:
		// goja exports BigInt primitives as *big.Int.
		return mask(KindBigInt)
	}
	return 0
}

// builtinTag reads the toStringTag of objects goja reports with the plain
// "Object" class, which includes buffers, typed arrays and collections.
func builtinTag(o *goja.Object) (tag string) {
	defer func() {
		if recover() != nil {
			tag = ""
		}
	}()
	t := o.GetSymbol(goja.SymToStringTag)
	if t == nil || t.ExportType() == nil || t.ExportType().Kind() != reflect.String {
		return ""
	}
	return t.String()
}

func isIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) &&
		!(f == 0 && math.Signbit(f))
}

func isInt32(f float64) bool {
	return isIntegral(f) && f >= math.MinInt32 && f <= math.MaxInt32
}

func isUint32(f float64) bool {
	return isIntegral(f) && f >= 0 && f <= math.MaxUint32
}

// toUint32 implements the ECMAScript ToUint32 conversion.
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

// toInt32 implements the ECMAScript ToInt32 conversion.
func toInt32(f float64) int32 { return int32(toUint32(f)) }
