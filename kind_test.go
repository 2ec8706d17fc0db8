package v8shim

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueKinds(t *testing.T) {
	ctx := newTestContext(t)

	for _, test := range []struct {
		js    string
		is    []Kind
		isNot []Kind
	}{
		{`undefined`, []Kind{KindUndefined}, []Kind{KindNull, KindObject}},
		{`null`, []Kind{KindNull}, []Kind{KindUndefined, KindObject}},
		{`true`, []Kind{KindBoolean, KindTrue}, []Kind{KindFalse, KindBooleanObject}},
		{`false`, []Kind{KindBoolean, KindFalse}, []Kind{KindTrue}},
		{`new Boolean(true)`, []Kind{KindObject, KindBooleanObject}, []Kind{KindBoolean}},
		{`"str"`, []Kind{KindName, KindString}, []Kind{KindObject, KindSymbol}},
		{`new String("x")`, []Kind{KindObject, KindStringObject}, []Kind{KindString}},
		{`Symbol("s")`, []Kind{KindName, KindSymbol}, []Kind{KindString}},
		{`1`, []Kind{KindNumber, KindInt32, KindUint32}, nil},
		{`-1`, []Kind{KindNumber, KindInt32}, []Kind{KindUint32}},
		{`4294967295`, []Kind{KindNumber, KindUint32}, []Kind{KindInt32}},
		{`1.5`, []Kind{KindNumber}, []Kind{KindInt32, KindUint32}},
		{`-0`, []Kind{KindNumber}, []Kind{KindInt32, KindUint32}},
		{`NaN`, []Kind{KindNumber}, []Kind{KindInt32}},
		{`new Number(3)`, []Kind{KindObject, KindNumberObject}, []Kind{KindNumber}},
		{`({})`, []Kind{KindObject}, []Kind{KindArray, KindFunction}},
		{`[]`, []Kind{KindObject, KindArray}, []Kind{KindFunction}},
		{`(function() {})`, []Kind{KindObject, KindFunction}, []Kind{KindArray}},
		{`(() => 1)`, []Kind{KindObject, KindFunction}, nil},
		{`new Date()`, []Kind{KindObject, KindDate}, nil},
		{`/x/`, []Kind{KindObject, KindRegExp}, nil},
		{`new TypeError("x")`, []Kind{KindObject, KindNativeError}, nil},
		{`(function() { return arguments })()`, []Kind{KindObject, KindArgumentsObject}, []Kind{KindArray}},
		{`Promise.resolve(1)`, []Kind{KindObject, KindPromise}, nil},
		{`new Map()`, []Kind{KindObject, KindMap}, []Kind{KindSet}},
		{`new Set()`, []Kind{KindObject, KindSet}, []Kind{KindMap}},
		{`new WeakMap()`, []Kind{KindObject, KindWeakMap}, nil},
		{`new WeakSet()`, []Kind{KindObject, KindWeakSet}, nil},
		{`new ArrayBuffer(4)`, []Kind{KindObject, KindArrayBuffer}, []Kind{KindTypedArray}},
		{`new Uint8Array(4)`, []Kind{KindObject, KindTypedArray}, []Kind{KindArrayBuffer}},
		{`new Float64Array(1)`, []Kind{KindObject, KindTypedArray}, nil},
		{`new DataView(new ArrayBuffer(2))`, []Kind{KindObject, KindDataView}, nil},
	} {
		v := mustEval(t, ctx, test.js)
		for _, k := range test.is {
			assert.True(t, v.IsKind(k), "%s should be %v, has %s", test.js, k, v.Kinds())
		}
		for _, k := range test.isNot {
			assert.False(t, v.IsKind(k), "%s should not be %v, has %s", test.js, k, v.Kinds())
		}
	}
}

func TestEmptyHandleHasNoKinds(t *testing.T) {
	var v Value
	assert.True(t, v.IsEmpty())
	assert.Equal(t, "[]", v.Kinds())
	assert.False(t, v.IsUndefined())
	assert.False(t, v.IsObject())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Undefined", KindUndefined.String())
	assert.Equal(t, "TypedArray", KindTypedArray.String())
	assert.Equal(t, "BigInt", KindBigInt.String())
	assert.Equal(t, "NoSuchKind:200", Kind(200).String())
	assert.Equal(t, "[Number,Int32,Uint32]", mask(KindNumber, KindInt32, KindUint32).String())
}

func TestIntegerConversions(t *testing.T) {
	for _, test := range []struct {
		in  float64
		i32 int32
		u32 uint32
	}{
		{0, 0, 0},
		{1.9, 1, 1},
		{-1.9, -1, math.MaxUint32},
		{math.MaxUint32, -1, math.MaxUint32},
		{1 << 32, 0, 0},
		{1<<32 + 5, 5, 5},
		{1 << 31, math.MinInt32, 1 << 31},
		{-(1 << 31), math.MinInt32, 1 << 31},
		{math.NaN(), 0, 0},
		{math.Inf(1), 0, 0},
		{math.Inf(-1), 0, 0},
	} {
		assert.Equal(t, test.i32, toInt32(test.in), "ToInt32(%v)", test.in)
		assert.Equal(t, test.u32, toUint32(test.in), "ToUint32(%v)", test.in)
	}
}

func TestValueToInt32(t *testing.T) {
	ctx := newTestContext(t)
	v := mustEval(t, ctx, `"  -7.8 "`)
	assert.EqualValues(t, -7, v.ToInt32().Int64())
	assert.EqualValues(t, math.MaxUint32-6, v.ToUint32().Int64())
	assert.True(t, v.ToInt32().IsInt32())

	assert.EqualValues(t, 0, mustEval(t, ctx, `"abc"`).Int32Value())
	assert.True(t, mustEval(t, ctx, `"abc"`).ToBoolean().IsTrue())
	assert.True(t, mustEval(t, ctx, `""`).ToBoolean().IsFalse())
	assert.Equal(t, "12", ctx.NewInteger(12).ToString().String())
	assert.True(t, ctx.NewInteger(12).ToObject().IsKind(KindNumberObject))

	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()
	assert.True(t, ctx.Null().ToObject().IsEmpty())
	assert.True(t, tc.HasCaught())
}

func TestDump(t *testing.T) {
	ctx := newTestContext(t)
	var out strings.Builder

	Dump(&out, Value{})
	assert.Equal(t, "<empty handle>\n", out.String())

	out.Reset()
	Dump(&out, ctx.NewInteger(3).Value)
	assert.Equal(t, "[Number,Int32,Uint32] \"3\"\n", out.String())

	out.Reset()
	Dump(&out, mustEval(t, ctx, `({answer: 42})`))
	assert.Contains(t, out.String(), "[Object]")
	assert.Contains(t, out.String(), `"answer"`)
	assert.Contains(t, out.String(), "42")
}
