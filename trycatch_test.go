package v8shim

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryCatchCatchesThrownString(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	res := ctx.CompileString(`throw 'panama!'`, "panama.js").Run()
	assert.True(t, res.IsEmpty())
	require.True(t, tc.HasCaught())
	assert.Equal(t, "panama!", tc.Exception().String())
	assert.Equal(t, "panama!", tc.Message())
	assert.True(t, tc.CanContinue())
	require.Error(t, tc.Error())
	assert.Contains(t, tc.Error().Error(), "Uncaught exception: panama!")
}

func TestTryCatchReset(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	ctx.CompileString(`throw 10`, "ten.js").Run()
	require.True(t, tc.HasCaught())
	assert.EqualValues(t, 10, tc.Exception().Int64())

	tc.Reset()
	assert.False(t, tc.HasCaught())
	assert.True(t, tc.Exception().IsEmpty())
	assert.NoError(t, tc.Error())

	// A falsy exception is still an exception.
	ctx.CompileString(`throw 0`, "zero.js").Run()
	require.True(t, tc.HasCaught())
	assert.EqualValues(t, 0, tc.Exception().Int64())
}

func TestTryCatchNestsStrictly(t *testing.T) {
	ctx := newTestContext(t)
	iso := ctx.Isolate()
	outer := iso.NewTryCatch()
	inner := iso.NewTryCatch()

	ctx.CompileString(`throw "inner"`, "x.js").Run()
	assert.True(t, inner.HasCaught())
	assert.False(t, outer.HasCaught(), "only the innermost TryCatch records")

	assert.NotNil(t, usageError(outer.Close))
	inner.Close()
	assert.NotNil(t, usageError(inner.Close))

	ctx.CompileString(`throw "outer"`, "x.js").Run()
	assert.Equal(t, "outer", outer.Message())
	outer.Close()
}

func TestUncaughtExceptionIsLogged(t *testing.T) {
	ctx, hook := newHookedContext(t)
	res := ctx.CompileString(`throw new Error("nobody listens")`, "lost.js").Run()
	assert.True(t, res.IsEmpty())

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "uncaught exception" {
			found = true
			assert.Equal(t, logrus.WarnLevel, e.Level)
			assert.Equal(t, "Error: nobody listens", e.Data["exception"])
		}
	}
	assert.True(t, found, "expected an uncaught exception warning")
}

func TestVerboseTryCatchLogs(t *testing.T) {
	ctx, hook := newHookedContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()
	tc.SetVerbose(true)

	ctx.CompileString(`throw "loud"`, "loud.js").Run()
	require.True(t, tc.HasCaught())
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "caught exception", entry.Message)
	assert.Equal(t, "loud", entry.Data["exception"])
}

func TestSyntaxErrorIsReported(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	s := ctx.CompileString(`function (`, "broken.js")
	assert.Nil(t, s)
	assert.True(t, s.Run().IsEmpty(), "running a nil script yields the empty handle")
	require.True(t, tc.HasCaught())
	assert.True(t, tc.Exception().IsKind(KindNativeError))
	assert.Equal(t, "SyntaxError", tc.Exception().AsObject().Get("name").String())
}

func TestTryCatchInsideCallback(t *testing.T) {
	ctx := newTestContext(t)
	iso := ctx.Isolate()
	outer := iso.NewTryCatch()
	defer outer.Close()

	var innerCaught string
	ctx.Global().Set("probe", ctx.Bind("probe", func(in Arguments) Value {
		tc := in.Isolate().NewTryCatch()
		defer tc.Close()
		in.At(0).AsFunction().Call(Value{})
		innerCaught = tc.Message()
		return in.Context().NewString("recovered").Value
	}).Value)
	ctx.Global().Set("rethrow", ctx.Bind("rethrow", func(in Arguments) Value {
		// No TryCatch here: the exception continues into javascript.
		in.At(0).AsFunction().Call(Value{})
		return in.Context().NewString("unreachable").Value
	}).Value)

	res := mustEval(t, ctx, `probe(() => { throw "inside" })`)
	assert.Equal(t, "recovered", res.String())
	assert.Equal(t, "inside", innerCaught)
	assert.False(t, outer.HasCaught())

	res = mustEval(t, ctx, `
		let seen;
		try { rethrow(() => { throw "through" }) } catch (e) { seen = e }
		seen`)
	assert.Equal(t, "through", res.String())
	assert.False(t, outer.HasCaught())
}

func TestThrowExceptionOutsideCallback(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	res := ctx.Isolate().ThrowException(ctx.NewTypeError("direct"))
	assert.True(t, res.IsUndefined())
	require.True(t, tc.HasCaught())
	assert.Equal(t, "TypeError: direct", tc.Message())
}

func TestErrorConstructors(t *testing.T) {
	ctx := newTestContext(t)
	for _, test := range []struct {
		make func(string) Value
		name string
	}{
		{ctx.NewError, "Error"},
		{ctx.NewRangeError, "RangeError"},
		{ctx.NewReferenceError, "ReferenceError"},
		{ctx.NewSyntaxError, "SyntaxError"},
		{ctx.NewTypeError, "TypeError"},
	} {
		e := test.make("message")
		assert.True(t, e.IsKind(KindNativeError), test.name)
		assert.Equal(t, test.name+": message", e.String())
		ctx.Global().Set("e", e)
		assert.True(t, mustEval(t, ctx, "e instanceof "+test.name).IsTrue(), test.name)
	}
}

func TestCanContinueAfterTerminate(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	go func() {
		time.Sleep(10 * time.Millisecond)
		ctx.Isolate().Terminate()
	}()
	res := ctx.CompileString(`for (;;) {}`, "spin.js").Run()
	assert.True(t, res.IsEmpty())
	require.True(t, tc.HasCaught())
	assert.False(t, tc.CanContinue())

	var jsErr *JSError
	require.ErrorAs(t, tc.Error(), &jsErr)
	assert.True(t, jsErr.Terminated)

	tc.Reset()
	assert.EqualValues(t, 3, ctx.CompileString(`1 + 2`, "after.js").Run().Int64())
	assert.False(t, tc.HasCaught())
}

func TestTerminateInsideCallbackIsNotSwallowed(t *testing.T) {
	ctx := newTestContext(t)
	tc := ctx.Isolate().NewTryCatch()
	defer tc.Close()

	ctx.Global().Set("inner", ctx.Bind("inner", func(in Arguments) Value {
		go func() {
			time.Sleep(10 * time.Millisecond)
			in.Context().Terminate()
		}()
		// The nested run is interrupted and the interrupt carries on
		// outwards once the callback returns.
		in.Context().CompileString(`for (;;) {}`, "nested.js").Run()
		return Value{}
	}).Value)

	res := ctx.CompileString(`inner(); "finished"`, "outer.js").Run()
	assert.True(t, res.IsEmpty())
	require.True(t, tc.HasCaught())
	assert.False(t, tc.CanContinue())
}
