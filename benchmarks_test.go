package v8shim

import "testing"

func BenchmarkGetValue(b *testing.B) {
	ctx := newTestContext(b)

	_, err := ctx.Eval(`var hello = "test"`, "bench.js")
	if err != nil {
		b.Fatal(err)
	}

	glob := ctx.Global()
	scope := ctx.Isolate().NewHandleScope()
	defer scope.Close()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if glob.Get("hello").IsEmpty() {
			b.Fatal("hello is missing")
		}
	}
}

func BenchmarkGetValue_Scoped(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()

	_, err := ctx.Eval(`var hello = "test"`, "bench.js")
	if err != nil {
		b.Fatal(err)
	}

	glob := ctx.Global()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		if glob.Get("hello").IsEmpty() {
			b.Fatal("hello is missing")
		}
		scope.Close()
	}
}

func BenchmarkGetNumberValue(b *testing.B) {
	ctx := newTestContext(b)
	val, err := ctx.Eval(`(157)`, "bench.js")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n += 2 {
		if res := val.Int64(); res != 157 {
			b.Fatal("Wrong value: ", res)
		}
		if res := val.Float64(); res != 157 {
			b.Fatal("Wrong value: ", res)
		}
	}
}

func BenchmarkPersistent(b *testing.B) {
	ctx := newTestContext(b)
	val, err := ctx.Eval(`({})`, "bench.js")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		NewPersistent(val).Dispose()
	}
}

func BenchmarkContextCreate(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		if _, err := ctx.Create(map[string]interface{}{}); err != nil {
			b.Fatal(err)
		}
		scope.Close()
	}
}

func BenchmarkEval(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()

	script := `"hello"`

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		if _, err := ctx.Eval(script, "bench-eval.js"); err != nil {
			b.Fatal(err)
		}
		scope.Close()
	}
}

func BenchmarkCompiledRun(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()
	script := ctx.CompileString(`"hello"`, "bench-run.js")

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		if script.Run().IsEmpty() {
			b.Fatal("run failed")
		}
		scope.Close()
	}
}

func BenchmarkCallback(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()
	ctx.Global().Set("cb", ctx.Bind("cb", func(in Arguments) Value {
		return Value{}
	}).Value)

	script := ctx.CompileString(`cb()`, "bench-cb.js")

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		if script.Run().IsEmpty() {
			b.Fatal("run failed")
		}
		scope.Close()
	}
}

func BenchmarkTryCatch(b *testing.B) {
	ctx := newTestContext(b)
	iso := ctx.Isolate()
	script := ctx.CompileString(`throw "x"`, "bench-throw.js")

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		scope := iso.NewHandleScope()
		tc := iso.NewTryCatch()
		script.Run()
		if !tc.HasCaught() {
			b.Fatal("nothing caught")
		}
		tc.Close()
		scope.Close()
	}
}
