package v8shim

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestIsolate(t testing.TB) *Isolate {
	t.Helper()
	iso := NewIsolate(Config{Logger: quietLogger()})
	if err := iso.Initialize(); err != nil {
		t.Fatal(err)
	}
	return iso
}

// newTestContext returns a context of a fresh isolate with one handle scope
// open. Both are torn down when the test ends.
func newTestContext(t testing.TB) *Context {
	t.Helper()
	iso := newTestIsolate(t)
	scope := iso.NewHandleScope()
	ctx := iso.NewContext()
	t.Cleanup(func() {
		scope.Close()
		if err := iso.Dispose(); err != nil {
			t.Errorf("Disposing isolate: %v", err)
		}
	})
	return ctx
}

// newHookedContext is newTestContext with a logger whose entries can be
// inspected.
func newHookedContext(t testing.TB) (*Context, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	iso := NewIsolate(Config{Logger: log})
	if err := iso.Initialize(); err != nil {
		t.Fatal(err)
	}
	scope := iso.NewHandleScope()
	ctx := iso.NewContext()
	t.Cleanup(func() {
		scope.Close()
		iso.Dispose()
	})
	return ctx, hook
}

func mustEval(t testing.TB, ctx *Context, js string) Value {
	t.Helper()
	res, err := ctx.Eval(js, "test.js")
	if err != nil {
		t.Fatalf("Error evaluating %#q: %v", js, err)
	}
	return res
}

// usageError runs fn and returns the *UsageError it panicked with, or nil.
func usageError(fn func()) (err *UsageError) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(*UsageError)
			if err == nil {
				panic(r)
			}
		}
	}()
	fn()
	return nil
}
