// Package v8shim provides a V8-style embedding API on top of the goja
// javascript engine.
//
// The engine itself (parsing, execution, garbage collection and property
// storage) belongs to goja. This package only bridges ownership models: V8
// code expects handles that live in handle scopes, persistent roots that are
// disposed explicitly, and exceptions that are collected by a TryCatch rather
// than returned.
//
// An Isolate is a single-threaded engine instance. It goes through three
// states: Uninitialized, Ready and Disposed, and every operation other than
// the lifecycle calls requires Ready. An isolate owns the stack of open
// HandleScopes, the stack of open TryCatch regions, the table of persistent
// roots and one or more Contexts. Each Context is a separate javascript realm
// with its own global object.
//
// Handles come in two flavors:
//
//   - Value (and its typed wrappers String, Object, Array, Function, ...) is
//     a local handle. It is allocated in the innermost open HandleScope and
//     becomes invalid when that scope is closed.
//   - *Persistent is independent of scopes and stays valid until Dispose is
//     called exactly once.
//
// Misusing the API (closing scopes out of order, allocating a handle with no
// open scope, dereferencing a released handle, disposing twice) is a
// programmer error and panics with a *UsageError. Javascript exceptions are
// never Go panics: the failing call returns an empty handle and the
// exception is recorded by the innermost TryCatch.
//
// A typical embedding looks like:
//
//	iso := v8shim.NewIsolate(v8shim.Config{})
//	if err := iso.Initialize(); err != nil { ... }
//	defer iso.Dispose()
//
//	scope := iso.NewHandleScope()
//	defer scope.Close()
//
//	ctx := iso.NewContext()
//	tc := iso.NewTryCatch()
//	defer tc.Close()
//
//	result := ctx.Compile(ctx.NewString("1 + 2 + 3"), "sum.js").Run()
//	if tc.HasCaught() { ... }
//	fmt.Println(result.Int32Value()) // 6
package v8shim
