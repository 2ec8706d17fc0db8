package v8shim

import (
	"github.com/dop251/goja"
)

// Script is a compiled chunk of javascript bound to the context it was
// compiled in.
type Script struct {
	ctx    *Context
	prog   *goja.Program
	origin string
}

// Compile compiles source. The origin is shown in stack traces. A syntax
// error is reported to the innermost TryCatch as a SyntaxError and nil is
// returned.
func (ctx *Context) Compile(source String, origin string) *Script {
	ctx.check("Compile")
	return ctx.compile(source.String(), origin)
}

// CompileString is Compile for a Go string.
func (ctx *Context) CompileString(source, origin string) *Script {
	ctx.check("CompileString")
	return ctx.compile(source, origin)
}

func (ctx *Context) compile(src, origin string) *Script {
	prog, err := goja.Compile(origin, src, ctx.iso.cfg.StrictMode)
	if err != nil {
		ctx.iso.report(ctx, err)
		return nil
	}
	return &Script{ctx: ctx, prog: prog, origin: origin}
}

// Origin returns the name the script was compiled with.
func (s *Script) Origin() string { return s.origin }

// Run executes the script and returns its completion value. Running a nil
// script, or one that throws, returns the empty handle.
func (s *Script) Run() Value {
	if s == nil {
		return Value{}
	}
	s.ctx.check("Script.Run")
	return s.ctx.try(func() (goja.Value, error) {
		return s.ctx.vm.RunProgram(s.prog)
	})
}
