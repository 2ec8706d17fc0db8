// Package v8console provides a simple console implementation to allow JS to
// log messages.
//
// It supports the console.log, console.debug, console.info, console.warn,
// and console.error functions and logs the string form of each of the
// arguments. It can color warning and error messages, but does not support
// Chrome's fancy %c message styling.
package v8console

import (
	"fmt"
	"io"
	"strings"

	"github.com/augustoroman/v8shim"
	"github.com/logrusorgru/aurora"
)

// Level is the severity of a console call.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < Debug || l > Error {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Sink receives the formatted console messages.
type Sink interface {
	Write(level Level, caller v8shim.Loc, msg string)
}

// methods lists the console properties Inject installs.
var methods = []struct {
	name  string
	level Level
}{
	{"log", Info},
	{"debug", Debug},
	{"info", Info},
	{"warn", Warn},
	{"error", Error},
}

// Inject sets the global "console" object of the specified Context so that
// its logging methods write to s. If a console object already exists in the
// global namespace, only the logging properties are replaced.
func Inject(ctx *v8shim.Context, s Sink) {
	global := ctx.Global()
	ob := global.Get("console")
	if ob.IsEmpty() || !ob.IsObject() {
		// If the object doesn't already exist, create a new object from
		// scratch and inject the whole thing.
		ob = ctx.NewObject().Value
		global.Set("console", ob)
	}
	console := ob.AsObject()
	for _, m := range methods {
		console.Set(m.name, ctx.Bind(m.name, callback(s, m.level)).Value)
	}
}

func callback(s Sink, level Level) v8shim.FunctionCallback {
	return func(in v8shim.Arguments) v8shim.Value {
		s.Write(level, in.Caller(), Format(in))
		return v8shim.Value{}
	}
}

// Format joins the string forms of the arguments with spaces.
func Format(in v8shim.Arguments) string {
	parts := make([]string, in.Len())
	for i := range parts {
		parts[i] = in.At(i).String()
	}
	return strings.Join(parts, " ")
}

// Config holds configuration for a particular console instance. It is a
// Sink that prints to writers.
type Config struct {
	// Prefix to prepend to every log message.
	Prefix string
	// Destination for all .log, .debug and .info calls.
	Stdout io.Writer
	// Destination for all .warn and .error calls.
	Stderr io.Writer
	// Whether to enable ANSI color escape codes in the output.
	Colorize bool
}

// Inject installs c as the console of ctx.
func (c Config) Inject(ctx *v8shim.Context) { Inject(ctx, c) }

// Write prints msg. Warnings and errors go to Stderr, prefixed with the
// location of the call.
func (c Config) Write(level Level, caller v8shim.Loc, msg string) {
	au := aurora.NewAurora(c.Colorize)
	w := c.Stdout
	line := c.Prefix + msg
	if level >= Warn {
		w = c.Stderr
		line = fmt.Sprintf("%s[%s:%d] %s", c.Prefix, caller.Filename, caller.Line, msg)
	}
	switch level {
	case Debug:
		fmt.Fprintln(w, au.Faint(line))
	case Warn:
		fmt.Fprintln(w, au.Yellow(line))
	case Error:
		fmt.Fprintln(w, au.Red(line))
	default:
		fmt.Fprintln(w, line)
	}
}
