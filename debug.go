package v8shim

import (
	"fmt"
	"io"

	"github.com/kr/pretty"
)

// Dump writes a readable description of v to w: its kinds, its string form
// and, for objects, the exported Go form of its properties.
func Dump(w io.Writer, v Value) {
	if v.IsEmpty() {
		fmt.Fprintln(w, "<empty handle>")
		return
	}
	fmt.Fprintf(w, "%s %q\n", v.Kinds(), v.String())
	if v.IsObject() && !v.IsFunction() {
		fmt.Fprintf(w, "%# v\n", pretty.Formatter(v.Export()))
	}
}

// DumpString writes the string and its UTF-16 code units to w.
func DumpString(w io.Writer, s String) {
	if s.IsEmpty() {
		fmt.Fprintln(w, "<empty handle>")
		return
	}
	fmt.Fprintf(w, "%q length=%d utf8=%d\n", s.String(), s.Length(), s.Utf8Length())
	pretty.Fprintf(w, "%# v\n", s.units())
}
