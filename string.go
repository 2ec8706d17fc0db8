package v8shim

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// NewString creates a javascript string from a UTF-8 Go string.
func (ctx *Context) NewString(s string) String {
	ctx.check("NewString")
	return String{ctx.iso.newLocal(ctx, ctx.vm.ToValue(s))}
}

// NewStringFromUtf16 creates a javascript string from UTF-16 code units.
func (ctx *Context) NewStringFromUtf16(units []uint16) String {
	return ctx.NewString(string(utf16.Decode(units)))
}

// NameString converts a property key (a string, a number or a symbol) to
// the string naming the property.
func (ctx *Context) NameString(key Value) String {
	gv := key.native("NameString")
	if sym, ok := gv.(*goja.Symbol); ok {
		return ctx.NewString(sym.String())
	}
	return key.ToString()
}

func (s String) units() []uint16 {
	return utf16.Encode([]rune(s.native("String").String()))
}

// Length returns the number of UTF-16 code units.
func (s String) Length() int {
	n := 0
	for _, r := range s.native("String.Length").String() {
		n += utf16.RuneLen(r)
	}
	return n
}

// Utf8Length returns the number of bytes of the UTF-8 encoding, without a
// terminating NUL.
func (s String) Utf8Length() int { return len(s.native("String.Utf8Length").String()) }

// Write copies up to length UTF-16 code units starting at start into buf and
// returns the number copied. A length of -1 copies to the end of the string.
// A terminating 0 is written if there is room in buf and the copy was not
// cut short by length.
func (s String) Write(buf []uint16, start, length int) int {
	units := s.units()
	n := span(len(units), len(buf), start, length)
	copy(buf, units[start:start+n])
	if n < len(buf) && (length < 0 || n < length) {
		buf[n] = 0
	}
	return n
}

// WriteAscii is Write for 8-bit buffers. Code units outside the ASCII range
// are dropped, so the count returned can be smaller than the span copied.
func (s String) WriteAscii(buf []byte, start, length int) int {
	units := s.units()
	n := span(len(units), len(buf), start, length)
	idx := 0
	for _, u := range units[start : start+n] {
		if u > 0x7F {
			continue
		}
		buf[idx] = byte(u)
		idx++
	}
	if idx < len(buf) && (length < 0 || n < length) {
		buf[idx] = 0
	}
	return idx
}

// span is the number of units Write copies.
func span(total, room, start, length int) int {
	if start < 0 || start >= total {
		return 0
	}
	n := total - start
	if length >= 0 && length < n {
		n = length
	}
	if room < n {
		n = room
	}
	return n
}

// WriteUtf8 encodes the string into buf without ever splitting a character.
// It returns the number of bytes written, including a terminating NUL when
// the whole string fit with room to spare, and the number of UTF-16 code
// units encoded.
func (s String) WriteUtf8(buf []byte) (bytes, chars int) {
	for _, r := range s.native("String.WriteUtf8").String() {
		size := utf8.RuneLen(r)
		if size < 0 {
			r, size = utf8.RuneError, 3
		}
		if bytes+size > len(buf) {
			return bytes, chars
		}
		utf8.EncodeRune(buf[bytes:], r)
		bytes += size
		chars += utf16.RuneLen(r)
	}
	if bytes < len(buf) {
		buf[bytes] = 0
		bytes++
	}
	return bytes, chars
}

// Utf8Value converts any value through ToString and returns it as UTF-8. The
// empty handle, or a value whose conversion throws, yields "".
func Utf8Value(v Value) string {
	if v.IsEmpty() {
		return ""
	}
	s := v.ToString()
	if s.IsEmpty() {
		return ""
	}
	return s.native("Utf8Value").String()
}

// AsciiValue is Utf8Value with every non-ASCII character dropped.
func AsciiValue(v Value) string {
	if v.IsEmpty() {
		return ""
	}
	s := v.ToString()
	if s.IsEmpty() {
		return ""
	}
	buf := make([]byte, s.Length()+1)
	n := s.WriteAscii(buf, 0, -1)
	return string(buf[:n])
}
