package v8shim

import (
	"errors"
	"math"
	"time"

	"github.com/dop251/goja"
)

var nan = math.NaN()

func (ctx *Context) Undefined() Value {
	ctx.check("Undefined")
	return ctx.iso.newLocal(ctx, goja.Undefined())
}

func (ctx *Context) Null() Value {
	ctx.check("Null")
	return ctx.iso.newLocal(ctx, goja.Null())
}

func (ctx *Context) True() Boolean  { return ctx.NewBoolean(true) }
func (ctx *Context) False() Boolean { return ctx.NewBoolean(false) }

func (ctx *Context) NewBoolean(b bool) Boolean {
	ctx.check("NewBoolean")
	return Boolean{ctx.iso.newLocal(ctx, ctx.vm.ToValue(b))}
}

func (ctx *Context) NewNumber(f float64) Number {
	ctx.check("NewNumber")
	return Number{ctx.iso.newLocal(ctx, ctx.vm.ToValue(f))}
}

func (ctx *Context) NewInteger(i int32) Integer {
	ctx.check("NewInteger")
	return Integer{Number{ctx.iso.newLocal(ctx, ctx.vm.ToValue(i))}}
}

func (ctx *Context) NewIntegerFromUnsigned(u uint32) Integer {
	ctx.check("NewIntegerFromUnsigned")
	return Integer{Number{ctx.iso.newLocal(ctx, ctx.vm.ToValue(u))}}
}

// NewDate creates a Date for the given milliseconds since the epoch.
func (ctx *Context) NewDate(ms float64) Date {
	ctx.check("NewDate")
	return Date{Object{ctx.try(func() (goja.Value, error) {
		return ctx.vm.New(ctx.vm.Get("Date"), ctx.vm.ToValue(ms))
	})}}
}

// NewDateFromTime creates a Date from a Go time, truncated to milliseconds.
func (ctx *Context) NewDateFromTime(t time.Time) Date {
	return ctx.NewDate(float64(t.UnixNano() / 1e6))
}

// Time returns the date as a time.Time. If the underlying value is not a
// date, or is an invalid date, this will return an error.
func (d Date) Time() (time.Time, error) {
	if !d.IsDate() {
		return time.Time{}, errors.New("not a date")
	}
	ms := d.NumberValue()
	if math.IsNaN(ms) {
		return time.Time{}, errors.New("invalid date")
	}
	msec := int64(ms)
	sec := msec / 1000
	nsec := (msec % 1000) * 1e6
	return time.Unix(sec, nsec), nil
}
