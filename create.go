package v8shim

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dop251/goja"
)

var float64Type = reflect.TypeOf(float64(0))
var callbackType = reflect.TypeOf(FunctionCallback(nil))
var stringType = reflect.TypeOf(string(""))
var timeType = reflect.TypeOf(time.Time{})

// Create maps Go values into corresponding JavaScript values. This value is
// created but NOT visible in the Context until it is explicitly passed to the
// Context (either via a .Set() call or as a callback return value).
//
// Create can automatically map the following types of values:
//   - bool
//   - all integers and floats are mapped to JS numbers (float64)
//   - strings
//   - maps (keys must be strings, values must be convertible)
//   - time.Time values (converted to js Date object)
//   - structs (exported field values must be convertible)
//   - slices of convertible types
//   - pointers to any convertible field
//   - FunctionCallback functions (automatically bound with Bind)
//   - handles of this context: Value, the typed wrappers and *Persistent
//     (used as-is)
//
// Any nil pointers are converted to undefined in JS.
//
// Values for elements in maps, structs, and slices may be any of the above
// types.
//
// When structs are being converted, any fields with json struct tags will
// respect the json naming entry. For example:
//
//	var x = struct {
//	   Ignored     string `json:"-"`
//	   Renamed     string `json:"foo"`
//	   DefaultName string `json:",omitempty"`
//	   Bar         string
//	}{"a", "b", "c", "d"}
//
// will be converted as:
//
//	{
//	    foo: "b",
//	    DefaultName: "c",
//	    Bar: "d",
//	}
//
// Also, embedded structs (or pointers-to-structs) will get inlined.
//
// Byte slices tagged as 'v8:"arraybuffer"' will be converted into a javascript
// ArrayBuffer object for more efficient conversion. For example:
//
//	var y = struct {
//	    Buf     []byte `v8:"arraybuffer"`
//	}{[]byte{1,2,3}}
//
// will be converted as
//
//	{
//	   Buf: new Uint8Array([1,2,3]).buffer
//	}
func (ctx *Context) Create(val interface{}) (Value, error) {
	ctx.check("Create")
	gv, err := ctx.create(reflect.ValueOf(val), nil)
	if err != nil {
		return Value{}, err
	}
	return ctx.iso.newLocal(ctx, gv), nil
}

func getJsName(fieldName, jsonTag string) string {
	jsonName := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if jsonName == "-" {
		return "" // skip this field
	}
	if jsonName == "" {
		return fieldName // use the default name
	}
	return jsonName // explict name specified
}

// handle is implemented by Value and everything that embeds it.
type handle interface{ valueHandle() Value }

func (v Value) valueHandle() Value { return v }

func (ctx *Context) handle(v Value) (goja.Value, error) {
	if v.IsEmpty() {
		return goja.Undefined(), nil
	}
	gv := v.native("Create")
	if v.c.ctx != ctx {
		return nil, fmt.Errorf("value belongs to context #%d, not #%d", v.c.ctx.id, ctx.id)
	}
	return gv, nil
}

func (ctx *Context) create(val reflect.Value, tags []string) (goja.Value, error) {
	if !val.IsValid() {
		return goja.Undefined(), nil
	}

	if val.CanInterface() {
		if val.Kind() == reflect.Ptr && val.IsNil() {
			return goja.Undefined(), nil
		}
		if h, ok := val.Interface().(handle); ok {
			return ctx.handle(h.valueHandle())
		}
	}

	if val.Type() == timeType {
		msec := float64(val.Interface().(time.Time).UnixNano()) / 1e6
		return ctx.vm.New(ctx.vm.Get("Date"), ctx.vm.ToValue(msec))
	}

	switch val.Kind() {
	case reflect.Bool:
		return ctx.vm.ToValue(val.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return ctx.vm.ToValue(val.Convert(float64Type).Float()), nil
	case reflect.String:
		return ctx.vm.ToValue(val.String()), nil
	case reflect.UnsafePointer, reflect.Uintptr:
		return nil, fmt.Errorf("Uintptr not supported: %#v", val.Interface())
	case reflect.Complex64, reflect.Complex128:
		return nil, fmt.Errorf("Complex not supported: %#v", val.Interface())
	case reflect.Chan:
		return nil, fmt.Errorf("Chan not supported: %#v", val.Interface())
	case reflect.Func:
		if val.Type().ConvertibleTo(callbackType) {
			if val.IsNil() {
				return goja.Undefined(), nil
			}
			name := path.Base(runtime.FuncForPC(val.Pointer()).Name())
			fn := ctx.Bind(name, val.Convert(callbackType).Interface().(FunctionCallback))
			return fn.native("Create"), nil
		}
		return nil, fmt.Errorf("Func not supported: %#v", val.Interface())
	case reflect.Interface, reflect.Ptr:
		return ctx.create(val.Elem(), tags)
	case reflect.Map:
		if val.Type().Key() != stringType {
			return nil, fmt.Errorf("Map keys must be strings, %s not allowed", val.Type().Key())
		}
		ob := ctx.vm.NewObject()
		keys := val.MapKeys()
		sort.Sort(stringKeys(keys))
		for _, key := range keys {
			v, err := ctx.create(val.MapIndex(key), nil)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %v", key.String(), err)
			}
			if err := ob.Set(key.String(), v); err != nil {
				return nil, err
			}
		}
		return ob, nil
	case reflect.Struct:
		ob := ctx.vm.NewObject()
		return ob, ctx.writeStructFields(ob, val)
	case reflect.Array, reflect.Slice:
		arrayBuffer := false
		for _, tag := range tags {
			if strings.TrimSpace(tag) == "arraybuffer" {
				arrayBuffer = true
			}
		}

		if arrayBuffer && val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8 {
			// Special case for byte array -> arraybuffer
			data := make([]byte, val.Len())
			copy(data, val.Bytes())
			return ctx.vm.ToValue(ctx.vm.NewArrayBuffer(data)), nil
		}
		items := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			v, err := ctx.create(val.Index(i), nil)
			if err != nil {
				return nil, fmt.Errorf("index %d: %v", i, err)
			}
			items[i] = v
		}
		return ctx.vm.NewArray(items...), nil
	}
	return nil, fmt.Errorf("unsupported kind %s", val.Kind())
}

func (ctx *Context) writeStructFields(ob *goja.Object, val reflect.Value) error {
	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := getJsName(f.Name, f.Tag.Get("json"))
		if name == "" {
			continue // skip field with tag `json:"-"`
		}

		// Inline embedded fields.
		if f.Anonymous {
			sub := val.Field(i)
			for sub.Kind() == reflect.Ptr && !sub.IsNil() {
				sub = sub.Elem()
			}

			if sub.Kind() == reflect.Struct {
				err := ctx.writeStructFields(ob, sub)
				if err != nil {
					return fmt.Errorf("Writing embedded field %q: %v", f.Name, err)
				}
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		v8Tags := strings.Split(f.Tag.Get("v8"), ",")
		v, err := ctx.create(val.Field(i), v8Tags)
		if err != nil {
			return fmt.Errorf("field %q: %v", f.Name, err)
		}
		if err := ob.Set(name, v); err != nil {
			return err
		}
	}

	// Also export any methods of the struct that match the callback type.
	for i := 0; i < t.NumMethod(); i++ {
		name := t.Method(i).Name
		if !unicode.IsUpper(rune(name[0])) {
			continue // skip unexported values
		}

		m := val.Method(i)
		if m.Type().ConvertibleTo(callbackType) {
			v, err := ctx.create(m, nil)
			if err != nil {
				return fmt.Errorf("method %q: %v", name, err)
			}
			if err := ob.Set(name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

type stringKeys []reflect.Value

func (s stringKeys) Len() int           { return len(s) }
func (s stringKeys) Swap(a, b int)      { s[a], s[b] = s[b], s[a] }
func (s stringKeys) Less(a, b int) bool { return s[a].String() < s[b].String() }
