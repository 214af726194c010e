package host

import (
	"fmt"
	"math"
	"reflect"
)

type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeLong
	TypeDouble
	TypeString
	TypeArray
	TypeObject
	TypeCallable
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeLong:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypeCallable:
		return "callable"
	}
	return fmt.Sprintf("type(%d)", t)
}

// Zval is a storage cell owned by the runtime.
// Argument and return slots handed to handlers are Zvals.
type Zval struct {
	typ Type
	val any
}

func NewNull() *Zval {
	return new(Zval)
}

func (z *Zval) Type() Type {
	return z.typ
}

func (z *Zval) IsNull() bool {
	return z.typ == TypeNull
}

func (z *Zval) SetNull() {
	z.typ = TypeNull
	z.val = nil
}

func (z *Zval) SetBool(b bool) {
	z.typ = TypeBool
	z.val = b
}

func (z *Zval) SetLong(i int64) {
	z.typ = TypeLong
	z.val = i
}

func (z *Zval) SetDouble(f float64) {
	z.typ = TypeDouble
	z.val = f
}

func (z *Zval) SetString(s string) {
	z.typ = TypeString
	z.val = s
}

func (z *Zval) SetArray(a *Array) {
	if a == nil {
		z.SetNull()
		return
	}
	z.typ = TypeArray
	z.val = a
}

func (z *Zval) SetObject(o *Object) {
	if o == nil {
		z.SetNull()
		return
	}
	z.typ = TypeObject
	z.val = o
}

func (z *Zval) SetCallable(c Callable) {
	if c == nil {
		z.SetNull()
		return
	}
	z.typ = TypeCallable
	z.val = c
}

// Set copies the content of other into z.
// Arrays, objects and callables are shared, scalars are copied.
func (z *Zval) Set(other *Zval) {
	if other == nil {
		z.SetNull()
		return
	}
	z.typ = other.typ
	z.val = other.val
}

func (z *Zval) Bool() (bool, bool) {
	b, ok := z.val.(bool)
	return b, ok && z.typ == TypeBool
}

func (z *Zval) Long() (int64, bool) {
	i, ok := z.val.(int64)
	return i, ok && z.typ == TypeLong
}

func (z *Zval) Double() (float64, bool) {
	f, ok := z.val.(float64)
	return f, ok && z.typ == TypeDouble
}

func (z *Zval) String() string {
	switch z.typ {
	case TypeNull:
		return ""
	case TypeBool:
		if z.val.(bool) {
			return "1"
		}
		return ""
	case TypeString:
		return z.val.(string)
	case TypeArray:
		return "Array"
	case TypeObject:
		return "Object(" + z.val.(*Object).Class().Name() + ")"
	case TypeCallable:
		return "Closure(" + z.val.(Callable).Name() + ")"
	}
	return fmt.Sprint(z.val)
}

func (z *Zval) Array() (*Array, bool) {
	a, ok := z.val.(*Array)
	return a, ok
}

func (z *Zval) Object() (*Object, bool) {
	o, ok := z.val.(*Object)
	return o, ok
}

func (z *Zval) Callable() (Callable, bool) {
	c, ok := z.val.(Callable)
	return c, ok
}

// Interface returns the Go representation of the stored value.
// Arrays are returned as *Array, objects as *Object.
func (z *Zval) Interface() any {
	if z == nil {
		return nil
	}
	return z.val
}

// ToZval converts a Go value to a new Zval.
func ToZval(v any) (*Zval, error) {
	z := new(Zval)
	if err := z.assign(v); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Zval) assign(v any) error {
	switch v := v.(type) {

	case nil:
		z.SetNull()
	case *Zval:
		z.Set(v)

	case bool:
		z.SetBool(v)

	case int:
		z.SetLong(int64(v))
	case int8:
		z.SetLong(int64(v))
	case int16:
		z.SetLong(int64(v))
	case int32:
		z.SetLong(int64(v))
	case int64:
		z.SetLong(v)
	case uint8:
		z.SetLong(int64(v))
	case uint16:
		z.SetLong(int64(v))
	case uint32:
		z.SetLong(int64(v))
	case uint:
		if uint64(v) > math.MaxInt64 {
			return fmt.Errorf("integer %d overflows host integer", v)
		}
		z.SetLong(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return fmt.Errorf("integer %d overflows host integer", v)
		}
		z.SetLong(int64(v))

	case float32:
		z.SetDouble(float64(v))
	case float64:
		z.SetDouble(v)

	case string:
		z.SetString(v)
	case []byte:
		z.SetString(string(v))

	case *Array:
		z.SetArray(v)
	case *Object:
		z.SetObject(v)
	case Callable:
		z.SetCallable(v)

	case []any:
		arr := NewArray()
		for _, elem := range v {
			if err := arr.Append(elem); err != nil {
				return err
			}
		}
		z.SetArray(arr)

	case map[string]any:
		arr := NewArray()
		for _, key := range sortedKeys(v) {
			if err := arr.Set(key, v[key]); err != nil {
				return err
			}
		}
		z.SetArray(arr)

	default:
		value := reflect.ValueOf(v)
		switch value.Kind() {
		case reflect.Slice, reflect.Array:
			arr := NewArray()
			for i := range value.Len() {
				if err := arr.Append(value.Index(i).Interface()); err != nil {
					return err
				}
			}
			z.SetArray(arr)
		case reflect.Pointer:
			if value.IsNil() {
				z.SetNull()
				return nil
			}
			return z.assign(value.Elem().Interface())
		default:
			return fmt.Errorf("unsupported type for host value: %T", v)
		}

	}
	return nil
}
