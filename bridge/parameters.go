package bridge

import (
	"math"
	"strconv"
	"strings"

	"github.com/reusee/callbridge/host"
)

// frame is the borrowed state of one trampoline call.
// It is emptied when the call returns.
type frame struct {
	rt       *host.Runtime
	callable *Callable
	this     *host.Object
	argv     []*host.Zval
	ret      *host.Zval
}

func (f *frame) release() {
	f.rt = nil
	f.this = nil
	f.argv = nil
	f.ret = nil
}

func (f *frame) live() bool {
	return f != nil && f.rt != nil
}

// Parameters is a view over the arguments of the current call.
// It borrows runtime memory: after the call returns it is empty and every
// accessor fails.
type Parameters struct {
	f *frame
}

// NewParameters builds a view over argv for calling a Callable directly.
func NewParameters(rt *host.Runtime, this *host.Object, argv []*host.Zval) Parameters {
	return Parameters{
		f: &frame{
			rt:   rt,
			this: this,
			argv: argv,
		},
	}
}

// Valid reports whether the call that produced p is still running.
func (p Parameters) Valid() bool {
	return p.f.live()
}

func (p Parameters) Len() int {
	if !p.Valid() {
		return 0
	}
	return len(p.f.argv)
}

// This returns the receiver of a method call, nil for functions.
func (p Parameters) This() *host.Object {
	if !p.Valid() {
		return nil
	}
	return p.f.this
}

func (p Parameters) Runtime() *host.Runtime {
	if !p.Valid() {
		return nil
	}
	return p.f.rt
}

func (p Parameters) name() string {
	if p.f == nil || p.f.callable == nil {
		return "{native}"
	}
	return p.f.callable.name
}

func (p Parameters) Zval(i int) (*host.Zval, error) {
	if !p.Valid() {
		return nil, Errorf("%s(): parameters used after the call returned", p.name())
	}
	if i < 0 || i >= len(p.f.argv) {
		return nil, Errorf("%s() expects at least %d parameters, %d given", p.name(), i+1, len(p.f.argv))
	}
	return p.f.argv[i], nil
}

// Has reports whether argument i was passed.
func (p Parameters) Has(i int) bool {
	return i >= 0 && i < p.Len()
}

// Value returns argument i as a Go value, nil if missing.
func (p Parameters) Value(i int) any {
	z, err := p.Zval(i)
	if err != nil {
		return nil
	}
	return z.Interface()
}

func (p Parameters) mismatch(i int, want string, z *host.Zval) error {
	return Errorf("%s() expects parameter %d to be %s, %s given", p.name(), i+1, want, z.Type())
}

func (p Parameters) Int(i int) (int64, error) {
	z, err := p.Zval(i)
	if err != nil {
		return 0, err
	}
	switch z.Type() {
	case host.TypeLong:
		v, _ := z.Long()
		return v, nil
	case host.TypeBool:
		if v, _ := z.Bool(); v {
			return 1, nil
		}
		return 0, nil
	case host.TypeNull:
		return 0, nil
	case host.TypeDouble:
		f, _ := z.Double()
		if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, p.mismatch(i, "integer", z)
		}
		return int64(f), nil
	case host.TypeString:
		v, err := strconv.ParseInt(strings.TrimSpace(z.String()), 10, 64)
		if err != nil {
			return 0, p.mismatch(i, "integer", z)
		}
		return v, nil
	}
	return 0, p.mismatch(i, "integer", z)
}

// IntOr returns def when argument i was not passed.
func (p Parameters) IntOr(i int, def int64) (int64, error) {
	if !p.Has(i) {
		return def, nil
	}
	return p.Int(i)
}

func (p Parameters) Float(i int) (float64, error) {
	z, err := p.Zval(i)
	if err != nil {
		return 0, err
	}
	switch z.Type() {
	case host.TypeDouble:
		v, _ := z.Double()
		return v, nil
	case host.TypeLong:
		v, _ := z.Long()
		return float64(v), nil
	case host.TypeBool, host.TypeNull:
		v, err := p.Int(i)
		return float64(v), err
	case host.TypeString:
		v, err := strconv.ParseFloat(strings.TrimSpace(z.String()), 64)
		if err != nil {
			return 0, p.mismatch(i, "double", z)
		}
		return v, nil
	}
	return 0, p.mismatch(i, "double", z)
}

func (p Parameters) String(i int) (string, error) {
	z, err := p.Zval(i)
	if err != nil {
		return "", err
	}
	switch z.Type() {
	case host.TypeString, host.TypeLong, host.TypeBool, host.TypeNull:
		return z.String(), nil
	case host.TypeDouble:
		v, _ := z.Double()
		return strconv.FormatFloat(v, 'G', 14, 64), nil
	}
	return "", p.mismatch(i, "string", z)
}

func (p Parameters) Bool(i int) (bool, error) {
	z, err := p.Zval(i)
	if err != nil {
		return false, err
	}
	switch z.Type() {
	case host.TypeBool:
		v, _ := z.Bool()
		return v, nil
	case host.TypeNull:
		return false, nil
	case host.TypeLong:
		v, _ := z.Long()
		return v != 0, nil
	case host.TypeDouble:
		v, _ := z.Double()
		return v != 0, nil
	case host.TypeString:
		s := z.String()
		return s != "" && s != "0", nil
	}
	return false, p.mismatch(i, "boolean", z)
}

func (p Parameters) Array(i int) (*host.Array, error) {
	z, err := p.Zval(i)
	if err != nil {
		return nil, err
	}
	if arr, ok := z.Array(); ok {
		return arr, nil
	}
	return nil, p.mismatch(i, "array", z)
}

func (p Parameters) Object(i int) (*host.Object, error) {
	z, err := p.Zval(i)
	if err != nil {
		return nil, err
	}
	if obj, ok := z.Object(); ok {
		return obj, nil
	}
	return nil, p.mismatch(i, "object", z)
}

func (p Parameters) Callable(i int) (host.Callable, error) {
	z, err := p.Zval(i)
	if err != nil {
		return nil, err
	}
	if fn, ok := z.Callable(); ok {
		return fn, nil
	}
	return nil, p.mismatch(i, "a valid callback", z)
}

// Call invokes a host callable on behalf of the current call.
func (p Parameters) Call(fn host.Callable, args ...any) (*host.Zval, error) {
	rt := p.Runtime()
	if rt == nil {
		return nil, Errorf("%s(): parameters used after the call returned", p.name())
	}
	return Call(rt, fn, args...)
}

// Native returns the receiver's native state as T.
func Native[T any](p Parameters) (T, error) {
	var zero T
	this := p.This()
	if this == nil {
		return zero, Errorf("%s() called without an object context", p.name())
	}
	v, ok := this.Native().(T)
	if !ok {
		return zero, Errorf("%s() called on an instance of %s with unexpected native state %T",
			p.name(), this.Class().Name(), this.Native())
	}
	return v, nil
}

// Value is the return slot of the current call.
type Value struct {
	f *frame
}

// NewValue wraps an existing runtime slot for writing.
func NewValue(rt *host.Runtime, slot *host.Zval) Value {
	return Value{
		f: &frame{
			rt:  rt,
			ret: slot,
		},
	}
}

// Assign converts v and stores it. On failure the slot is left unchanged.
func (v Value) Assign(x any) error {
	if !v.f.live() || v.f.ret == nil {
		return Errorf("return value assigned after the call returned")
	}
	z, err := host.ToZval(x)
	if err != nil {
		return &Exception{
			Message: err.Error(),
		}
	}
	v.f.ret.Set(z)
	return nil
}
