package host

import (
	"slices"
	"strings"
)

type Class struct {
	name      string
	parent    *Class
	methods   map[string]*FunctionEntry
	order     []string
	newNative func() any
}

// ClassEntry describes a class for Runtime.RegisterClass.
type ClassEntry struct {
	Name    string
	Parent  string
	Methods []FunctionEntry
	// NewNative creates the native state attached to every new instance.
	NewNative func() any
}

func (c *Class) Name() string {
	return c.name
}

func (c *Class) Parent() *Class {
	return c.parent
}

// Is reports whether c is other or derives from it.
func (c *Class) Is(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// Method finds a method on c or its ancestors.
func (c *Class) Method(name string) (*FunctionEntry, *Class, bool) {
	key := strings.ToLower(name)
	for k := c; k != nil; k = k.parent {
		if entry, ok := k.methods[key]; ok {
			return entry, k, true
		}
	}
	return nil, nil, false
}

// Methods lists method names declared on c itself, in registration order.
func (c *Class) Methods() []string {
	return slices.Clone(c.order)
}

func (c *Class) nativeFactory() func() any {
	for k := c; k != nil; k = k.parent {
		if k.newNative != nil {
			return k.newNative
		}
	}
	return nil
}

type Object struct {
	class  *Class
	handle uint64
	props  map[string]*Zval
	native any
}

func (o *Object) Class() *Class {
	return o.class
}

// Handle is unique per runtime.
func (o *Object) Handle() uint64 {
	return o.handle
}

// Native returns the state created by the class's NewNative.
func (o *Object) Native() any {
	return o.native
}

func (o *Object) SetNative(v any) {
	o.native = v
}

func (o *Object) Prop(name string) (*Zval, bool) {
	z, ok := o.props[name]
	return z, ok
}

func (o *Object) SetProp(name string, v any) error {
	z, err := ToZval(v)
	if err != nil {
		return err
	}
	if o.props == nil {
		o.props = make(map[string]*Zval)
	}
	o.props[name] = z
	return nil
}

// Callable is a function value living in host code.
// A callable signals failure by leaving an exception pending on the runtime.
type Callable interface {
	Name() string
	Call(rt *Runtime, ret *Zval, args []*Zval)
}

type Closure struct {
	name string
	fn   func(rt *Runtime, ret *Zval, args []*Zval)
}

var _ Callable = new(Closure)

func NewClosure(name string, fn func(rt *Runtime, ret *Zval, args []*Zval)) *Closure {
	return &Closure{
		name: name,
		fn:   fn,
	}
}

func (c *Closure) Name() string {
	if c.name == "" {
		return "{closure}"
	}
	return c.name
}

func (c *Closure) Call(rt *Runtime, ret *Zval, args []*Zval) {
	c.fn(rt, ret, args)
}
