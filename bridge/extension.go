package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
)

// Extension collects callables and classes and emits them into runtimes.
// After the first Register it can no longer be changed.
type Extension struct {
	name      string
	version   string
	logger    logs.Logger
	functions []*Callable
	names     map[string]bool
	classes   []*Class
	locked    bool
}

func NewExtension(name string, version string, logger logs.Logger) *Extension {
	return &Extension{
		name:    name,
		version: version,
		logger:  logger,
		names:   make(map[string]bool),
	}
}

func (e *Extension) Name() string {
	return e.name
}

func (e *Extension) Version() string {
	return e.version
}

var errLocked = errors.New("extension is already registered")

// Add appends functions.
func (e *Extension) Add(callables ...*Callable) error {
	if e.locked {
		return fmt.Errorf("%s: %w", e.name, errLocked)
	}
	for _, c := range callables {
		key := strings.ToLower(c.name)
		if e.names[key] {
			return fmt.Errorf("%s: duplicated function %s", e.name, c.name)
		}
		e.names[key] = true
		e.functions = append(e.functions, c)
	}
	return nil
}

// Func adds a function without a return type hint.
func (e *Extension) Func(name string, fn TargetFunc, args ...Arg) error {
	c, err := NewCallable(name, fn, host.TypeHintNone, args...)
	if err != nil {
		return err
	}
	return e.Add(c)
}

func (e *Extension) Functions() []*Callable {
	return append([]*Callable(nil), e.functions...)
}

func (e *Extension) Classes() []*Class {
	return append([]*Class(nil), e.classes...)
}

// Class returns the class named name, declaring it if needed.
// Declaration errors are reported by Register.
func (e *Extension) Class(name string) *Class {
	for _, c := range e.classes {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	c := &Class{
		ext:   e,
		name:  name,
		names: make(map[string]bool),
	}
	if e.locked {
		// detached, so nothing reaches registered runtimes
		c.err = fmt.Errorf("%s: class %s: %w", e.name, name, errLocked)
		return c
	}
	e.classes = append(e.classes, c)
	return c
}

// check reports every failure Register could hit before anything is emitted,
// so a failed Register leaves rt untouched.
func (e *Extension) check(rt *host.Runtime) error {
	for _, c := range e.classes {
		if c.err != nil {
			return c.err
		}
	}
	for _, c := range e.functions {
		if _, ok := rt.Function(c.name); ok {
			return fmt.Errorf("cannot redeclare %s()", c.name)
		}
	}
	declared := make(map[string]bool)
	for _, c := range e.classes {
		key := strings.ToLower(c.name)
		if _, ok := rt.LookupClass(c.name); ok || declared[key] {
			return fmt.Errorf("cannot redeclare class %s", c.name)
		}
		if c.parent != "" && !declared[strings.ToLower(c.parent)] {
			if _, ok := rt.LookupClass(c.parent); !ok {
				return fmt.Errorf("class %s extends unknown class %s", c.name, c.parent)
			}
		}
		declared[key] = true
	}
	return nil
}

// Register emits every function and class into rt. The runtime's features
// are read once and decide the shape of every entry.
func (e *Extension) Register(rt *host.Runtime) error {
	features := rt.Features()

	if err := e.check(rt); err != nil {
		return fmt.Errorf("register %s: %w", e.name, err)
	}

	entries := make([]host.FunctionEntry, 0, len(e.functions))
	for _, c := range e.functions {
		entries = append(entries, c.Entry(features, "", host.FlagPublic))
	}
	if err := rt.RegisterFunctions(entries); err != nil {
		return fmt.Errorf("register %s: %w", e.name, err)
	}

	for _, c := range e.classes {
		methods := make([]host.FunctionEntry, 0, len(c.methods))
		for _, m := range c.methods {
			methods = append(methods, m.callable.Entry(features, c.name, m.flags))
		}
		if _, err := rt.RegisterClass(host.ClassEntry{
			Name:      c.name,
			Parent:    c.parent,
			Methods:   methods,
			NewNative: c.newNative,
		}); err != nil {
			return fmt.Errorf("register %s: %w", e.name, err)
		}
	}

	e.locked = true

	if e.logger != nil {
		e.logger.Info("extension registered",
			"name", e.name,
			"version", e.version,
			"functions", len(e.functions),
			"classes", len(e.classes),
			"signature_info", features.SignatureInfo,
		)
	}
	return nil
}

// Class declares a host class backed by native methods.
// Builder methods record the first error; Register returns it.
type Class struct {
	ext       *Extension
	name      string
	parent    string
	newNative func() any
	methods   []method
	names     map[string]bool
	err       error
}

type method struct {
	callable *Callable
	flags    host.Flags
}

func (c *Class) Name() string {
	return c.name
}

func (c *Class) writable() bool {
	if c.err == nil && c.ext.locked {
		c.err = fmt.Errorf("%s: class %s: %w", c.ext.name, c.name, errLocked)
	}
	return c.err == nil
}

func (c *Class) Extends(parent string) *Class {
	if c.writable() {
		c.parent = parent
	}
	return c
}

// Native sets the factory of the native state attached to each instance.
func (c *Class) Native(fn func() any) *Class {
	if c.writable() {
		c.newNative = fn
	}
	return c
}

func (c *Class) Method(callable *Callable, flags host.Flags) *Class {
	if !c.writable() {
		return c
	}
	key := strings.ToLower(callable.name)
	if c.names[key] {
		c.err = fmt.Errorf("%s: duplicated method %s::%s", c.ext.name, c.name, callable.name)
		return c
	}
	c.names[key] = true
	c.methods = append(c.methods, method{
		callable: callable,
		flags:    flags,
	})
	return c
}

func (c *Class) Func(name string, fn TargetFunc, flags host.Flags, args ...Arg) *Class {
	if !c.writable() {
		return c
	}
	callable, err := NewCallable(name, fn, host.TypeHintNone, args...)
	if err != nil {
		c.err = fmt.Errorf("%s: class %s: %w", c.ext.name, c.name, err)
		return c
	}
	return c.Method(callable, flags)
}

// Methods lists the declared methods with their flags.
func (c *Class) Methods() (callables []*Callable, flags []host.Flags) {
	for _, m := range c.methods {
		callables = append(callables, m.callable)
		flags = append(flags, m.flags)
	}
	return
}

func (c *Class) Err() error {
	return c.err
}
