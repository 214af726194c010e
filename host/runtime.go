package host

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

const maxCallDepth = 256

// Runtime owns value storage, the function and class tables, and the
// pending exception. It is not safe for concurrent use; tables are meant to
// be filled once and read afterwards.
type Runtime struct {
	features         Features
	logger           *slog.Logger
	functions        map[string]*FunctionEntry
	functionNames    []string
	classes          map[string]*Class
	classNames       []string
	defaultException *Class
	exception        *Exception
	stack            []*Zval
	depth            int
	nextHandle       uint64
}

type Option func(*Runtime)

func WithFeatures(features Features) Option {
	return func(r *Runtime) {
		r.features = features
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithDefaultException names the class of exceptions raised by native code.
// The class is created as a subclass of Exception when it does not exist.
func WithDefaultException(name string) Option {
	return func(r *Runtime) {
		if name == "" {
			return
		}
		if class, ok := r.LookupClass(name); ok {
			r.defaultException = class
			return
		}
		class, err := r.RegisterClass(ClassEntry{
			Name:   name,
			Parent: "Exception",
		})
		if err != nil {
			panic(err)
		}
		r.defaultException = class
	}
}

func New(options ...Option) *Runtime {
	r := &Runtime{
		logger:    slog.New(slog.DiscardHandler),
		functions: make(map[string]*FunctionEntry),
		classes:   make(map[string]*Class),
	}
	base, err := r.RegisterClass(ClassEntry{
		Name: "Exception",
	})
	if err != nil {
		panic(err)
	}
	r.defaultException = base
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Runtime) Features() Features {
	return r.features
}

func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// RegisterFunctions adds all entries or none of them.
func (r *Runtime) RegisterFunctions(entries []FunctionEntry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := CString(e.Name)
		if name == "" {
			return fmt.Errorf("function name cannot be empty")
		}
		if e.Handler == nil {
			return fmt.Errorf("function %s has no handler", name)
		}
		key := strings.ToLower(name)
		if _, ok := r.functions[key]; ok || seen[key] {
			return fmt.Errorf("cannot redeclare %s()", name)
		}
		seen[key] = true
	}
	for _, e := range entries {
		name := CString(e.Name)
		entry := e
		r.functions[strings.ToLower(name)] = &entry
		r.functionNames = append(r.functionNames, name)
		r.logger.Debug("register function",
			"name", name,
			"args", e.NumArgs,
		)
	}
	return nil
}

func (r *Runtime) RegisterClass(ce ClassEntry) (*Class, error) {
	if ce.Name == "" {
		return nil, fmt.Errorf("class name cannot be empty")
	}
	key := strings.ToLower(ce.Name)
	if _, ok := r.classes[key]; ok {
		return nil, fmt.Errorf("cannot redeclare class %s", ce.Name)
	}
	class := &Class{
		name:      ce.Name,
		methods:   make(map[string]*FunctionEntry),
		newNative: ce.NewNative,
	}
	if ce.Parent != "" {
		parent, ok := r.LookupClass(ce.Parent)
		if !ok {
			return nil, fmt.Errorf("class %s extends unknown class %s", ce.Name, ce.Parent)
		}
		class.parent = parent
	}
	for _, e := range ce.Methods {
		name := CString(e.Name)
		if name == "" {
			return nil, fmt.Errorf("class %s: method name cannot be empty", ce.Name)
		}
		if e.Handler == nil {
			return nil, fmt.Errorf("method %s::%s has no handler", ce.Name, name)
		}
		mkey := strings.ToLower(name)
		if _, ok := class.methods[mkey]; ok {
			return nil, fmt.Errorf("cannot redeclare %s::%s()", ce.Name, name)
		}
		entry := e
		class.methods[mkey] = &entry
		class.order = append(class.order, name)
	}
	r.classes[key] = class
	r.classNames = append(r.classNames, ce.Name)
	r.logger.Debug("register class",
		"name", ce.Name,
		"methods", len(ce.Methods),
	)
	return class, nil
}

func (r *Runtime) LookupClass(name string) (*Class, bool) {
	class, ok := r.classes[strings.ToLower(name)]
	return class, ok
}

func (r *Runtime) Function(name string) (*FunctionEntry, bool) {
	entry, ok := r.functions[strings.ToLower(name)]
	return entry, ok
}

// Functions lists registered function names in registration order.
func (r *Runtime) Functions() []string {
	return slices.Clone(r.functionNames)
}

// Classes lists registered class names in registration order.
func (r *Runtime) Classes() []string {
	return slices.Clone(r.classNames)
}

// Call invokes a registered function. A pending exception left by the
// function is consumed and returned as the error.
func (r *Runtime) Call(name string, args ...any) (*Zval, error) {
	entry, ok := r.Function(name)
	if !ok {
		return nil, fmt.Errorf("call to undefined function %s()", name)
	}
	return r.dispatch(entry, CString(entry.Name), nil, args)
}

// New creates an instance of the named class, running __construct if the
// class has one.
func (r *Runtime) New(className string, args ...any) (*Object, error) {
	class, ok := r.LookupClass(className)
	if !ok {
		return nil, fmt.Errorf("class %s not found", className)
	}
	obj := r.NewObject(class)
	if entry, _, ok := class.Method("__construct"); ok {
		if _, err := r.dispatch(entry, class.name+"::__construct", obj, args); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// NewObject creates an instance without running its constructor.
func (r *Runtime) NewObject(class *Class) *Object {
	r.nextHandle++
	obj := &Object{
		class:  class,
		handle: r.nextHandle,
	}
	if factory := class.nativeFactory(); factory != nil {
		obj.native = factory()
	}
	return obj
}

// CallMethod invokes a public method on obj from outside any class scope.
func (r *Runtime) CallMethod(obj *Object, name string, args ...any) (*Zval, error) {
	entry, declaring, ok := obj.class.Method(name)
	if !ok {
		return nil, fmt.Errorf("call to undefined method %s::%s()", obj.class.name, name)
	}
	display := declaring.name + "::" + CString(entry.Name)
	if vis := entry.Flags.Visibility(); vis != FlagPublic {
		return nil, r.raise("call to %s method %s() from global scope", vis, display)
	}
	this := obj
	if entry.Flags&FlagStatic != 0 {
		this = nil
	}
	return r.dispatch(entry, display, this, args)
}

// CallStatic invokes a public static method.
func (r *Runtime) CallStatic(className string, name string, args ...any) (*Zval, error) {
	class, ok := r.LookupClass(className)
	if !ok {
		return nil, fmt.Errorf("class %s not found", className)
	}
	entry, declaring, ok := class.Method(name)
	if !ok {
		return nil, fmt.Errorf("call to undefined method %s::%s()", class.name, name)
	}
	display := declaring.name + "::" + CString(entry.Name)
	if entry.Flags&FlagStatic == 0 {
		return nil, r.raise("non-static method %s() cannot be called statically", display)
	}
	if vis := entry.Flags.Visibility(); vis != FlagPublic {
		return nil, r.raise("call to %s method %s() from global scope", vis, display)
	}
	return r.dispatch(entry, display, nil, args)
}

// CallValue invokes a host callable. Unlike Call, an exception raised by
// fn stays pending for the caller to inspect.
func (r *Runtime) CallValue(fn Callable, args ...*Zval) *Zval {
	ret := NewNull()
	if r.depth >= maxCallDepth {
		r.ThrowException(r.defaultException, "maximum call depth exceeded", 0)
		return ret
	}
	r.depth++
	defer func() {
		r.depth--
	}()
	fn.Call(r, ret, args)
	return ret
}

func (r *Runtime) raise(format string, args ...any) error {
	ex := &Exception{
		Class:   r.defaultException,
		Message: fmt.Sprintf(format, args...),
	}
	return ex
}

func (r *Runtime) dispatch(entry *FunctionEntry, display string, this *Object, args []any) (*Zval, error) {
	if r.depth >= maxCallDepth {
		return nil, r.raise("maximum call depth exceeded")
	}

	// push arguments
	base := len(r.stack)
	defer func() {
		clear(r.stack[base:])
		r.stack = r.stack[:base]
	}()
	for i, arg := range args {
		z, err := ToZval(arg)
		if err != nil {
			return nil, fmt.Errorf("%s(): argument %d: %w", display, i+1, err)
		}
		r.stack = append(r.stack, z)
	}
	argv := r.stack[base:]

	if err := r.verifyArgs(entry, display, argv); err != nil {
		return nil, err
	}

	r.depth++
	ret := NewNull()
	entry.Handler(r, entry.Name, ret, this, argv, len(argv))
	r.depth--

	if ex := r.TakeException(); ex != nil {
		return nil, ex
	}
	return ret, nil
}

func (r *Runtime) verifyArgs(entry *FunctionEntry, display string, argv []*Zval) error {
	info := entry.Info
	if !r.features.SignatureInfo || info == nil {
		return nil
	}
	if uint32(len(argv)) < info.RequiredNumArgs {
		return r.raise("%s() expects at least %d parameters, %d given",
			display, info.RequiredNumArgs, len(argv))
	}
	for i, z := range argv {
		if i >= len(entry.ArgInfo) {
			break
		}
		arg := entry.ArgInfo[i]
		if !arg.TypeHint.Accepts(z.Type(), arg.AllowNull) {
			return r.raise("argument %d passed to %s() must be of the type %s, %s given",
				i+1, display, arg.TypeHint, z.Type())
		}
		if arg.TypeHint == TypeHintObject && arg.ClassName != "" && z.Type() == TypeObject {
			obj, _ := z.Object()
			class, ok := r.LookupClass(arg.ClassName)
			if ok && !obj.class.Is(class) {
				return r.raise("argument %d passed to %s() must be an instance of %s, instance of %s given",
					i+1, display, class.name, obj.class.name)
			}
		}
	}
	return nil
}
