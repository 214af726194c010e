package starhost

import (
	"fmt"
	"slices"

	"github.com/reusee/callbridge/host"
	"go.starlark.net/starlark"
)

func (i *Interpreter) hostFunction(name string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		argv, err := i.hostArgs(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		defer i.enter(thread)()
		ret, err := i.rt.Call(name, argv...)
		if err != nil {
			return nil, hostError(err)
		}
		return i.toStarlark(ret)
	})
}

func (i *Interpreter) hostArgs(name string, args starlark.Tuple, kwargs []starlark.Tuple) ([]any, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", name)
	}
	ret := make([]any, 0, len(args))
	for n, arg := range args {
		v, err := i.toHost(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, n+1, err)
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// classValue constructs instances when called; static methods are attributes.
type classValue struct {
	i     *Interpreter
	class *host.Class
}

var (
	_ starlark.Callable = new(classValue)
	_ starlark.HasAttrs = new(classValue)
)

func (c *classValue) String() string {
	return "<class " + c.class.Name() + ">"
}

func (c *classValue) Type() string {
	return "class"
}

func (c *classValue) Freeze() {}

func (c *classValue) Truth() starlark.Bool {
	return starlark.True
}

func (c *classValue) Hash() (uint32, error) {
	return starlark.String(c.class.Name()).Hash()
}

func (c *classValue) Name() string {
	return c.class.Name()
}

func (c *classValue) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	argv, err := c.i.hostArgs(c.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	defer c.i.enter(thread)()
	obj, err := c.i.rt.New(c.class.Name(), argv...)
	if err != nil {
		return nil, hostError(err)
	}
	return &objectValue{
		i:   c.i,
		obj: obj,
	}, nil
}

func (c *classValue) Attr(name string) (starlark.Value, error) {
	entry, _, ok := c.class.Method(name)
	if !ok || entry.Flags&host.FlagStatic == 0 {
		return nil, nil
	}
	className := c.class.Name()
	return starlark.NewBuiltin(className+"."+name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		argv, err := c.i.hostArgs(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		defer c.i.enter(thread)()
		ret, err := c.i.rt.CallStatic(className, name, argv...)
		if err != nil {
			return nil, hostError(err)
		}
		return c.i.toStarlark(ret)
	}), nil
}

func (c *classValue) AttrNames() (names []string) {
	for _, name := range methodNames(c.class) {
		if entry, _, _ := c.class.Method(name); entry.Flags&host.FlagStatic != 0 {
			names = append(names, name)
		}
	}
	return
}

func methodNames(class *host.Class) (names []string) {
	for k := class; k != nil; k = k.Parent() {
		for _, name := range k.Methods() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return
}

type objectValue struct {
	i   *Interpreter
	obj *host.Object
}

var _ starlark.HasAttrs = new(objectValue)

func (o *objectValue) String() string {
	return fmt.Sprintf("<%s object #%d>", o.obj.Class().Name(), o.obj.Handle())
}

func (o *objectValue) Type() string {
	return o.obj.Class().Name()
}

func (o *objectValue) Freeze() {}

func (o *objectValue) Truth() starlark.Bool {
	return starlark.True
}

func (o *objectValue) Hash() (uint32, error) {
	return uint32(o.obj.Handle()), nil
}

func (o *objectValue) Attr(name string) (starlark.Value, error) {
	if _, _, ok := o.obj.Class().Method(name); ok {
		return starlark.NewBuiltin(name, o.callMethod).BindReceiver(o), nil
	}
	if z, ok := o.obj.Prop(name); ok {
		return o.i.toStarlark(z)
	}
	return nil, nil
}

func (o *objectValue) AttrNames() []string {
	return methodNames(o.obj.Class())
}

func (o *objectValue) callMethod(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	argv, err := o.i.hostArgs(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	defer o.i.enter(thread)()
	ret, err := o.i.rt.CallMethod(o.obj, b.Name(), argv...)
	if err != nil {
		return nil, hostError(err)
	}
	return o.i.toStarlark(ret)
}
