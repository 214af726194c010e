package starhost

import (
	"errors"
	"fmt"

	"github.com/reusee/callbridge/host"
	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

func (i *Interpreter) builtins() starlark.StringDict {
	return starlark.StringDict{
		"try_call":  starlark.NewBuiltin("try_call", i.tryCall),
		"throw":     starlark.NewBuiltin("throw", i.throw),
		"exception": starlark.NewBuiltin("exception", i.exception),
		"function_exists": starlarkutil.MakeFunc("function_exists", func(name string) bool {
			_, ok := i.rt.Function(name)
			return ok
		}),
		"class_exists": starlarkutil.MakeFunc("class_exists", func(name string) bool {
			_, ok := i.rt.LookupClass(name)
			return ok
		}),
	}
}

// tryCall calls fn and returns (result, None), or (None, exception) when a
// host exception escapes. Other errors propagate.
func (i *Interpreter) tryCall(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: missing callable", b.Name())
	}
	fn, ok := args[0].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s: %s is not callable", b.Name(), args[0].Type())
	}
	ret, err := starlark.Call(thread, fn, args[1:], kwargs)
	if err != nil {
		var exErr *ExceptionError
		if errors.As(err, &exErr) {
			return starlark.Tuple{
				starlark.None,
				&exceptionValue{
					ex: exErr.Exception,
				},
			}, nil
		}
		return nil, err
	}
	return starlark.Tuple{ret, starlark.None}, nil
}

// exception creates a host exception without raising it.
func (i *Interpreter) exception(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string
	var code int
	var className string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"message", &message,
		"code?", &code,
		"class?", &className,
	); err != nil {
		return nil, err
	}
	class := i.rt.DefaultException()
	if className != "" {
		c, ok := i.rt.LookupClass(className)
		if !ok {
			return nil, fmt.Errorf("%s: class %s not found", b.Name(), className)
		}
		class = c
	}
	return &exceptionValue{
		ex: &host.Exception{
			Class:   class,
			Message: message,
			Code:    int64(code),
		},
	}, nil
}

// throw raises an exception value, or a new exception from a message.
func (i *Interpreter) throw(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) == 1 && len(kwargs) == 0 {
		if e, ok := args[0].(*exceptionValue); ok {
			return nil, &ExceptionError{
				Exception: e.ex,
			}
		}
	}
	v, err := i.exception(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return nil, &ExceptionError{
		Exception: v.(*exceptionValue).ex,
	}
}
