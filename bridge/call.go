package bridge

import (
	"github.com/reusee/callbridge/host"
)

// Call invokes a host callable from native code.
// An exception raised by fn is taken out of the runtime and returned as
// *OrigException; returning it from a target hands it back unchanged.
func Call(rt *host.Runtime, fn host.Callable, args ...any) (*host.Zval, error) {
	argv := make([]*host.Zval, 0, len(args))
	for _, arg := range args {
		z, err := host.ToZval(arg)
		if err != nil {
			return nil, &Exception{
				Message: err.Error(),
			}
		}
		argv = append(argv, z)
	}
	ret := rt.CallValue(fn, argv...)
	if ex := rt.TakeException(); ex != nil {
		return nil, &OrigException{
			exception: ex,
		}
	}
	return ret, nil
}

// CallFunction invokes a registered host function by name.
func CallFunction(rt *host.Runtime, name string, args ...any) (*host.Zval, error) {
	ret, err := rt.Call(name, args...)
	if err != nil {
		return nil, intercepted(err)
	}
	return ret, nil
}

// Instantiate creates an object of a host class from native code.
func Instantiate(rt *host.Runtime, className string, args ...any) (*host.Object, error) {
	obj, err := rt.New(className, args...)
	if err != nil {
		return nil, intercepted(err)
	}
	return obj, nil
}

func intercepted(err error) error {
	if ex, ok := err.(*host.Exception); ok {
		return &OrigException{
			exception: ex,
		}
	}
	return &Exception{
		Message: err.Error(),
	}
}
