package starhost

import (
	"errors"
	"fmt"

	"github.com/reusee/callbridge/host"
	"go.starlark.net/starlark"
)

func (i *Interpreter) toHost(v starlark.Value) (any, error) {
	switch v := v.(type) {

	case starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(v), nil

	case starlark.Int:
		n, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s overflows host integer", v)
		}
		return n, nil

	case starlark.Float:
		return float64(v), nil

	case starlark.String:
		return string(v), nil

	case starlark.Bytes:
		return []byte(v), nil

	case *starlark.List:
		arr := host.NewArray()
		for n := range v.Len() {
			if err := i.appendHost(arr, v.Index(n)); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case starlark.Tuple:
		arr := host.NewArray()
		for _, elem := range v {
			if err := i.appendHost(arr, elem); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case *starlark.Dict:
		arr := host.NewArray()
		for _, item := range v.Items() {
			var key host.Key
			switch k := item[0].(type) {
			case starlark.String:
				key = string(k)
			case starlark.Int:
				n, ok := k.Int64()
				if !ok {
					return nil, fmt.Errorf("array key %s overflows host integer", k)
				}
				key = n
			default:
				return nil, fmt.Errorf("unsupported array key type %s", item[0].Type())
			}
			value, err := i.toHost(item[1])
			if err != nil {
				return nil, err
			}
			if err := arr.Set(key, value); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case *objectValue:
		return v.obj, nil

	case *hostCallableValue:
		return v.fn, nil

	case starlark.Callable:
		return &scriptCallable{
			i:  i,
			fn: v,
		}, nil

	}
	return nil, fmt.Errorf("unsupported type for host value: %s", v.Type())
}

func (i *Interpreter) appendHost(arr *host.Array, v starlark.Value) error {
	elem, err := i.toHost(v)
	if err != nil {
		return err
	}
	return arr.Append(elem)
}

func (i *Interpreter) toStarlark(z *host.Zval) (starlark.Value, error) {
	switch z.Type() {

	case host.TypeNull:
		return starlark.None, nil

	case host.TypeBool:
		b, _ := z.Bool()
		return starlark.Bool(b), nil

	case host.TypeLong:
		n, _ := z.Long()
		return starlark.MakeInt64(n), nil

	case host.TypeDouble:
		f, _ := z.Double()
		return starlark.Float(f), nil

	case host.TypeString:
		return starlark.String(z.String()), nil

	case host.TypeArray:
		arr, _ := z.Array()
		if arr.IsList() {
			elems := make([]starlark.Value, 0, arr.Len())
			for _, elem := range arr.All() {
				v, err := i.toStarlark(elem)
				if err != nil {
					return nil, err
				}
				elems = append(elems, v)
			}
			return starlark.NewList(elems), nil
		}
		dict := starlark.NewDict(arr.Len())
		for key, elem := range arr.All() {
			v, err := i.toStarlark(elem)
			if err != nil {
				return nil, err
			}
			var k starlark.Value
			switch key := key.(type) {
			case int64:
				k = starlark.MakeInt64(key)
			default:
				k = starlark.String(fmt.Sprint(key))
			}
			if err := dict.SetKey(k, v); err != nil {
				return nil, err
			}
		}
		return dict, nil

	case host.TypeObject:
		obj, _ := z.Object()
		return &objectValue{
			i:   i,
			obj: obj,
		}, nil

	case host.TypeCallable:
		fn, _ := z.Callable()
		if sc, ok := fn.(*scriptCallable); ok && sc.i == i {
			return sc.fn, nil
		}
		return &hostCallableValue{
			i:  i,
			fn: fn,
		}, nil

	}
	return nil, fmt.Errorf("unsupported host type %s", z.Type())
}

// scriptCallable lets host code call a starlark callable.
type scriptCallable struct {
	i  *Interpreter
	fn starlark.Callable
}

var _ host.Callable = new(scriptCallable)

func (s *scriptCallable) Name() string {
	return s.fn.Name()
}

func (s *scriptCallable) Call(rt *host.Runtime, ret *host.Zval, args []*host.Zval) {
	thread := s.i.thread
	if thread == nil {
		thread = s.i.newThread("callback")
		defer s.i.enter(thread)()
	}

	argv := make(starlark.Tuple, 0, len(args))
	for _, arg := range args {
		v, err := s.i.toStarlark(arg)
		if err != nil {
			rt.ThrowException(nil, err.Error(), 0)
			return
		}
		argv = append(argv, v)
	}

	result, err := starlark.Call(thread, s.fn, argv, nil)
	if err != nil {
		var exErr *ExceptionError
		if errors.As(err, &exErr) {
			// same object, so native code sees what the script saw
			rt.Restore(exErr.Exception)
			return
		}
		rt.ThrowException(nil, err.Error(), 0)
		return
	}

	v, err := s.i.toHost(result)
	if err != nil {
		rt.ThrowException(nil, err.Error(), 0)
		return
	}
	z, err := host.ToZval(v)
	if err != nil {
		rt.ThrowException(nil, err.Error(), 0)
		return
	}
	ret.Set(z)
}

// hostCallableValue lets scripts call a host callable.
type hostCallableValue struct {
	i  *Interpreter
	fn host.Callable
}

var _ starlark.Callable = new(hostCallableValue)

func (h *hostCallableValue) String() string {
	return "<host callable " + h.fn.Name() + ">"
}

func (h *hostCallableValue) Type() string {
	return "host_callable"
}

func (h *hostCallableValue) Freeze() {}

func (h *hostCallableValue) Truth() starlark.Bool {
	return starlark.True
}

func (h *hostCallableValue) Hash() (uint32, error) {
	return starlark.String(h.fn.Name()).Hash()
}

func (h *hostCallableValue) Name() string {
	return h.fn.Name()
}

func (h *hostCallableValue) CallInternal(thread *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	argv, err := h.i.hostArgs(h.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	zvals := make([]*host.Zval, 0, len(argv))
	for _, arg := range argv {
		z, err := host.ToZval(arg)
		if err != nil {
			return nil, err
		}
		zvals = append(zvals, z)
	}
	defer h.i.enter(thread)()
	ret := h.i.rt.CallValue(h.fn, zvals...)
	if ex := h.i.rt.TakeException(); ex != nil {
		return nil, hostError(ex)
	}
	return h.i.toStarlark(ret)
}
