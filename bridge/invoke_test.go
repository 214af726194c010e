package bridge

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/reusee/callbridge/host"
)

func newTestRuntime(t *testing.T, features host.Features, setup func(ext *Extension)) *host.Runtime {
	t.Helper()
	ext := NewExtension("test", "0.0.1", nil)
	setup(ext)
	rt := host.New(host.WithFeatures(features))
	if err := ext.Register(rt); err != nil {
		t.Fatal(err)
	}
	return rt
}

// callEntry drives a registered function the way the runtime does, without
// consuming the pending exception afterwards.
func callEntry(t *testing.T, rt *host.Runtime, name string, args ...any) *host.Zval {
	t.Helper()
	entry, ok := rt.Function(name)
	if !ok {
		t.Fatalf("no function %s", name)
	}
	var argv []*host.Zval
	for _, arg := range args {
		z, err := host.ToZval(arg)
		if err != nil {
			t.Fatal(err)
		}
		argv = append(argv, z)
	}
	ret := host.NewNull()
	entry.Handler(rt, entry.Name, ret, nil, argv, len(argv))
	return ret
}

func addTarget(p Parameters) (any, error) {
	a, err := p.Int(0)
	if err != nil {
		return nil, err
	}
	b, err := p.Int(1)
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

func TestInvokeReturnsValue(t *testing.T) {
	rt := newTestRuntime(t, host.Features{SignatureInfo: true}, func(ext *Extension) {
		c, err := NewCallable("add", TargetFunc(addTarget), host.TypeHintScalar,
			ByVal("a", host.TypeHintScalar),
			ByVal("b", host.TypeHintScalar),
		)
		if err != nil {
			t.Fatal(err)
		}
		if c.Required() != 2 || len(c.Args()) != 2 {
			t.Fatalf("got %d %d", c.Required(), len(c.Args()))
		}
		if err := ext.Add(c); err != nil {
			t.Fatal(err)
		}
	})

	ret := callEntry(t, rt, "add", 2, 3)
	if v, ok := ret.Long(); !ok || v != 5 {
		t.Fatalf("got %v", ret.Interface())
	}
	if rt.Exception() != nil {
		t.Fatalf("got %v", rt.Exception())
	}

	ret, err := rt.Call("add", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ret.Long(); v != 5 {
		t.Fatalf("got %v", ret.Interface())
	}
}

func TestInvokeNativeFailure(t *testing.T) {
	rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
		if err := ext.Func("intdiv", func(p Parameters) (any, error) {
			a, err := p.Int(0)
			if err != nil {
				return nil, err
			}
			b, err := p.Int(1)
			if err != nil {
				return nil, err
			}
			if b == 0 {
				return nil, Errorf("division by zero")
			}
			return a / b, nil
		}, ByVal("a", host.TypeHintScalar), ByVal("b", host.TypeHintScalar)); err != nil {
			t.Fatal(err)
		}
	})

	ret := callEntry(t, rt, "intdiv", 1, 0)
	ex := rt.Exception()
	if ex == nil {
		t.Fatal("should have pending exception")
	}
	if ex.Class != rt.DefaultException() {
		t.Fatalf("got %v", ex.Class.Name())
	}
	if ex.Message != "division by zero" {
		t.Fatalf("got %q", ex.Message)
	}
	if !ret.IsNull() {
		t.Fatalf("return slot should be unset, got %v", ret.Interface())
	}
	rt.ClearException()

	_, err := rt.Call("intdiv", 1, 0)
	if err == nil || err.Error() != "Exception: division by zero" {
		t.Fatalf("got %v", err)
	}
}

type panickyError struct{}

func (panickyError) Error() string {
	panic("no message")
}

func TestInvokeFailureKinds(t *testing.T) {
	cases := []struct {
		name    string
		target  TargetFunc
		message string
		code    int64
	}{
		{
			"plain error",
			func(Parameters) (any, error) {
				return nil, errors.New("plain")
			},
			"plain", 0,
		},
		{
			"exception with code",
			func(Parameters) (any, error) {
				return nil, &Exception{Message: "coded", Code: 7}
			},
			"coded", 7,
		},
		{
			"wrapped exception",
			func(Parameters) (any, error) {
				return nil, fmt.Errorf("context: %w", &Exception{Message: "inner", Code: 2})
			},
			"context: inner", 2,
		},
		{
			"panic value",
			func(Parameters) (any, error) {
				panic("oops")
			},
			"oops", 0,
		},
		{
			"panic error",
			func(Parameters) (any, error) {
				panic(Errorf("panicked %d", 1))
			},
			"panicked 1", 0,
		},
		{
			"unconvertible result",
			func(Parameters) (any, error) {
				return make(chan int), nil
			},
			"unsupported type for host value: chan int", 0,
		},
		{
			"nil exception",
			func(Parameters) (any, error) {
				var native *Exception
				return nil, native
			},
			malformedFailure, 0,
		},
		{
			"wrapped nil exception",
			func(Parameters) (any, error) {
				var native *Exception
				return nil, fmt.Errorf("context: %w", native)
			},
			malformedFailure, 0,
		},
		{
			"empty orig exception",
			func(Parameters) (any, error) {
				return nil, new(OrigException)
			},
			malformedFailure, 0,
		},
		{
			"panicking error",
			func(Parameters) (any, error) {
				return nil, panickyError{}
			},
			malformedFailure, 0,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
				if err := ext.Func("f", c.target); err != nil {
					t.Fatal(err)
				}
			})
			ret := callEntry(t, rt, "f")
			ex := rt.Exception()
			if ex == nil {
				t.Fatal("should have pending exception")
			}
			if ex.Message != c.message || ex.Code != c.code {
				t.Fatalf("got %q %d", ex.Message, ex.Code)
			}
			if ex.Class != rt.DefaultException() {
				t.Fatalf("got %s", ex.Class.Name())
			}
			if !ret.IsNull() {
				t.Fatalf("got %v", ret.Interface())
			}
		})
	}

	t.Run("nil dereference", func(t *testing.T) {
		rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
			if err := ext.Func("f", func(Parameters) (any, error) {
				var m *host.Object
				return m.Class().Name(), nil
			}); err != nil {
				t.Fatal(err)
			}
		})
		callEntry(t, rt, "f")
		ex := rt.Exception()
		if ex == nil || !strings.Contains(ex.Message, "nil pointer") {
			t.Fatalf("got %v", ex)
		}
	})
}

func TestInvokeForwardsHostException(t *testing.T) {
	var thrown *host.Exception
	throwing := host.NewClosure("throwing", func(rt *host.Runtime, ret *host.Zval, args []*host.Zval) {
		thrown = rt.ThrowException(nil, "from host", 9)
	})

	cases := []struct {
		name   string
		target TargetFunc
	}{
		{
			"as is",
			func(p Parameters) (any, error) {
				_, err := p.Call(throwing)
				return nil, err
			},
		},
		{
			"wrapped",
			func(p Parameters) (any, error) {
				_, err := p.Call(throwing)
				return nil, fmt.Errorf("calling back: %w", err)
			},
		},
		{
			"panicked",
			func(p Parameters) (any, error) {
				if _, err := p.Call(throwing); err != nil {
					panic(err)
				}
				return nil, nil
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
				if err := ext.Func("apply", c.target); err != nil {
					t.Fatal(err)
				}
			})
			ret := callEntry(t, rt, "apply")
			ex := rt.Exception()
			if ex == nil {
				t.Fatal("should have pending exception")
			}
			if ex != thrown {
				t.Fatal("should be the original exception object")
			}
			if ex.Previous != nil || ex.Message != "from host" || ex.Code != 9 {
				t.Fatalf("exception modified: %+v", ex)
			}
			if !ret.IsNull() {
				t.Fatalf("got %v", ret.Interface())
			}

			// the runtime surfaces the same object
			rt.ClearException()
			_, err := rt.Call("apply")
			var got *host.Exception
			if !errors.As(err, &got) || got != thrown {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestInterceptedExceptionCanBeHandled(t *testing.T) {
	throwing := host.NewClosure("throwing", func(rt *host.Runtime, ret *host.Zval, args []*host.Zval) {
		rt.ThrowException(nil, "ignored", 0)
	})
	rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
		if err := ext.Func("swallow", func(p Parameters) (any, error) {
			_, err := p.Call(throwing)
			var orig *OrigException
			if !errors.As(err, &orig) {
				return nil, Errorf("expected host exception, got %v", err)
			}
			if orig.Exception().Message != "ignored" {
				return nil, Errorf("got %s", orig.Exception().Message)
			}
			return "handled", nil
		}); err != nil {
			t.Fatal(err)
		}
	})
	ret := callEntry(t, rt, "swallow")
	if rt.Exception() != nil {
		t.Fatalf("got %v", rt.Exception())
	}
	if ret.String() != "handled" {
		t.Fatalf("got %v", ret.Interface())
	}
}

func TestSingleDispatchPoint(t *testing.T) {
	noop := func(Parameters) (any, error) { return nil, nil }
	ext := NewExtension("test", "0.0.1", nil)
	for i := range 5 {
		if err := ext.Func(fmt.Sprintf("f%d", i), noop); err != nil {
			t.Fatal(err)
		}
	}
	ext.Class("K").
		Func("m1", noop, host.FlagPublic).
		Func("m2", noop, host.FlagPublic|host.FlagStatic)

	want := reflect.ValueOf(handler).Pointer()
	features := host.Features{SignatureInfo: true}
	for _, c := range ext.Functions() {
		entry := c.Entry(features, "", host.FlagPublic)
		if reflect.ValueOf(entry.Handler).Pointer() != want {
			t.Fatalf("%s has another handler", c.Name())
		}
	}
	for _, class := range ext.Classes() {
		callables, flags := class.Methods()
		for i, c := range callables {
			entry := c.Entry(features, class.Name(), flags[i])
			if reflect.ValueOf(entry.Handler).Pointer() != want {
				t.Fatalf("%s has another handler", c.Name())
			}
		}
	}
}

func TestNoLeakageAcrossCalls(t *testing.T) {
	var retained []Parameters
	var observed []int
	rt := newTestRuntime(t, host.Features{}, func(ext *Extension) {
		if err := ext.Func("keep", func(p Parameters) (any, error) {
			for _, old := range retained {
				if old.Valid() {
					return nil, Errorf("previous parameters still valid")
				}
				observed = append(observed, old.Len())
				if old.This() != nil || old.Runtime() != nil {
					return nil, Errorf("previous parameters expose call state")
				}
				if _, err := old.Zval(0); err == nil {
					return nil, Errorf("previous parameters readable")
				}
			}
			retained = append(retained, p)
			return p.Len(), nil
		}); err != nil {
			t.Fatal(err)
		}
	})

	for i := range 3 {
		ret, err := rt.Call("keep", "x", "y")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if v, _ := ret.Long(); v != 2 {
			t.Fatalf("got %v", ret.Interface())
		}
	}
	for _, n := range observed {
		if n != 0 {
			t.Fatalf("got %d", n)
		}
	}
	if len(observed) != 3 {
		t.Fatalf("got %d", len(observed))
	}
}

func TestRetainedValueCannotWrite(t *testing.T) {
	slot := host.NewNull()
	rt := host.New()
	v := NewValue(rt, slot)
	if err := v.Assign(1); err != nil {
		t.Fatal(err)
	}
	v.f.release()
	if err := v.Assign(2); err == nil {
		t.Fatal("should error")
	}
	if i, _ := slot.Long(); i != 1 {
		t.Fatalf("got %v", slot.Interface())
	}

	var zero Value
	if err := zero.Assign(1); err == nil {
		t.Fatal("should error")
	}
}

func TestInvokeMethods(t *testing.T) {
	type counter struct {
		n int64
	}
	rt := newTestRuntime(t, host.Features{SignatureInfo: true}, func(ext *Extension) {
		ext.Class("Counter").
			Native(func() any {
				return new(counter)
			}).
			Func("increment", func(p Parameters) (any, error) {
				c, err := Native[*counter](p)
				if err != nil {
					return nil, err
				}
				by, err := p.IntOr(0, 1)
				if err != nil {
					return nil, err
				}
				c.n += by
				return c.n, nil
			}, host.FlagPublic, OptVal("by", host.TypeHintScalar)).
			Func("receiver", func(p Parameters) (any, error) {
				return p.This() == nil, nil
			}, host.FlagPublic|host.FlagStatic)
	})

	obj, err := rt.New("Counter")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.CallMethod(obj, "increment"); err != nil {
		t.Fatal(err)
	}
	ret, err := rt.CallMethod(obj, "increment", 5)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ret.Long(); v != 6 {
		t.Fatalf("got %v", ret.Interface())
	}
	if obj.Native().(*counter).n != 6 {
		t.Fatal()
	}

	ret, err = rt.CallStatic("Counter", "receiver")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ret.Bool(); !v {
		t.Fatal("static method should have no receiver")
	}

	entry, _, _ := obj.Class().Method("increment")
	if entry.Info == nil || entry.Info.ClassName != "Counter" {
		t.Fatalf("got %+v", entry.Info)
	}
}
