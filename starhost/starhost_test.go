package starhost

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/callbridge/stdext"
	"github.com/reusee/dscope"
	"go.starlark.net/starlark"
)

func newInterpreter(t *testing.T, stdout *bytes.Buffer) *Interpreter {
	t.Helper()
	ext, err := stdext.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	rt := host.New(host.WithFeatures(host.Features{SignatureInfo: true}))
	if err := ext.Register(rt); err != nil {
		t.Fatal(err)
	}
	return New(rt, WithStdout(stdout))
}

func exec(t *testing.T, i *Interpreter, src string) starlark.StringDict {
	t.Helper()
	globals, err := i.Exec(context.Background(), "test.star", src)
	if err != nil {
		t.Fatal(err)
	}
	return globals
}

func TestExecFunctions(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	globals := exec(t, i, `
r = add(2, 3)
f = add(1, 0.5)
s = str_upper("abc")
m = array_map(lambda x: x * 2, [1, 2, 3])
d = array_map(lambda x: x + 1, {"a": 1, "b": 2})
total = array_sum([1, 2, 3.5])
joined = call_user_func(lambda a, b: a + b, "x", "y")
`)
	cases := map[string]string{
		"r":      "5",
		"f":      "1.5",
		"s":      `"ABC"`,
		"m":      "[2, 4, 6]",
		"d":      `{"a": 2, "b": 3}`,
		"total":  "6.5",
		"joined": `"xy"`,
	}
	for name, want := range cases {
		if got := globals[name].String(); got != want {
			t.Fatalf("%s: got %s, want %s", name, got, want)
		}
	}
}

func TestNativeFailure(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	_, err := i.Exec(context.Background(), "test.star", `intdiv(1, 0)`)
	var exErr *ExceptionError
	if !errors.As(err, &exErr) {
		t.Fatalf("got %v", err)
	}
	if exErr.Exception.Message != "division by zero" {
		t.Fatalf("got %v", exErr.Exception)
	}
	if exErr.Exception.Class != i.Runtime().DefaultException() {
		t.Fatal("should be the default exception class")
	}
	var ex *host.Exception
	if !errors.As(err, &ex) || ex != exErr.Exception {
		t.Fatal("host exception should be reachable")
	}
	if i.Runtime().Exception() != nil {
		t.Fatal("nothing should stay pending")
	}
}

func TestTryCall(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	globals := exec(t, i, `
r, e = try_call(intdiv, 1, 0)
msg = e.message
class_name = e.class
ok, none = try_call(intdiv, 6, 3)
`)
	if globals["r"] != starlark.None {
		t.Fatalf("got %v", globals["r"])
	}
	if globals["msg"].String() != `"division by zero"` {
		t.Fatalf("got %v", globals["msg"])
	}
	if globals["class_name"].String() != `"Exception"` {
		t.Fatalf("got %v", globals["class_name"])
	}
	if globals["ok"].String() != "2" || globals["none"] != starlark.None {
		t.Fatalf("got %v %v", globals["ok"], globals["none"])
	}

	// plain script errors are not caught
	_, err := i.Exec(context.Background(), "test.star", `try_call(lambda: 1 // 0)`)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("got %v", err)
	}
	var exErr *ExceptionError
	if errors.As(err, &exErr) {
		t.Fatal("should not be a host exception")
	}
}

func TestCallbackExceptionIdentity(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	globals := exec(t, i, `
e = exception("boom", 3)

def cb(x):
    throw(e)

r, caught = try_call(array_map, cb, [1])

def nested(x):
    return intdiv(x, 0)

r2, caught2 = try_call(array_map, nested, [1])
`)
	thrown := globals["e"].(*exceptionValue).ex
	caught := globals["caught"].(*exceptionValue).ex
	if thrown != caught {
		t.Fatal("should be the thrown exception")
	}
	if caught.Code != 3 || caught.Previous != nil {
		t.Fatalf("got %+v", caught)
	}

	caught2 := globals["caught2"].(*exceptionValue).ex
	if caught2.Message != "division by zero" || caught2.Previous != nil {
		t.Fatalf("got %+v", caught2)
	}
}

func TestScriptErrorInCallback(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	globals := exec(t, i, `
def cb(x):
    fail("bad callback")

r, e = try_call(array_map, cb, [1])
msg = e.message
`)
	if !strings.Contains(globals["msg"].String(), "bad callback") {
		t.Fatalf("got %v", globals["msg"])
	}
}

func TestClasses(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	globals := exec(t, i, `
c = Counter(5)
c.increment()
c.increment(4)
v = c.value()
z = Counter.zero().value()
r, e = try_call(c.reset)
private = e.message
kind = type(c)
`)
	if globals["v"].String() != "10" {
		t.Fatalf("got %v", globals["v"])
	}
	if globals["z"].String() != "0" {
		t.Fatalf("got %v", globals["z"])
	}
	if !strings.Contains(globals["private"].String(), "private method Counter::reset()") {
		t.Fatalf("got %v", globals["private"])
	}
	if globals["kind"].String() != `"Counter"` {
		t.Fatalf("got %v", globals["kind"])
	}
	obj, ok := globals["c"].(*objectValue)
	if !ok {
		t.Fatalf("got %T", globals["c"])
	}
	names := obj.AttrNames()
	if strings.Join(names, ",") != "__construct,increment,reset,value,zero" {
		t.Fatalf("got %v", names)
	}
}

func TestBuiltins(t *testing.T) {
	stdout := new(bytes.Buffer)
	i := newInterpreter(t, stdout)
	globals, err := i.Exec(context.Background(), "test.star", `
has_add = function_exists("add")
has_nope = function_exists("nope")
has_counter = class_exists("Counter")
print("args", argv)
`, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if !bool(globals["has_add"].Truth()) || bool(globals["has_nope"].Truth()) {
		t.Fatal()
	}
	if !bool(globals["has_counter"].Truth()) {
		t.Fatal()
	}
	if got := stdout.String(); got != "args [\"a\", \"b\"]\n" {
		t.Fatalf("got %q", got)
	}
}

func TestConversionErrors(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	_, err := i.Exec(context.Background(), "test.star", `add(set([1]), 1)`)
	if err == nil || !strings.Contains(err.Error(), "unsupported type for host value: set") {
		t.Fatalf("got %v", err)
	}
	_, err = i.Exec(context.Background(), "test.star", `add(1 << 70, 1)`)
	if err == nil || !strings.Contains(err.Error(), "overflows host integer") {
		t.Fatalf("got %v", err)
	}
	_, err = i.Exec(context.Background(), "test.star", `add(a=1, b=2)`)
	if err == nil || !strings.Contains(err.Error(), "unexpected keyword arguments") {
		t.Fatalf("got %v", err)
	}
}

func TestHostCallableValue(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	closure := host.NewClosure("twice", func(rt *host.Runtime, ret *host.Zval, args []*host.Zval) {
		n, _ := args[0].Long()
		if n < 0 {
			rt.ThrowException(nil, "negative", 0)
			return
		}
		ret.SetLong(n * 2)
	})
	z, err := host.ToZval(closure)
	if err != nil {
		t.Fatal(err)
	}
	v, err := i.toStarlark(z)
	if err != nil {
		t.Fatal(err)
	}
	thread := i.newThread("test")
	ret, err := starlark.Call(thread, v, starlark.Tuple{starlark.MakeInt(21)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ret.String() != "42" {
		t.Fatalf("got %v", ret)
	}
	_, err = starlark.Call(thread, v, starlark.Tuple{starlark.MakeInt(-1)}, nil)
	var exErr *ExceptionError
	if !errors.As(err, &exErr) || exErr.Exception.Message != "negative" {
		t.Fatalf("got %v", err)
	}

	// round trip keeps the host callable
	back, err := i.toHost(v)
	if err != nil {
		t.Fatal(err)
	}
	if back != host.Callable(closure) {
		t.Fatal("should unwrap to the same callable")
	}
}

func TestCancel(t *testing.T) {
	i := newInterpreter(t, new(bytes.Buffer))
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	_, err := i.Exec(ctx, "loop.star", `
while True:
    pass
`)
	if err == nil || !strings.Contains(err.Error(), "cancel") {
		t.Fatalf("got %v", err)
	}
}

func TestModule(t *testing.T) {
	stdout := new(bytes.Buffer)
	logBuf := new(bytes.Buffer)
	dscope.New(
		new(Module),
		new(stdext.Module),
	).Fork(
		func() Stdout {
			return stdout
		},
		func() logs.Writer {
			return logBuf
		},
		func(ext *bridge.Extension) Extensions {
			return Extensions{ext}
		},
	).Call(func(
		newInterpreter NewInterpreter,
	) {
		for range 2 {
			interp, err := newInterpreter()
			if err != nil {
				t.Fatal(err)
			}
			_, err = interp.Exec(context.Background(), "main.star", `print(add(2, 3))`)
			if err != nil {
				t.Fatal(err)
			}
			_, err = interp.Exec(context.Background(), "main.star", `intdiv(1, 0)`)
			if err == nil || !strings.Contains(err.Error(), "span: ") {
				t.Fatalf("got %v", err)
			}
		}
	})
	if stdout.String() != "5\n5\n" {
		t.Fatalf("got %q", stdout.String())
	}
	if !strings.Contains(logBuf.String(), "extension registered") ||
		!strings.Contains(logBuf.String(), "msg=exec") ||
		!strings.Contains(logBuf.String(), "logs.span=") {
		t.Fatalf("got %s", logBuf.String())
	}
}
