package starhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Interpreter runs starlark code against one host runtime. Host functions
// and classes become predeclared names.
type Interpreter struct {
	rt      *host.Runtime
	logger  logs.Logger
	newSpan logs.NewSpan
	stdout  io.Writer
	// thread of the innermost starlark call in progress
	thread *starlark.Thread
}

type Option func(*Interpreter)

func WithLogger(logger logs.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

func WithNewSpan(newSpan logs.NewSpan) Option {
	return func(i *Interpreter) {
		i.newSpan = newSpan
	}
}

func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

func New(rt *host.Runtime, options ...Option) *Interpreter {
	i := &Interpreter{
		rt:     rt,
		logger: slog.New(slog.DiscardHandler),
		stdout: io.Discard,
	}
	for _, option := range options {
		option(i)
	}
	return i
}

func (i *Interpreter) Runtime() *host.Runtime {
	return i.rt
}

// Predeclared returns the names visible to scripts.
func (i *Interpreter) Predeclared(argv ...string) starlark.StringDict {
	dict := starlark.StringDict{}
	for _, name := range i.rt.Functions() {
		dict[name] = i.hostFunction(name)
	}
	for _, name := range i.rt.Classes() {
		class, _ := i.rt.LookupClass(name)
		dict[name] = &classValue{
			i:     i,
			class: class,
		}
	}
	for name, value := range i.builtins() {
		dict[name] = value
	}
	args := make([]starlark.Value, 0, len(argv))
	for _, arg := range argv {
		args = append(args, starlark.String(arg))
	}
	dict["argv"] = starlark.NewList(args)
	return dict
}

func (i *Interpreter) newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(i.stdout, msg)
		},
	}
}

// enter records thread as the current one until the returned func is called.
func (i *Interpreter) enter(thread *starlark.Thread) func() {
	prev := i.thread
	i.thread = thread
	return func() {
		i.thread = prev
	}
}

func (i *Interpreter) span(ctx context.Context) context.Context {
	if i.newSpan == nil {
		return ctx
	}
	ctx, _ = i.newSpan(ctx, "")
	return ctx
}

// Exec runs a script. src is a filename, string, []byte or io.Reader as
// accepted by starlark.
func (i *Interpreter) Exec(ctx context.Context, filename string, src any, argv ...string) (starlark.StringDict, error) {
	ctx = i.span(ctx)
	i.logger.InfoContext(ctx, "exec",
		"file", filename,
		"args", len(argv),
	)

	thread := i.newThread(filename)
	defer i.enter(thread)()
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, i.Predeclared(argv...))
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			i.logger.DebugContext(ctx, "script failed",
				"backtrace", evalErr.Backtrace(),
			)
		}
		return globals, logs.WrapSpan(ctx, err)
	}
	return globals, nil
}

// REPL reads and evaluates statements from the terminal until EOF.
func (i *Interpreter) REPL(ctx context.Context) {
	ctx = i.span(ctx)
	i.logger.InfoContext(ctx, "repl")
	thread := i.newThread("repl")
	defer i.enter(thread)()
	repl.REPLOptions(fileOptions, thread, i.Predeclared())
}
