package cmds

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"strings"
)

type Executor struct {
	commands map[string]*Command
}

func NewExecutor() *Executor {
	e := &Executor{
		commands: make(map[string]*Command),
	}
	e.Define("-h", Func(func() {
		e.PrintUsage()
		os.Exit(0)
	}).
		Desc("print this usage").
		Alias("help", "-help", "--help"))
	return e
}

func (e *Executor) Define(name string, command *Command) {
	for _, n := range append([]string{name}, command.Aliases...) {
		if _, ok := e.commands[n]; ok {
			panic(fmt.Errorf("duplicated command %s", n))
		}
		e.commands[n] = command
	}
}

var errorType = reflect.TypeFor[error]()

// Execute runs commands in argument order. Sub commands of an executed
// command become available for the remaining arguments.
func (e *Executor) Execute(args []string) error {
	commands := e.commands
	for len(args) > 0 {
		name := strings.TrimSpace(args[0])
		args = args[1:]

		command, ok := commands[name]
		if !ok || command == nil {
			return fmt.Errorf("unknown command: %s", name)
		}

		if command.Func.IsValid() {
			var err error
			args, err = call(name, command.Func, args)
			if err != nil {
				return err
			}
		}

		if len(command.Subs) > 0 {
			commands = maps.Clone(commands)
			for subName, sub := range command.Subs {
				if _, ok := commands[subName]; ok {
					return fmt.Errorf("duplicated sub command: %s %s", name, subName)
				}
				commands[subName] = sub
			}
		}
	}
	return nil
}

func (e *Executor) MustExecute(args []string) {
	if err := e.Execute(args); err != nil {
		panic(err)
	}
}

func call(name string, fn reflect.Value, args []string) (rest []string, err error) {
	t := fn.Type()
	var in []reflect.Value
	for i := range t.NumIn() {
		paramType := t.In(i)

		if t.IsVariadic() && i == t.NumIn()-1 {
			elemType := paramType.Elem()
			for _, arg := range args {
				v, err := parseArg(elemType, arg)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				in = append(in, v)
			}
			args = nil
			break
		}

		if len(args) == 0 {
			if paramType.Kind() != reflect.Pointer {
				return nil, fmt.Errorf("%s: expecting argument, got nothing", name)
			}
			// optional
			in = append(in, reflect.New(paramType.Elem()))
			continue
		}

		v, err := parseArg(paramType, args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		args = args[1:]
		in = append(in, v)
	}

	out := fn.Call(in)
	if len(out) > 0 && !out[0].IsNil() {
		return nil, out[0].Interface().(error)
	}
	return args, nil
}
