package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/bridgeconfigs"
	"github.com/reusee/callbridge/cmds"
	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/callbridge/starhost"
	"github.com/reusee/dscope"
)

var (
	scriptPath string
	scriptArgs []string

	doRepl        = cmds.Switch("repl")
	listFunctions = cmds.Switch("functions")
)

func init() {
	cmds.Define("run", cmds.Func(func(path string, args ...string) {
		scriptPath = path
		scriptArgs = args
	}).Desc("run a starlark script, remaining arguments become argv"))
}

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	scope := dscope.New(
		new(Module),
	).Fork(
		bridgeconfigs.LogLevel,
		func(ext *bridge.Extension) starhost.Extensions {
			return starhost.Extensions{ext}
		},
	)

	scope.Call(func(
		newInterpreter starhost.NewInterpreter,
		ext *bridge.Extension,
		features host.Features,
		logger logs.Logger,
	) {
		switch {

		case *listFunctions:
			printFunctions(os.Stdout, ext, features)

		case scriptPath != "":
			interp, err := newInterpreter()
			ce(err)
			if _, err := interp.Exec(ctx, scriptPath, nil, scriptArgs...); err != nil {
				logger.Error("run", "file", scriptPath, "error", err)
				os.Exit(1)
			}

		case *doRepl:
			interp, err := newInterpreter()
			ce(err)
			interp.REPL(ctx)

		default:
			cmds.GlobalExecutor.PrintUsage()
		}
	})
}

func printFunctions(w io.Writer, ext *bridge.Extension, features host.Features) {
	for _, c := range ext.Functions() {
		fmt.Fprintln(w, c.Signature())
	}
	for _, class := range ext.Classes() {
		fmt.Fprintf(w, "class %s\n", class.Name())
		callables, flags := class.Methods()
		for i, c := range callables {
			fmt.Fprintf(w, "  %s %s\n", flags[i], c.Signature())
		}
	}
	if !features.SignatureInfo {
		fmt.Fprintln(w, "# signature info disabled")
	}
}

func ce(err error) {
	if err != nil {
		panic(err)
	}
}
