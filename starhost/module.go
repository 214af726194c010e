package starhost

import (
	"io"
	"os"

	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/bridgeconfigs"
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Configs bridgeconfigs.Module
}

// Extensions are registered into every runtime an interpreter is built on.
type Extensions []*bridge.Extension

func (Module) Extensions() Extensions {
	return nil
}

type Stdout io.Writer

func (Module) Stdout() Stdout {
	return os.Stdout
}

type NewInterpreter func() (*Interpreter, error)

func (Module) NewInterpreter(
	newRuntime bridgeconfigs.NewRuntime,
	extensions Extensions,
	logger logs.Logger,
	newSpan logs.NewSpan,
	stdout Stdout,
) NewInterpreter {
	return func() (*Interpreter, error) {
		rt := newRuntime()
		for _, ext := range extensions {
			if err := ext.Register(rt); err != nil {
				return nil, err
			}
		}
		return New(rt,
			WithLogger(logger),
			WithNewSpan(newSpan),
			WithStdout(stdout),
		), nil
	}
}
