package stdext

import (
	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

const (
	Name    = "stdext"
	Version = "0.1.0"
)

func (Module) Extension(
	logger logs.Logger,
) *bridge.Extension {
	ext, err := New(logger)
	if err != nil {
		panic(err)
	}
	return ext
}

// New builds the extension. It is not registered anywhere yet.
func New(logger logs.Logger) (*bridge.Extension, error) {
	ext := bridge.NewExtension(Name, Version, logger)
	for _, def := range functions {
		c, err := bridge.NewCallable(def.name, def.target, def.returns, def.args...)
		if err != nil {
			return nil, err
		}
		if err := ext.Add(c); err != nil {
			return nil, err
		}
	}
	defineCounter(ext)
	for _, class := range ext.Classes() {
		if err := class.Err(); err != nil {
			return nil, err
		}
	}
	return ext, nil
}
