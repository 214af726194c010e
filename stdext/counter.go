package stdext

import (
	"github.com/reusee/callbridge/bridge"
	"github.com/reusee/callbridge/host"
)

type counter struct {
	n int64
}

func defineCounter(ext *bridge.Extension) {
	ext.Class("Counter").
		Native(func() any {
			return new(counter)
		}).
		Func("__construct", func(p bridge.Parameters) (any, error) {
			c, err := bridge.Native[*counter](p)
			if err != nil {
				return nil, err
			}
			start, err := p.IntOr(0, 0)
			if err != nil {
				return nil, err
			}
			c.n = start
			return nil, nil
		}, host.FlagPublic, bridge.OptVal("start", host.TypeHintScalar)).
		Func("increment", func(p bridge.Parameters) (any, error) {
			c, err := bridge.Native[*counter](p)
			if err != nil {
				return nil, err
			}
			by, err := p.IntOr(0, 1)
			if err != nil {
				return nil, err
			}
			c.n += by
			return c.n, nil
		}, host.FlagPublic, bridge.OptVal("by", host.TypeHintScalar)).
		Func("value", func(p bridge.Parameters) (any, error) {
			c, err := bridge.Native[*counter](p)
			if err != nil {
				return nil, err
			}
			return c.n, nil
		}, host.FlagPublic).
		Func("reset", func(p bridge.Parameters) (any, error) {
			c, err := bridge.Native[*counter](p)
			if err != nil {
				return nil, err
			}
			c.n = 0
			return nil, nil
		}, host.FlagPrivate).
		Func("zero", func(p bridge.Parameters) (any, error) {
			return bridge.Instantiate(p.Runtime(), "Counter")
		}, host.FlagPublic|host.FlagStatic)
}
