package bridgeconfigs

import (
	"github.com/reusee/callbridge/configs"
	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
)

type NewRuntime func() *host.Runtime

func (Module) NewRuntime(
	features host.Features,
	defaultException DefaultException,
	loader configs.Loader,
	logger logs.Logger,
) NewRuntime {
	if paths := loader.Paths(); len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}
	return func() *host.Runtime {
		return host.New(
			host.WithFeatures(features),
			host.WithLogger(logger),
			host.WithDefaultException(string(defaultException)),
		)
	}
}
