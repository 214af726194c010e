package bridgeconfigs

import (
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
