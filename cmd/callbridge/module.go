package main

import (
	"github.com/reusee/callbridge/starhost"
	"github.com/reusee/callbridge/stdext"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	StarHost starhost.Module
	StdExt   stdext.Module
}
