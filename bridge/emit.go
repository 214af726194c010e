package bridge

import "github.com/reusee/callbridge/host"

// handler is the one entry point installed in every registration.
var handler host.Handler = invoke

// Entry builds the registration row for c. className is empty for plain
// functions. Info is filled only when the runtime supports signature info.
func (c *Callable) Entry(features host.Features, className string, flags host.Flags) host.FunctionEntry {
	entry := host.FunctionEntry{
		Name:    c.fname,
		Handler: handler,
		ArgInfo: c.argInfo,
		NumArgs: uint32(len(c.args)),
		Flags:   flags,
	}
	if features.SignatureInfo {
		entry.Info = new(host.FunctionInfo)
		c.fillInfo(entry.Info, className)
	}
	return entry
}

func (c *Callable) fillInfo(info *host.FunctionInfo, className string) {
	info.Name = c.fname
	info.NameLen = len(c.name)
	info.ClassName = className
	info.RequiredNumArgs = uint32(c.required)
	info.TypeHint = c.returns
	// native code never aliases host call-site storage
	info.ReturnReference = false
	info.PassRestByReference = false
}
