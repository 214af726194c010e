package bridgeconfigs

import (
	"log/slog"

	"github.com/reusee/callbridge/cmds"
	"github.com/reusee/callbridge/configs"
	"github.com/reusee/callbridge/host"
	"github.com/reusee/callbridge/logs"
	"github.com/reusee/callbridge/vars"
)

var (
	noSignatureInfo  = cmds.Switch("-no-signature-info")
	defaultException = cmds.Var[string]("-default-exception")
)

// Features is resolved once per scope; every runtime built from the scope
// shares it.
func (Module) Features(
	loader configs.Loader,
) host.Features {
	signatureInfo := true
	if v := configs.First[*bool](loader, "signature_info"); v != nil {
		signatureInfo = *v
	}
	if *noSignatureInfo {
		signatureInfo = false
	}
	return host.Features{
		SignatureInfo: signatureInfo,
	}
}

// DefaultException names the class of exceptions raised by native code.
type DefaultException string

func (Module) DefaultException(
	loader configs.Loader,
) DefaultException {
	return vars.FirstNonZero(
		DefaultException(*defaultException),
		configs.First[DefaultException](loader, "default_exception"),
		"Exception",
	)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel reads log_level. Fork a scope with it to let configuration set
// the default level of logs.Logger.
func LogLevel(
	loader configs.Loader,
) logs.Level {
	return logs.Level(levels[vars.FirstNonZero(
		configs.First[string](loader, "log_level"),
		"info",
	)])
}
