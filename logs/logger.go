package logs

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/reusee/callbridge/cmds"
	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// flagLevel is set by command line switches and wins over Level.
var flagLevel *slog.Level

func init() {
	for _, def := range []struct {
		name  string
		level slog.Level
	}{
		{"-log-debug", slog.LevelDebug},
		{"-log-info", slog.LevelInfo},
		{"-log-warn", slog.LevelWarn},
		{"-log-error", slog.LevelError},
	} {
		cmds.Define(def.name, cmds.Func(func() {
			flagLevel = &def.level
		}).Desc("set log level to "+strings.ToLower(def.level.String())))
	}
}

type Logger = *slog.Logger

// Level is the minimum level when no command line switch is given.
type Level slog.Level

func (Module) Level() Level {
	return Level(slog.LevelInfo)
}

const journalSocket = "/run/systemd/journal/socket"

func (Module) Logger(
	writer Writer,
	defaultLevel Level,
) Logger {
	level := new(slog.LevelVar)
	level.Set(slog.Level(defaultLevel))
	if flagLevel != nil {
		level.Set(*flagLevel)
	}

	var handlers []slog.Handler

	isSystemdService := false
	if cgroupPath, err := getCgroupPath(); err == nil {
		isSystemdService = strings.HasSuffix(path.Dir(cgroupPath), ".service")
	}

	var terminalHandler slog.Handler
	if !isSystemdService {
		terminalHandler = slog.NewTextHandler(writer, &slog.HandlerOptions{
			Level: level,
		})
		handlers = append(handlers, terminalHandler)
	}

	if _, err := os.Stat(journalSocket); err == nil || isSystemdService {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if terminalHandler != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
				record.Add("error", err)
				_ = terminalHandler.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return slog.New(&Handler{
		Handler: slogmulti.Fanout(handlers...),
	})
}

func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}

func getCgroupPath() (string, error) {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return "", err
	}
	parts := strings.Split(string(content), ":")
	if len(parts) >= 3 {
		return strings.TrimSpace(parts[2]), nil
	}
	return "", nil
}
