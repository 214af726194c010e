package cmds

import (
	"bytes"
	"strings"
	"testing"
)

func TestUsage(t *testing.T) {
	executor := NewExecutor()
	executor.Define("run", Func(func(path string, args ...string) {
	}).Desc("run a script"))
	executor.Define("repl", Sub(map[string]*Command{
		"quiet": Func(func() {}).Desc("QUIET"),
	}).Desc("interactive").Alias("shell"))

	buf := new(bytes.Buffer)
	executor.WriteUsage(buf)
	out := buf.String()
	if !strings.Contains(out, "run <string> [string...]\trun a script") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "repl, shell\tinteractive") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "  quiet\tQUIET") {
		t.Fatalf("got %s", out)
	}
	if strings.Count(out, "interactive") != 1 {
		t.Fatalf("aliases should share one line: %s", out)
	}
}
