package cmds

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

func (p *Executor) PrintUsage() {
	p.WriteUsage(os.Stderr)
}

// WriteUsage lists commands sorted by name; aliases share one line.
func (p *Executor) WriteUsage(w io.Writer) {
	writeCommands(w, p.commands, 0)
}

func writeCommands(w io.Writer, commands map[string]*Command, depth int) {
	seen := make(map[*Command]bool)
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	indent := strings.Repeat("  ", depth)
	for _, name := range names {
		command := commands[name]
		if command == nil || seen[command] || slices.Contains(command.Aliases, name) {
			continue
		}
		seen[command] = true
		label := name
		if len(command.Aliases) > 0 {
			label += ", " + strings.Join(command.Aliases, ", ")
		}
		if command.Func.IsValid() {
			t := command.Func.Type()
			for i := range t.NumIn() {
				if t.IsVariadic() && i == t.NumIn()-1 {
					label += fmt.Sprintf(" [%s...]", t.In(i).Elem())
				} else {
					label += fmt.Sprintf(" <%s>", t.In(i))
				}
			}
		}
		if command.Description != "" {
			fmt.Fprintf(w, "%s%s\t%s\n", indent, label, command.Description)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, label)
		}
		if len(command.Subs) > 0 {
			writeCommands(w, command.Subs, depth+1)
		}
	}
}
