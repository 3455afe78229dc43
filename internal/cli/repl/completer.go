package repl

import (
	"sort"
	"strings"
)

// Completer matches command paths by prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over command paths such as
// "session get". exit, quit and history are always included.
func NewCompleter(commands []string) *Completer {
	all := append([]string{"exit", "quit", "history"}, commands...)
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the command paths starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
