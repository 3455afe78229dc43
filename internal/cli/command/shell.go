package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/cli/repl"
)

// ShellCommand starts an interactive session that runs zumi-cli
// commands line by line with the current global flags.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history-file", Usage: "history file", Value: repl.DefaultHistoryFile()},
		},
		Action: func(c *cli.Context) error {
			app := c.App
			global := inheritedFlags(c)

			run := func(ctx context.Context, args []string) error {
				if len(args) > 0 && args[0] == "shell" {
					return errors.New("already in a shell")
				}
				argv := append([]string{app.Name}, global...)
				return app.RunContext(ctx, append(argv, args...))
			}

			history := repl.NewHistory(c.String("history-file"), 0)
			if err := history.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(app.ErrWriter, "history: %v\n", err)
			}
			defer func() {
				if err := history.Save(); err != nil {
					fmt.Fprintf(app.ErrWriter, "history: %v\n", err)
				}
			}()

			in := app.Reader
			if in == nil {
				in = os.Stdin
			}
			r := repl.New(run,
				repl.WithIO(in, app.Writer),
				repl.WithHistory(history),
				repl.WithCompleter(repl.NewCompleter(commandPaths(app.Commands, ""))),
			)
			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return r.Run(ctx)
		},
	}
}

// inheritedFlags re-renders the global flags set on the shell invocation.
func inheritedFlags(c *cli.Context) []string {
	var args []string
	for _, name := range []string{"config", "server", "api-key", "socket", "output"} {
		if c.IsSet(name) {
			args = append(args, "--"+name+"="+c.String(name))
		}
	}
	if c.IsSet("timeout") {
		args = append(args, "--timeout="+c.Duration("timeout").String())
	}
	if c.Bool("insecure") {
		args = append(args, "--insecure")
	}
	return args
}

func commandPaths(cmds []*cli.Command, prefix string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		path := strings.TrimSpace(prefix + " " + cmd.Name)
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}
