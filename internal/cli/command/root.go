package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/cli/config"
	"github.com/zumicash/zumi-go/internal/cli/connection"
	"github.com/zumicash/zumi-go/internal/cli/output"
	"github.com/zumicash/zumi-go/internal/infra/buildinfo"
)

// App creates the zumi-cli application.
func App() *cli.App {
	app := &cli.App{
		Name:    "zumi-cli",
		Usage:   "command-line client for zumi-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			OperationCommand("shield", "Shield funds into the privacy pool"),
			OperationCommand("unshield", "Unshield funds back to a public address"),
			OperationCommand("transfer", "Private transfer inside the pool"),
			OperationCommand("mixer", "Route funds through the mixer"),
			OperationCommand("bridge", "Bridge funds to another network"),
			SessionCommand(),
			ProofCommand(),
			BalanceCommand(),
			StatsCommand(),
			SweepCommand(),
			StatusCommand(),
			HealthCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
	app.Commands = append(app.Commands, ShellCommand())
	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI configuration file",
			EnvVars: []string{"ZUMI_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "zumi-server base URL",
			EnvVars: []string{"ZUMI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"K"},
			Usage:   "admin API key",
			EnvVars: []string{"ZUMI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "socket",
			Usage:   "local management socket (bypasses --server)",
			EnvVars: []string{"ZUMI_SOCKET"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			EnvVars: []string{"ZUMI_OUTPUT"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "request timeout",
			EnvVars: []string{"ZUMI_TIMEOUT"},
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
	}
}

// settings merges flags and environment over the config file.
func settings(c *cli.Context) (*config.CLIConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("api-key") {
		cfg.APIKey = c.String("api-key")
	}
	if c.IsSet("socket") {
		cfg.Socket = c.String("socket")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	return cfg, nil
}

// env is what an action needs to talk to the server and print.
type env struct {
	cfg    *config.CLIConfig
	client *connection.Client
	format output.Format
	out    io.Writer
	ctx    context.Context
}

func newEnv(c *cli.Context) (*env, context.CancelFunc, error) {
	cfg, err := settings(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Socket == "" {
		if err := config.Validate(cfg); err != nil {
			return nil, nil, err
		}
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, nil, err
	}

	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.Timeout)

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	return &env{
		cfg: cfg,
		client: connection.New(connection.Options{
			Server:   cfg.Server,
			APIKey:   cfg.APIKey,
			Socket:   cfg.Socket,
			Timeout:  cfg.Timeout,
			Insecure: c.Bool("insecure"),
		}),
		format: format,
		out:    out,
		ctx:    ctx,
	}, cancel, nil
}

func (e *env) print(v any) error {
	return output.NewFormatter(e.format).Format(e.out, v)
}

// withEnv adapts an action taking an env.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, cancel, err := newEnv(c)
		if err != nil {
			return err
		}
		defer cancel()
		return fn(c, e)
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := c.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s required", name)
	}
	return v, nil
}
