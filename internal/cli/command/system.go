package command

import (
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/cli/output"
	"github.com/zumicash/zumi-go/internal/infra/buildinfo"
)

// BalanceCommand shows public and shielded balances of an address.
func BalanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show the balances of an address",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Usage: "bypass the balance cache"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			addr, err := requireArg(c, "address")
			if err != nil {
				return err
			}
			var q url.Values
			if c.Bool("refresh") {
				q = url.Values{"refresh": {"true"}}
			}
			var res balanceResult
			if err := e.client.Get(e.ctx, "/api/balance/"+url.PathEscape(addr), q, &res); err != nil {
				return err
			}
			return e.print(&res)
		}),
	}
}

// StatsCommand prints the operation counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show operation counters",
		Action: withEnv(func(c *cli.Context, e *env) error {
			var res statsResult
			if err := e.client.Get(e.ctx, "/api/stats", nil, &res); err != nil {
				return err
			}
			return e.print(&res)
		}),
	}
}

// SweepCommand triggers an expired-session sweep. Requires an admin key
// unless --socket is used.
func SweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete expired sessions now (admin)",
		Action: withEnv(func(c *cli.Context, e *env) error {
			spin := output.NewSpinner(c.App.ErrWriter, "sweeping expired sessions")
			spin.Start()
			var res sweepResult
			if err := e.client.Post(e.ctx, "/admin/v1/gc/trigger", nil, &res); err != nil {
				spin.Fail("sweep failed")
				return err
			}
			spin.Success("sweep finished")
			return e.print(&res)
		}),
	}
}

// StatusCommand prints the server status summary (admin).
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show server status (admin)",
		Action: withEnv(func(c *cli.Context, e *env) error {
			var res statusResult
			if err := e.client.Get(e.ctx, "/admin/v1/status/summary", nil, &res); err != nil {
				return err
			}
			return e.print(&res)
		}),
	}
}

// HealthCommand checks liveness, or readiness with --ready.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the server is up",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ready", Usage: "check readiness (store reachable) instead of liveness"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			path := "/health"
			if c.Bool("ready") {
				path = "/ready"
			}
			var res map[string]any
			if err := e.client.Get(e.ctx, path, nil, &res); err != nil {
				return err
			}
			return e.print(res)
		}),
	}
}

// VersionCommand prints the CLI build.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			cfg, err := settings(c)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(cfg.Output)
			if err != nil {
				return err
			}
			return output.NewFormatter(format).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
