package command

import (
	"github.com/urfave/cli/v2"
)

// OperationCommand creates a command that starts a privacy operation of
// the given type (shield, unshield, transfer, mixer, bridge).
func OperationCommand(opType, usage string) *cli.Command {
	return &cli.Command{
		Name:  opType,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "owner wallet address", Required: true},
			&cli.Float64Flag{Name: "amount", Usage: "amount to move", Required: true},
			&cli.StringFlag{Name: "mint", Usage: "SPL token mint (default SOL)"},
			&cli.StringFlag{Name: "recipient", Usage: "recipient address"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			body := map[string]any{
				"ownerAddress": c.String("owner"),
				"amount":       c.Float64("amount"),
			}
			if v := c.String("mint"); v != "" {
				body["tokenMint"] = v
			}
			if v := c.String("recipient"); v != "" {
				body["recipient"] = v
			}
			var res createResult
			if err := e.client.Post(e.ctx, "/api/privacy/"+opType, body, &res); err != nil {
				return err
			}
			return e.print(&res)
		}),
	}
}
