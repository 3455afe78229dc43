package command

import (
	"errors"
	"net/url"

	"github.com/urfave/cli/v2"
)

// ProofCommand groups proof lookups.
func ProofCommand() *cli.Command {
	return &cli.Command{
		Name:  "proof",
		Usage: "Look up and verify proofs",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a stored proof",
				ArgsUsage: "<proof-hash>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					hash, err := requireArg(c, "proof hash")
					if err != nil {
						return err
					}
					var res proofResult
					if err := e.client.Get(e.ctx, "/api/proofs/"+url.PathEscape(hash), nil, &res); err != nil {
						return err
					}
					return e.print(&res)
				}),
			},
			{
				Name:      "verify",
				Usage:     "Verify a stored proof",
				ArgsUsage: "<proof-hash>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					hash, err := requireArg(c, "proof hash")
					if err != nil {
						return err
					}
					var res verifyResult
					if err := e.client.Post(e.ctx, "/api/proofs/"+url.PathEscape(hash)+"/verify", nil, &res); err != nil {
						return err
					}
					return e.print(&res)
				}),
			},
			{
				Name:      "metadata",
				Usage:     "Show proof age and validity",
				ArgsUsage: "<proof-hash>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					hash, err := requireArg(c, "proof hash")
					if err != nil {
						return err
					}
					var res metadataResult
					if err := e.client.Get(e.ctx, "/api/proofs/"+url.PathEscape(hash)+"/metadata", nil, &res); err != nil {
						return err
					}
					return e.print(&res)
				}),
			},
			{
				Name:      "verify-batch",
				Usage:     "Verify several proofs at once",
				ArgsUsage: "<proof-hash>...",
				Action: withEnv(func(c *cli.Context, e *env) error {
					hashes := c.Args().Slice()
					if len(hashes) == 0 {
						return errors.New("at least one proof hash required")
					}
					var res batchVerifyResult
					if err := e.client.Post(e.ctx, "/api/proofs/verify", map[string][]string{"hashes": hashes}, &res); err != nil {
						return err
					}
					return e.print(&res)
				}),
			},
		},
	}
}
