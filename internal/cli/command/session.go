package command

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/cli/output"
)

// SessionCommand groups session lookups and lifecycle updates.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Inspect and drive operation sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a session",
				ArgsUsage: "<session-id>",
				Action:    withEnv(sessionGet),
			},
			{
				Name:  "list",
				Usage: "List sessions of an owner",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Usage: "owner wallet address", Required: true},
				},
				Action: withEnv(sessionList),
			},
			{
				Name:      "status",
				Usage:     "Move a session to a new status",
				ArgsUsage: "<session-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "target status", Required: true},
					&cli.StringFlag{Name: "tx", Usage: "transaction signature"},
					&cli.Uint64Flag{Name: "expected-version", Usage: "reject if the session changed since this version"},
				},
				Action: withEnv(sessionStatus),
			},
			{
				Name:      "submit",
				Usage:     "Submit a signed transaction for a session",
				ArgsUsage: "<session-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tx-file", Usage: "file with the signed transaction (raw or base64)", Required: true},
				},
				Action: withEnv(sessionSubmit),
			},
			{
				Name:      "sync",
				Usage:     "Reconcile a session with the chain",
				ArgsUsage: "<session-id>",
				Action:    withEnv(sessionSync),
			},
		},
	}
}

func sessionGet(c *cli.Context, e *env) error {
	id, err := requireArg(c, "session id")
	if err != nil {
		return err
	}
	var res sessionResult
	if err := e.client.Get(e.ctx, "/api/privacy/sessions/"+url.PathEscape(id), nil, &res); err != nil {
		return err
	}
	return e.print(&res)
}

func sessionList(c *cli.Context, e *env) error {
	var res sessionListResult
	q := url.Values{"ownerAddress": {c.String("owner")}}
	if err := e.client.Get(e.ctx, "/api/privacy/sessions", q, &res); err != nil {
		return err
	}
	return e.print(&res)
}

func sessionStatus(c *cli.Context, e *env) error {
	id, err := requireArg(c, "session id")
	if err != nil {
		return err
	}
	body := map[string]any{"status": c.String("status")}
	if v := c.String("tx"); v != "" {
		body["txSignature"] = v
	}
	if v := c.Uint64("expected-version"); v > 0 {
		body["expectedVersion"] = v
	}
	var res sessionResult
	if err := e.client.Post(e.ctx, "/api/privacy/sessions/"+url.PathEscape(id)+"/status", body, &res); err != nil {
		return err
	}
	return e.print(&res)
}

func sessionSubmit(c *cli.Context, e *env) error {
	id, err := requireArg(c, "session id")
	if err != nil {
		return err
	}
	tx, err := readTransaction(c.String("tx-file"))
	if err != nil {
		return err
	}

	spin := output.NewSpinner(c.App.ErrWriter, "submitting transaction")
	spin.Start()
	var res syncResult
	err = e.client.Post(e.ctx, "/api/privacy/sessions/"+url.PathEscape(id)+"/submit",
		map[string]string{"transaction": tx}, &res)
	if err != nil {
		spin.Fail("submit failed")
		return err
	}
	spin.Success("submitted")
	return e.print(&res)
}

func sessionSync(c *cli.Context, e *env) error {
	id, err := requireArg(c, "session id")
	if err != nil {
		return err
	}
	var res syncResult
	if err := e.client.Post(e.ctx, "/api/privacy/sessions/"+url.PathEscape(id)+"/sync", nil, &res); err != nil {
		return err
	}
	return e.print(&res)
}

// readTransaction returns the file content as base64. Content that
// already decodes as base64 is passed through.
func readTransaction(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read transaction: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("transaction file %s is empty", path)
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return s, nil
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
