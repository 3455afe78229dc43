package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/cli/config"
	"github.com/zumicash/zumi-go/internal/cli/output"
)

// ConfigCommand manages the CLI configuration file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI configuration file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: configInit,
			},
			{
				Name:   "validate",
				Usage:  "Check the effective configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := settings(c)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	shown := *cfg
	if shown.APIKey != "" {
		shown.APIKey = maskKey(shown.APIKey)
	}
	return output.NewFormatter(format).Format(c.App.Writer, map[string]any{
		"path":    c.String("config"),
		"server":  shown.Server,
		"api_key": shown.APIKey,
		"socket":  shown.Socket,
		"output":  shown.Output,
		"timeout": shown.Timeout.String(),
	})
}

func configInit(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg, err := settings(c)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func configValidate(c *cli.Context) error {
	cfg, err := settings(c)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "configuration is valid")
	return nil
}

func maskKey(key string) string {
	if len(key) <= 9 {
		return "****"
	}
	return key[:5] + "****" + key[len(key)-4:]
}
