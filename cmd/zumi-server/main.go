package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/infra/buildinfo"
	"github.com/zumicash/zumi-go/internal/infra/confloader"
	"github.com/zumicash/zumi-go/internal/infra/shutdown"
	"github.com/zumicash/zumi-go/internal/server/config"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to configuration file",
		EnvVars: []string{"ZUMI_CONFIG"},
	}

	return &cli.App{
		Name:    "zumi-server",
		Usage:   "session and proof lifecycle service",
		Version: buildinfo.Get().Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the server",
				Flags:  []cli.Flag{configFlag},
				Action: serveAction,
			},
			{
				Name:   "hash-key",
				Usage:  "generate an admin API key and its hash for security.admin_key_hashes",
				Action: hashKeyAction,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, "zumi-server", buildinfo.String())
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}
}

func serveAction(c *cli.Context) error {
	loader := confloader.NewLoader(confloader.WithConfigFile(c.String("config")))
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     os.Stdout,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer logger.Sync()

	info := buildinfo.Get()
	log.Info("starting zumi-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	sd := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)
	if err := a.start(ctx, sd); err != nil {
		sd.Trigger()
		_ = sd.Wait(ctx)
		return err
	}
	watchConfig(loader, sd, log)

	log.Info("server started")
	if err := sd.Wait(ctx); err != nil {
		log.Error("shutdown finished with errors", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func hashKeyAction(c *cli.Context) error {
	key, hash, err := service.GenerateAdminKey()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "key:  %s\nhash: %s\n", key, hash)
	return nil
}

func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig applies log.level changes from the config file without a
// restart. Other settings need a restart.
func watchConfig(loader *confloader.Loader, sd *shutdown.Handler, log logger.Logger) {
	path := loader.FilePath()
	if path == "" {
		return
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return
	}
	if err := w.Watch(path); err != nil {
		log.Warn("config watcher unavailable", "path", path, "error", err)
		w.Stop()
		return
	}
	w.OnChange(func(string) {
		cfg, err := loadConfig(confloader.NewLoader(confloader.WithConfigFile(path)))
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	sd.OnShutdown("config-watcher", func(context.Context) error {
		return w.Stop()
	})
}
