package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/league-sim/app"
	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "leaguesim",
		Usage: "simulate league game days",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the environment is read"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			playCommand(),
			exportCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the dotenv file, if present, then the config file and environment.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return config.LoadConfig(c.String("config"))
}

// newApp builds the app for a one-shot command. The caller must Close it.
func newApp(c *cli.Context) (*app.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return app.NewApp(c.Context, cfg, app.NewLogger(cfg.Observability), false)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the control API, the play queue and auto-play",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApp(ctx, cfg, app.NewLogger(cfg.Observability), true)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			return application.Start(ctx)
		},
	}
}

func withApp(fn func(ctx context.Context, a *app.App, c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(c.Context, a, c)
	}
}
