package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/Black-And-White-Club/league-sim/app"
	phaseservice "github.com/Black-And-White-Club/league-sim/app/modules/phase/application"
	simservice "github.com/Black-And-White-Club/league-sim/app/modules/sim/application"
	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	simqueue "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/queue"
	simdb "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories"
	simmigrations "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/repositories/migrations"
	simseed "github.com/Black-And-White-Club/league-sim/app/modules/sim/infrastructure/seed"
	"github.com/Black-And-White-Club/league-sim/config"
	"github.com/Black-And-White-Club/league-sim/db/bundb"
	"github.com/Black-And-White-Club/league-sim/pkg/jwt"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	// Migrations only need the database, not the whole app.
	withMigrator := func(fn func(c *cli.Context, cfg *config.Config, m *migrate.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := bundb.Open(c.Context, *cfg, app.NewLogger(cfg.Observability))
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(c, cfg, migrate.NewMigrator(db, simmigrations.Migrations))
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, _ *config.Config, m *migrate.Migrator) error {
					return m.Init(c.Context)
				}),
			},
			{
				Name:  "up",
				Usage: "migrate the league tables and, on postgres, the job queue",
				Action: withMigrator(func(c *cli.Context, cfg *config.Config, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new migrations to run")
					} else {
						fmt.Printf("Migrated to %s\n", group)
					}
					if cfg.Database.Driver == "postgres" {
						return simqueue.Migrate(c.Context, cfg.Postgres.DSN, app.NewLogger(cfg.Observability))
					}
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: withMigrator(func(c *cli.Context, _ *config.Config, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No groups to roll back")
					} else {
						fmt.Printf("Rolled back %s\n", group)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withMigrator(func(c *cli.Context, _ *config.Config, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("  Applied: %s\n", ms.Applied())
					fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					return nil
				}),
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "generate a random league and schedule its regular season",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "season", Value: 2025},
			&cli.IntFlag{Name: "teams", Value: 8},
			&cli.IntFlag{Name: "groups", Value: 2},
			&cli.IntFlag{Name: "free-agents", Value: 40},
			&cli.IntSliceFlag{Name: "user-tid", Usage: "teams controlled by people"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed, 0 picks one"},
		},
		Action: withApp(func(ctx context.Context, a *app.App, c *cli.Context) error {
			seed := c.Uint64("seed")
			if seed == 0 {
				seed = rand.Uint64()
			}
			settings := simservice.SettingsFromConfig(a.Config.Simulation)
			repo := simdb.NewRepository(a.DB)

			err := simseed.NewSeeder(repo, seed, a.Logger).Seed(ctx, a.DB, simseed.Options{
				LeagueID:   a.Config.NATS.LeagueID,
				Season:     c.Int("season"),
				Teams:      c.Int("teams"),
				Groups:     c.Int("groups"),
				FreeAgents: c.Int("free-agents"),
				UserTIDs:   c.IntSlice("user-tid"),
				Scale:      settings.SalaryCapScale(),
			})
			if err != nil {
				return err
			}

			lc := &simdomain.LeagueContext{
				LeagueID: a.Config.NATS.LeagueID,
				Season:   c.Int("season"),
				Phase:    simdomain.PhasePreseason,
				UserTIDs: c.IntSlice("user-tid"),
				Settings: settings,
			}
			phases := phaseservice.NewPhaseService(repo, a.Logger, rand.New(rand.NewPCG(seed, seed)))
			if err := phases.NewPhase(ctx, a.DB, lc, simdomain.PhaseRegularSeason, simdomain.Conditions{Source: "cli"}, false); err != nil {
				return fmt.Errorf("failed to start regular season: %w", err)
			}
			fmt.Printf("Seeded %d teams for season %d (seed %d)\n", c.Int("teams"), c.Int("season"), seed)
			return nil
		}),
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "simulate game days in this process",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 1},
		},
		Action: withApp(func(ctx context.Context, a *app.App, c *cli.Context) error {
			result, err := a.SimModule.GetService().Play(ctx, simservice.PlayRequest{
				NumDays: c.Int("days"),
				Start:   true,
				Source:  "cli",
			})
			if err != nil {
				return err
			}
			if result.IsFailure() {
				return *result.Failure
			}
			return json.NewEncoder(os.Stdout).Encode(result.Success)
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a season report to a file",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "season", Required: true},
			&cli.BoolFlag{Name: "playoffs"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "*.xlsx for stats, *.png for the standings chart"},
		},
		Action: withApp(func(ctx context.Context, a *app.App, c *cli.Context) error {
			out := c.String("out")
			exporter := a.SimModule.GetExporter()

			var data []byte
			var err error
			switch {
			case strings.HasSuffix(out, ".xlsx"):
				data, err = exporter.SeasonStatsXLSX(ctx, c.Int("season"), c.Bool("playoffs"))
			case strings.HasSuffix(out, ".png"):
				data, err = exporter.StandingsPNG(ctx, c.Int("season"))
			default:
				return fmt.Errorf("unsupported output %q, want .xlsx or .png", out)
			}
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0o644)
		}),
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a control API token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true},
			&cli.StringFlag{Name: "role", Value: string(jwt.RoleViewer), Usage: "viewer or commissioner"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			role := jwt.Role(c.String("role"))
			if role != jwt.RoleViewer && role != jwt.RoleCommissioner {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL).GenerateToken(c.String("subject"), cfg.NATS.LeagueID, role, 0)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
