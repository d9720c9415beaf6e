package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	pkgconfig "github.com/starford/folio/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

// loadConfig reads the YAML file when present and overlays the environment.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func withConfig(fn func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, []internal.Option{internal.WithConfig(cfg)})
	}
}

func serve(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "folio",
		Usage:  "Sync a Notion-authored portfolio into a static snapshot and serve it behind a password gate",
		Action: withConfig(serve),
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Extract every collection from Notion and rewrite the snapshot",
				Flags: []cli.Flag{configFlag()},
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
					return internal.Sync(ctx, opts...)
				}),
			},
			{
				Name:   "serve",
				Usage:  "Serve the site, its API and live catalog updates",
				Flags:  []cli.Flag{configFlag()},
				Action: withConfig(serve),
			},
			{
				Name:  "mcp",
				Usage: "Expose the catalog read-only to MCP clients over stdio",
				Flags: []cli.Flag{configFlag()},
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
					return internal.ServeMCP(ctx, opts...)
				}),
			},
			{
				Name:  "status",
				Usage: "Show recent sync runs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of runs to show", Value: 10},
				},
				Action: withConfig(func(ctx context.Context, cmd *cli.Command, opts []internal.Option) error {
					return internal.Status(ctx, int(cmd.Int("limit")), opts...)
				}),
			},
			{
				Name:  "relink",
				Usage: "Rescan local project image folders and rewrite image lists in the snapshot",
				Flags: []cli.Flag{configFlag()},
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts []internal.Option) error {
					return internal.Relink(ctx, opts...)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
