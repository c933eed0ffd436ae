package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "harbord",
		Usage:   "chat moderation daemon (censorship and spam grouping)",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-path",
			Usage:   "file path for the sqlite configuration database",
			Value:   "data/harbord/moderation.db",
			EnvVars: []string{"HARBOR_DATABASE_PATH"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters and status refs; in-memory when empty",
			EnvVars: []string{"HARBOR_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "status-webhook-url",
			Usage:   "incoming webhook for spam group status messages",
			EnvVars: []string{"HARBOR_STATUS_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"HARBOR_METRICS_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "circulating-size",
			Usage:   "capacity of the circulating spam group window",
			Value:   10,
			EnvVars: []string{"HARBOR_CIRCULATING_SIZE"},
		},
		&cli.DurationFlag{
			Name:    "circulating-window",
			Usage:   "expiration window for circulating groups",
			Value:   5 * time.Minute,
			EnvVars: []string{"HARBOR_CIRCULATING_WINDOW"},
		},
		&cli.DurationFlag{
			Name:    "archive-window",
			Usage:   "expiration window for archived groups",
			Value:   time.Hour,
			EnvVars: []string{"HARBOR_ARCHIVE_WINDOW"},
		},
		&cli.DurationFlag{
			Name:    "sweep-interval",
			Usage:   "how often to sweep expired groups",
			Value:   time.Minute,
			EnvVars: []string{"HARBOR_SWEEP_INTERVAL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(logger, ServerConfig{
			DatabasePath:      cctx.String("database-path"),
			RedisURL:          cctx.String("redis-url"),
			StatusWebhookURL:  cctx.String("status-webhook-url"),
			CirculatingSize:   cctx.Int("circulating-size"),
			CirculatingWindow: cctx.Duration("circulating-window"),
			ArchiveWindow:     cctx.Duration("archive-window"),
			SweepInterval:     cctx.Duration("sweep-interval"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}
