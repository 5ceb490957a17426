package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderpulse/notify-service/config"
	"github.com/orderpulse/notify-service/internal/channel"
	"github.com/orderpulse/notify-service/internal/monitor"
	"github.com/orderpulse/notify-service/internal/orders"
	"github.com/orderpulse/notify-service/internal/poller"
	"github.com/urfave/cli/v2"
)

const (
	ServiceName      = "notify-service"
	ServiceNamespace = "orderpulse"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Realtime order notification service for the OrderPulse dashboard",
		Commands: []*cli.Command{
			serverCmd(),
			watchCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the notification fan-out server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			return app.Stop(context.Background())
		},
	}
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Run the terminal dashboard against a notification server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := NewLogger(cfg)

			ch := channel.NewClient(channel.Config{
				Origin:               cfg.API.Origin,
				ProbeInterval:        cfg.Channel.ProbeInterval,
				ReconnectDelay:       cfg.Channel.ReconnectDelay,
				MaxReconnectAttempts: cfg.Channel.MaxReconnectAttempts,
			}, logger)

			fetcher := orders.NewClient(cfg.API.Origin, logger)
			dash := monitor.New(ch, fetcher, poller.Config{
				Interval: cfg.Poller.Interval,
				Window:   time.Duration(cfg.Poller.WindowMinutes) * time.Minute,
			}, logger)

			return dash.Run(c.Context)
		},
	}
}
