package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chatrelay/chat-relay/config"
)

const (
	ServiceName      = "chat-relay"
	ServiceNamespace = "chatrelay"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

// Run is the CLI entrypoint: `chat-relay server` runs the daemon,
// `chat-relay top` attaches a termui dashboard to a running one.
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "chat message delivery service",
		Commands: []*cli.Command{
			serverCmd(),
			topCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "run the gRPC delivery server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the configuration file",
			},
			&cli.BoolFlag{
				Name:  "daemon",
				Usage: "suppress the foreground stderr fallback logger (requires logger.log_file in config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.Bool("daemon") && cfg.Logger.LogFile == "" {
				return fmt.Errorf("cmd: --daemon requires logger.log_file to be set")
			}

			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("chat-relay: shutting down")
			return app.Stop(context.Background())
		},
	}
}
