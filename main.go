package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/commands"
	"github.com/miracleos/notifyd/internal/config"
	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/logutils"
	"github.com/miracleos/notifyd/internal/notify"
)

// Populated at build-time via -ldflags.
var version = "dev"

func build() string {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				return mv
			}
		}
	}
	return version
}

func main() {
	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "notifyd",
		Usage:     "Desktop notification daemon for eww",
		UsageText: "notifyd [global options] [command [command options]]",
		Description: `notifyd implements org.freedesktop.Notifications and mirrors open
notifications to files an eww bar can read.

Run 'notifyd' with no command to start the daemon.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file, read after the default locations",
				Sources:     cli.EnvVars("NOTIFYD_CONFIG"),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error), overrides the config file",
				Sources:     cli.EnvVars("NOTIFYD_LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file, overrides the config file (default: stderr)",
				Sources:     cli.EnvVars("NOTIFYD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, errors.New(errmsg.Format(errmsg.OpLoadConfig, err))
			}
			if flags.LogLevel != "" {
				cfg.Log.Level = flags.LogLevel
			}
			if flags.LogFile != "" {
				cfg.Log.File = flags.LogFile
			}
			flags.Config = cfg

			logger, closer, err := logutils.New(logutils.Options{
				Level:      cfg.Log.Level,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			if err != nil {
				return ctx, errors.New(errmsg.Format(errmsg.OpSetupLogging, err))
			}
			log.Logger = logger
			logCloser = closer

			return ctx, nil
		},
		After: func(context.Context, *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	runCmd := commands.NewRunCmd(flags)

	app = runCmd.Register(app)
	app = commands.NewSendCmd(flags, notify.New).Register(app)
	app = commands.NewCloseCmd(flags, notify.New).Register(app)
	app = commands.NewInfoCmd(flags, notify.New).Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)

	// Run the daemon when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'notifyd --help' for usage", c.Args().First())
		}
		return runCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}

	os.Exit(exitCode)
}
