package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/config"
	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/export"
	"github.com/miracleos/notifyd/internal/history"
	"github.com/miracleos/notifyd/internal/imagestore"
	"github.com/miracleos/notifyd/internal/notification"
	"github.com/miracleos/notifyd/internal/notify"
	"github.com/miracleos/notifyd/internal/persist"
	"github.com/miracleos/notifyd/internal/pixbuf"
)

type RunCmd struct {
	flags *Flags
}

// NewRunCmd creates a new run command.
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application.
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "run",
		Usage: "Run the notification daemon",
		Description: `Claims org.freedesktop.Notifications on the session bus and serves
Notify, CloseNotification, GetCapabilities and GetServerInformation.

Open notifications are mirrored to notifications.json, notification_count and
eww_notifications.json in the configured directory after every change.

This is also what runs when notifyd is started without a command.`,
		Action: cmd.Run,
	})

	return app
}

// Run serves notifications until SIGINT or SIGTERM.
func (cmd *RunCmd) Run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fail(errmsg.OpConnectBus, err)
	}
	defer conn.Close()

	srv := notify.NewServer(conn, log.With().Str("component", "dbus").Logger())

	d := openDaemon(cfg, srv, log.Logger)
	defer d.Close()

	if err := srv.Serve(d.Store); err != nil {
		return serveError(err)
	}

	// Only the name owner writes the artifacts.
	d.Store.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}

func serveError(err error) error {
	if errors.Is(err, notify.ErrNameTaken) {
		return fail(errmsg.OpOwnName, err)
	}
	return fail(errmsg.OpServe, err)
}

// daemon is the wired engine and the resources it holds.
type daemon struct {
	Store   *notification.Store
	history *history.Log
}

// openDaemon builds the store from cfg without writing any artifact; call
// Store.Sync once the bus name is owned. A history database that cannot be
// opened is logged and skipped.
func openDaemon(cfg *config.Config, emitter notification.Emitter, logger zerolog.Logger) *daemon {
	d := &daemon{}

	opts := notification.Options{
		Images: imagestore.NewResolver(
			pixbuf.New(cfg.Images.MaxDimension),
			imagestore.New(cfg.ImageDir, logger.With().Str("component", "images").Logger()),
		),
		Persister: persist.New(cfg.StatePath(), cfg.CountPath(), cfg.NextIDPath()),
		Exporter:  export.New(cfg.ExportPath(), export.WithFallbackIcon(cfg.FallbackIcon)),
		Emitter:   emitter,
		Logger:    logger.With().Str("component", "store").Logger(),
		DeferSync: true,
	}

	if cfg.HistoryEnabled() {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("history log unavailable, continuing without it")
		} else {
			d.history = h
			opts.Recorder = h
		}
	}

	d.Store = notification.Open(opts)
	return d
}

func (d *daemon) Close() {
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			log.Error().Err(err).Msg("close history")
		}
	}
}
