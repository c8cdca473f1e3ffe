package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/notify"
)

type SendCmd struct {
	flags   *Flags
	connect Connector

	appName      string
	icon         string
	image        string
	replaces     int
	timeout      int
	urgency      string
	desktopEntry string
	actions      []string
}

// NewSendCmd creates a new send command.
func NewSendCmd(flags *Flags, connect Connector) *SendCmd {
	return &SendCmd{flags: flags, connect: connect}
}

// Register adds the send command to the application.
func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Send a notification to the running server",
		UsageText: "notifyd send [options] <summary> [body]",
		Description: `Sends a notification through org.freedesktop.Notifications and prints its id.

Works against any notification server, not only notifyd.

Examples:
  notifyd send "Build finished"
  notifyd send -u critical -a make "Build failed" "see build.log"
  notifyd send --replaces 12 "Download 80%"
  notifyd send --image ./cover.png --action open,Open "Now playing"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "app-name",
				Aliases:     []string{"a"},
				Usage:       "application name",
				Value:       "notifyd",
				Destination: &cmd.appName,
			},
			&cli.StringFlag{
				Name:        "icon",
				Aliases:     []string{"i"},
				Usage:       "app icon path or name",
				Destination: &cmd.icon,
			},
			&cli.StringFlag{
				Name:        "image",
				Usage:       "image file sent as the image-path hint",
				Destination: &cmd.image,
			},
			&cli.IntFlag{
				Name:        "replaces",
				Aliases:     []string{"r"},
				Usage:       "id of the notification to replace",
				Destination: &cmd.replaces,
			},
			&cli.IntFlag{
				Name:        "timeout",
				Aliases:     []string{"t"},
				Usage:       "expire timeout in ms (-1 = server default, 0 = never)",
				Value:       -1,
				Destination: &cmd.timeout,
			},
			&cli.StringFlag{
				Name:        "urgency",
				Aliases:     []string{"u"},
				Usage:       "low, normal or critical",
				Value:       "normal",
				Destination: &cmd.urgency,
			},
			&cli.StringFlag{
				Name:        "desktop-entry",
				Usage:       "desktop file name of the sending application",
				Destination: &cmd.desktopEntry,
			},
			&cli.StringSliceFlag{
				Name:        "action",
				Usage:       "action as key,label (repeatable)",
				Destination: &cmd.actions,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SendCmd) run(_ context.Context, c *cli.Command) error {
	n, err := cmd.notification(c.Args().Slice())
	if err != nil {
		return fail(errmsg.OpSendNotification, err)
	}

	client, err := cmd.connect()
	if err != nil {
		return fail(errmsg.OpConnectBus, err)
	}

	id, err := client.Notify(n)
	if err != nil {
		return fail(errmsg.OpSendNotification, err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, id)
	return err
}

func (cmd *SendCmd) notification(args []string) (notify.Notification, error) {
	var n notify.Notification

	switch len(args) {
	case 0:
		return n, errors.New("summary is required")
	case 1:
	case 2:
		n.Body = args[1]
	default:
		return n, fmt.Errorf("expected <summary> [body], got %d arguments", len(args))
	}
	n.Title = args[0]

	urgency, err := parseUrgency(cmd.urgency)
	if err != nil {
		return n, err
	}

	if cmd.replaces < 0 {
		return n, errors.New("replaces id must not be negative")
	}
	if int64(cmd.replaces) > math.MaxUint32 {
		return n, fmt.Errorf("replaces id %d does not fit in 32 bits", cmd.replaces)
	}
	if cmd.timeout < math.MinInt32 || cmd.timeout > math.MaxInt32 {
		return n, fmt.Errorf("timeout %d ms is out of range", cmd.timeout)
	}

	actions := make([]string, 0, 2*len(cmd.actions))
	for _, a := range cmd.actions {
		key, label, ok := strings.Cut(a, ",")
		if !ok || key == "" {
			return n, fmt.Errorf("action %q is not key,label", a)
		}
		actions = append(actions, key, label)
	}

	n.AppName = cmd.appName
	n.Icon = cmd.icon
	n.ReplacesID = uint32(cmd.replaces) //nolint:gosec // range checked above
	n.Timeout = int32(cmd.timeout)      //nolint:gosec // range checked above
	n.Urgency = urgency
	n.DesktopEntry = cmd.desktopEntry
	n.Actions = actions

	if cmd.image != "" {
		path, err := filepath.Abs(cmd.image)
		if err != nil {
			return n, err
		}
		n.Hints = hint.Map{hint.KeyImagePath: hint.String(path)}
	}

	return n, nil
}

func parseUrgency(s string) (hint.Urgency, error) {
	switch strings.ToLower(s) {
	case "low", "0":
		return hint.UrgencyLow, nil
	case "", "normal", "1":
		return hint.UrgencyNormal, nil
	case "critical", "2":
		return hint.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("unknown urgency %q", s)
	}
}
