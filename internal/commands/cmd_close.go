package commands

import (
	"context"
	"errors"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/notification"
)

type CloseCmd struct {
	flags   *Flags
	connect Connector

	all bool
}

// NewCloseCmd creates a new close command.
func NewCloseCmd(flags *Flags, connect Connector) *CloseCmd {
	return &CloseCmd{flags: flags, connect: connect}
}

// Register adds the close command to the application.
func (cmd *CloseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "close",
		Usage:     "Close a notification by id",
		UsageText: "notifyd close <id> | notifyd close --all",
		Description: `Calls CloseNotification on the running server.

With --all, sends the close-all id (4294967295), which notifyd treats as
clearing every open notification.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "close every open notification",
				Destination: &cmd.all,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CloseCmd) run(_ context.Context, c *cli.Command) error {
	id := notification.CloseAll
	if !cmd.all {
		if c.NArg() != 1 {
			return fail(errmsg.OpCloseNotification, errors.New("expected one id or --all"))
		}
		arg := c.Args().Get(0)
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return failWith(errmsg.OpParseID, arg, err)
		}
		id = uint32(n)
	}

	client, err := cmd.connect()
	if err != nil {
		return fail(errmsg.OpConnectBus, err)
	}

	if err := client.Close(id); err != nil {
		return failWith(errmsg.OpCloseNotification, strconv.FormatUint(uint64(id), 10), err)
	}
	return nil
}
