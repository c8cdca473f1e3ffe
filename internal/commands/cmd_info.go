package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/errmsg"
)

type InfoCmd struct {
	flags   *Flags
	connect Connector
}

// NewInfoCmd creates a new info command.
func NewInfoCmd(flags *Flags, connect Connector) *InfoCmd {
	return &InfoCmd{flags: flags, connect: connect}
}

// Register adds the info command to the application.
func (cmd *InfoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "info",
		Usage:  "Show the running server's identity and capabilities",
		Action: cmd.run,
	})

	return app
}

func (cmd *InfoCmd) run(_ context.Context, c *cli.Command) error {
	client, err := cmd.connect()
	if err != nil {
		return fail(errmsg.OpConnectBus, err)
	}

	info, err := client.ServerInformation()
	if err != nil {
		return fail(errmsg.OpQueryServer, err)
	}
	caps, err := client.Capabilities()
	if err != nil {
		return fail(errmsg.OpQueryServer, err)
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintf(w, "name:         %s\n", info.Name)
	_, _ = fmt.Fprintf(w, "vendor:       %s\n", info.Vendor)
	_, _ = fmt.Fprintf(w, "version:      %s\n", info.Version)
	_, _ = fmt.Fprintf(w, "spec:         %s\n", info.SpecVersion)
	_, err = fmt.Fprintf(w, "capabilities: %s\n", strings.Join(caps, ", "))
	return err
}
