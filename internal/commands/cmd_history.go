package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/history"
	"github.com/miracleos/notifyd/internal/notification"
)

type HistoryCmd struct {
	flags *Flags
	now   func() time.Time

	last   int
	asJSON bool
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags, now: time.Now}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List recently received notifications",
		UsageText: "notifyd history [--last N] [--json]",
		Description: `Reads the history database written by the daemon, newest first.

Examples:
  notifyd history
  notifyd history --last 50
  notifyd history --json | jq '.[] | select(.open)'`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "last",
				Aliases:     []string{"n"},
				Usage:       "show only the last N notifications (0 = all)",
				Value:       20,
				Destination: &cmd.last,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print entries as JSON",
				Destination: &cmd.asJSON,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(_ context.Context, c *cli.Command) error {
	path := cmd.flags.Config.History.Path

	log, err := history.Open(path)
	if err != nil {
		return failWith(errmsg.OpOpenHistory, path, err)
	}
	defer log.Close()

	entries, err := log.Recent(cmd.last)
	if err != nil {
		return fail(errmsg.OpReadHistory, err)
	}

	if cmd.asJSON {
		return writeHistoryJSON(c.Root().Writer, entries)
	}
	return cmd.writeHistoryTable(c.Root().Writer, entries)
}

type historyJSON struct {
	ID          uint32     `json:"id"`
	App         string     `json:"app"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body,omitempty"`
	Urgency     int64      `json:"urgency"`
	Image       string     `json:"image,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
	Open        bool       `json:"open"`
}

func writeHistoryJSON(w io.Writer, entries []history.Entry) error {
	out := make([]historyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyJSON{
			ID:          e.NotificationID,
			App:         e.AppName,
			Summary:     e.Summary,
			Body:        e.Body,
			Urgency:     e.Urgency,
			Image:       e.Image,
			CreatedAt:   e.CreatedAt,
			ClosedAt:    e.ClosedAt,
			CloseReason: reasonName(e.CloseReason),
			Open:        e.Open(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (cmd *HistoryCmd) writeHistoryTable(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No notifications recorded")
		return err
	}

	now := cmd.now()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tAPP\tSUMMARY\tRECEIVED\tSTATUS")
	for _, e := range entries {
		status := "open"
		if !e.Open() {
			status = reasonName(e.CloseReason) + " " + humanize.RelTime(*e.ClosedAt, now, "ago", "from now")
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.NotificationID, e.AppName, e.Summary,
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"), status)
	}
	return tw.Flush()
}

func reasonName(reason *int64) string {
	if reason == nil {
		return ""
	}
	switch notification.Reason(*reason) { //nolint:gosec // stored from a Reason
	case history.ReasonReplaced:
		return "replaced"
	case notification.ReasonExpired:
		return "expired"
	case notification.ReasonDismissed:
		return "dismissed"
	case notification.ReasonClosedByCall:
		return "closed"
	default:
		return "undefined"
	}
}
