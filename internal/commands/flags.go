// Package commands implements the notifyd command line.
package commands

import (
	"github.com/miracleos/notifyd/internal/config"
	"github.com/miracleos/notifyd/internal/errmsg"
	"github.com/miracleos/notifyd/internal/notify"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// Connector opens a client to the running notification server.
type Connector func() (notify.Notifier, error)

// opError pairs a failure with the operation that produced it so the
// message reads like the rest of the user-facing errors.
type opError struct {
	op  errmsg.Op
	ctx string
	err error
}

func fail(op errmsg.Op, err error) error {
	return &opError{op: op, err: err}
}

func failWith(op errmsg.Op, context string, err error) error {
	return &opError{op: op, ctx: context, err: err}
}

func (e *opError) Error() string { return errmsg.FormatWith(e.op, e.ctx, e.err) }
func (e *opError) Unwrap() error { return e.err }
