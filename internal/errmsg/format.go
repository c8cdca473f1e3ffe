// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Daemon startup
	OpLoadConfig   Op = "load configuration"
	OpSetupLogging Op = "set up logging"
	OpConnectBus   Op = "connect to session bus"
	OpOwnName      Op = "own bus name"
	OpOpenHistory  Op = "open notification history"
	OpServe        Op = "serve notifications"

	// Client operations
	OpSendNotification  Op = "send notification"
	OpCloseNotification Op = "close notification"
	OpQueryServer       Op = "query notification server"

	// History
	OpReadHistory Op = "read notification history"

	// Argument parsing
	OpParseID Op = "parse notification id"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
