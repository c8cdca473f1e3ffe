// Package notify exposes the notification engine on the session bus and
// provides a client for talking to whichever server owns the bus name.
package notify

import (
	"errors"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/notification"
)

const (
	BusName    = "org.freedesktop.Notifications"
	ObjectPath = "/org/freedesktop/Notifications"
	Interface  = "org.freedesktop.Notifications"

	signalClosed = Interface + ".NotificationClosed"
)

var (
	// ErrNameTaken is returned by Serve when another process owns BusName.
	ErrNameTaken = errors.New("bus name already owned by another process")
	// ErrUnavailable is returned by the client where no session bus exists.
	ErrUnavailable = errors.New("session bus not available on this platform")
)

// Engine is the notification store served over the bus.
type Engine interface {
	Notify(req notification.Request) uint32
	Close(id uint32) bool
	Capabilities() []string
	ServerInfo() notification.ServerInfo
}

// Notification contains data for a desktop notification sent by the client.
type Notification struct {
	AppName    string
	Title      string       // Summary text (required)
	Body       string       // Body text (optional, supports basic markup)
	Icon       string       // Path to image file or icon name (optional)
	Actions    []string     // key/label pairs
	Hints      hint.Map     // extra hints, merged under Urgency and DesktopEntry
	Timeout    int32        // ms, -1 = server default, 0 = never expire
	ReplacesID uint32       // 0 = new notification, >0 = replace existing
	Urgency    hint.Urgency // Low, Normal, Critical

	DesktopEntry string
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID. notification.CloseAll clears every one.
	Close(id uint32) error
	// Capabilities lists the server's capability strings.
	Capabilities() ([]string, error)
	// ServerInformation identifies the server.
	ServerInformation() (notification.ServerInfo, error)
}
