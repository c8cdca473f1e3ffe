//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/notification"
)

// dbusNotifier sends notifications via D-Bus.
type dbusNotifier struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// New creates a Notifier that talks to the server owning BusName on the
// shared session bus connection.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}

	obj := conn.Object(BusName, ObjectPath)
	return &dbusNotifier{conn: conn, obj: obj}, nil
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints := make(hint.Map, len(notif.Hints)+2)
	for k, v := range notif.Hints {
		hints[k] = v
	}
	hints[hint.KeyUrgency] = hint.Int(int64(notif.Urgency))
	if notif.DesktopEntry != "" {
		hints[hint.KeyDesktopEntry] = hint.String(notif.DesktopEntry)
	}

	actions := notif.Actions
	if actions == nil {
		actions = []string{}
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		Interface+".Notify",
		0,
		notif.AppName,
		notif.ReplacesID,
		notif.Icon,
		notif.Title,
		notif.Body,
		actions,
		hintsToDBus(hints),
		notif.Timeout,
	)

	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	call := n.obj.Call(Interface+".CloseNotification", 0, id)
	return call.Err
}

func (n *dbusNotifier) Capabilities() ([]string, error) {
	var caps []string
	if err := n.obj.Call(Interface+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, err
	}
	return caps, nil
}

func (n *dbusNotifier) ServerInformation() (notification.ServerInfo, error) {
	var info notification.ServerInfo
	err := n.obj.Call(Interface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	return info, err
}
