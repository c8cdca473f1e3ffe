package notify

import (
	"fmt"
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog"

	"github.com/miracleos/notifyd/internal/notification"
)

// Server owns BusName on a connection and dispatches calls to an Engine.
type Server struct {
	conn *dbus.Conn
	log  zerolog.Logger
}

// NewServer creates a Server on conn. Pass it to notification.Open as the
// Emitter, then call Serve with the resulting store.
func NewServer(conn *dbus.Conn, logger zerolog.Logger) *Server {
	return &Server{conn: conn, log: logger}
}

// Serve exports the interface and requests BusName. It returns
// ErrNameTaken if another daemon is running.
func (s *Server) Serve(engine Engine) error {
	h := &handler{engine: engine, log: s.log}

	if err := s.conn.Export(h, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export %s: %w", Interface, err)
	}

	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: introspect.Methods(h),
				Signals: []introspect.Signal{{
					Name: "NotificationClosed",
					Args: []introspect.Arg{
						{Name: "id", Type: "u"},
						{Name: "reason", Type: "u"},
					},
				}},
			},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := s.conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return ErrNameTaken
	}

	s.log.Info().Str("name", BusName).Msg("serving notifications")
	return nil
}

// NotificationClosed emits the NotificationClosed signal.
func (s *Server) NotificationClosed(id uint32, reason notification.Reason) {
	if err := s.conn.Emit(ObjectPath, signalClosed, id, uint32(reason)); err != nil {
		s.log.Warn().Err(err).Uint32("id", id).Msg("emit NotificationClosed")
	}
}

var _ notification.Emitter = (*Server)(nil)

// handler carries the exported methods. It is separate from Server so
// NotificationClosed is not exported as a method.
type handler struct {
	engine Engine
	log    zerolog.Logger
}

func (h *handler) GetCapabilities() ([]string, *dbus.Error) {
	return h.engine.Capabilities(), nil
}

func (h *handler) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	converted, skipped := hintsFromDBus(hints)
	if len(skipped) > 0 {
		sort.Strings(skipped)
		h.log.Debug().Strs("hints", skipped).Str("app", appName).Msg("ignored hints of unsupported type")
	}

	id := h.engine.Notify(notification.Request{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         converted,
		ExpireTimeout: expireTimeout,
	})

	h.log.Debug().
		Uint32("id", id).
		Uint32("replaces_id", replacesID).
		Str("app", appName).
		Str("summary", summary).
		Msg("notification received")

	return id, nil
}

func (h *handler) CloseNotification(id uint32) *dbus.Error {
	removed := h.engine.Close(id)
	h.log.Debug().Uint32("id", id).Bool("removed", removed).Msg("close notification")
	return nil
}

func (h *handler) GetServerInformation() (name, vendor, version, specVersion string, _ *dbus.Error) {
	info := h.engine.ServerInfo()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}
