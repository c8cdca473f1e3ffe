//go:build !linux

package notify

import "github.com/miracleos/notifyd/internal/notification"

// stubNotifier reports ErrUnavailable on non-Linux platforms.
type stubNotifier struct{}

// New returns a notifier whose calls fail with ErrUnavailable.
func New() (Notifier, error) {
	return &stubNotifier{}, nil
}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, ErrUnavailable
}

func (s *stubNotifier) Close(_ uint32) error {
	return ErrUnavailable
}

func (s *stubNotifier) Capabilities() ([]string, error) {
	return nil, ErrUnavailable
}

func (s *stubNotifier) ServerInformation() (notification.ServerInfo, error) {
	return notification.ServerInfo{}, ErrUnavailable
}
