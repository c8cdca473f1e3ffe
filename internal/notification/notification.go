// Package notification is the notification engine: it allocates ids, applies
// create/replace/close requests and mirrors the open set to its collaborators.
package notification

import (
	"maps"
	"slices"
	"time"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/imagestore"
)

// CloseAll is the id that closes every open notification.
const CloseAll uint32 = 0xFFFFFFFF

// Reason is the NotificationClosed reason code.
type Reason uint32

const (
	ReasonExpired      Reason = 1
	ReasonDismissed    Reason = 2
	ReasonClosedByCall Reason = 3
	ReasonUndefined    Reason = 4
)

// Record is one open notification.
type Record struct {
	ID            uint32
	AppName       string
	Summary       string
	Body          string // empty when the sender gave no body
	AppIcon       string // file:// already removed
	Actions       []string
	Hints         hint.Map
	ExpireTimeout int32 // stored and advertised only
	CreatedAt     time.Time
	Image         string // resolved image path, empty when none
}

// Clone returns a deep copy safe to hand outside the store lock.
func (r *Record) Clone() *Record {
	c := *r
	c.Actions = slices.Clone(r.Actions)
	c.Hints = maps.Clone(r.Hints)
	return &c
}

// Request carries the arguments of a Notify call.
type Request struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string
	Hints         hint.Map
	ExpireTimeout int32
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

var serverInfo = ServerInfo{
	Name:        "MiracleOSNotificationDaemon",
	Vendor:      "MiracleOS-Team",
	Version:     "1.0",
	SpecVersion: "1.2",
}

var capabilities = []string{"body", "body-hyperlinks", "icon-static", "persistence", "actions"}

// ImageResolver turns image hints into a stored path.
type ImageResolver interface {
	Resolve(hints hint.Map) imagestore.Resolution
}

// State is what a Persister keeps: the open set and the allocation counter.
type State struct {
	Records map[uint32]*Record
	NextID  uint32 // 0 when no counter was saved
}

// Persister mirrors the open set and the counter to durable storage.
type Persister interface {
	Load() (State, error)
	Save(records []*Record, nextID uint32) error
}

// Exporter renders the open set for the widget renderer.
type Exporter interface {
	Export(records []*Record) error
}

// Recorder keeps a history of notifications. Optional.
type Recorder interface {
	Record(rec *Record) error
	Closed(id uint32, reason Reason, at time.Time) error
	ClosedAll(reason Reason, at time.Time) error
}

// Emitter delivers the NotificationClosed signal.
type Emitter interface {
	NotificationClosed(id uint32, reason Reason)
}
