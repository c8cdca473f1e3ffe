// Package export renders open notifications as eww widget literals.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miracleos/notifyd/internal/atomicfile"
	"github.com/miracleos/notifyd/internal/notification"
)

// DefaultFallbackIcon is shown for notifications without an app icon.
const DefaultFallbackIcon = "/usr/share/icons/MiracleOSIcons/16x16/mimetypes/application-x-executable.png"

// Projector writes the widget artifact.
type Projector struct {
	path         string
	fallbackIcon string
	loc          *time.Location
}

// Option configures a Projector.
type Option func(*Projector)

// WithLocation sets the zone used for the :time field. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *Projector) { p.loc = loc }
}

// WithFallbackIcon overrides DefaultFallbackIcon.
func WithFallbackIcon(icon string) Option {
	return func(p *Projector) {
		if icon != "" {
			p.fallbackIcon = icon
		}
	}
}

// New creates a Projector writing to path.
func New(path string, opts ...Option) *Projector {
	p := &Projector{
		path:         path,
		fallbackIcon: DefaultFallbackIcon,
		loc:          time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render returns the literal for one record, e.g.
//
//	(notification :app 'x' :summary 'y' :app_image '/i.png' :urgency 1 :id 3 :time '09:26')
func (p *Projector) Render(rec *notification.Record) string {
	var b strings.Builder
	b.WriteString("(notification ")
	field(&b, "app", quote(rec.AppName))
	field(&b, "summary", quote(rec.Summary))
	if rec.Body != "" {
		field(&b, "body", quote(rec.Body))
	}

	icon := rec.AppIcon
	if icon == "" {
		icon = p.fallbackIcon
	}
	field(&b, "app_image", quote(icon))
	field(&b, "urgency", strconv.Itoa(int(rec.Hints.Urgency())))
	if entry, ok := rec.Hints.DesktopEntry(); ok {
		field(&b, "desktop", quote(entry))
	}
	field(&b, "id", strconv.FormatUint(uint64(rec.ID), 10))
	if rec.Image != "" {
		field(&b, "image", quote(rec.Image))
	}
	field(&b, "time", quote(rec.CreatedAt.In(p.loc).Format("15:04")))
	b.WriteString(")")
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, ":%s %s ", name, value)
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote wraps s in single quotes, escaping quotes and backslashes.
func quote(s string) string {
	return "'" + quoter.Replace(s) + "'"
}

// Lines renders every record in the given order.
func (p *Projector) Lines(records []*notification.Record) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, p.Render(rec))
	}
	return lines
}

// Export overwrites the artifact with a JSON array of rendered records.
func (p *Projector) Export(records []*notification.Record) error {
	data, err := json.Marshal(p.Lines(records))
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := atomicfile.Write(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
