// Package history keeps a SQLite log of every accepted notification and when
// it was closed.
package history

import (
	"database/sql"
	"fmt"
	"time"

	dbutil "github.com/miracleos/notifyd/internal/db"
	"github.com/miracleos/notifyd/internal/notification"
)

// ReasonReplaced marks a row superseded by a Notify with the same replaces_id.
const ReasonReplaced notification.Reason = 0

// Entry is one logged notification.
type Entry struct {
	ID             int64
	NotificationID uint32
	AppName        string
	Summary        string
	Body           string
	AppIcon        string
	Image          string
	DesktopEntry   string
	Urgency        int64
	CreatedAt      time.Time
	ClosedAt       *time.Time
	CloseReason    *int64
}

// Open reports whether the notification has not been closed or replaced.
func (e Entry) Open() bool {
	return e.ClosedAt == nil
}

// Log is the history database.
type Log struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Log, error) {
	db, err := dbutil.Open(path)
	if err != nil {
		return nil, err
	}
	l, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an open database, creating the schema if needed.
func New(db *sql.DB) (*Log, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record logs an accepted notification. An open row for the same id is
// marked as replaced first.
func (l *Log) Record(rec *notification.Record) error {
	entry, _ := rec.Hints.DesktopEntry()
	return dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			UPDATE notifications SET closed_at = ?, close_reason = ?
			WHERE notification_id = ? AND closed_at IS NULL
		`, dbutil.Micros(rec.CreatedAt), int64(ReasonReplaced), int64(rec.ID)); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO notifications (notification_id, app_name, summary, body, app_icon, image,
			                           desktop_entry, urgency, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, int64(rec.ID), rec.AppName, rec.Summary, nullable(rec.Body), nullable(rec.AppIcon),
			nullable(rec.Image), nullable(entry), int64(rec.Hints.Urgency()), dbutil.Micros(rec.CreatedAt))
		return err
	})
}

// Closed marks the open row for id as closed.
func (l *Log) Closed(id uint32, reason notification.Reason, at time.Time) error {
	_, err := l.db.Exec(`
		UPDATE notifications SET closed_at = ?, close_reason = ?
		WHERE notification_id = ? AND closed_at IS NULL
	`, dbutil.Micros(at), int64(reason), int64(id))
	return err
}

// ClosedAll marks every open row as closed.
func (l *Log) ClosedAll(reason notification.Reason, at time.Time) error {
	_, err := l.db.Exec(`
		UPDATE notifications SET closed_at = ?, close_reason = ?
		WHERE closed_at IS NULL
	`, dbutil.Micros(at), int64(reason))
	return err
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.Query(`
		SELECT id, notification_id, app_name, summary, body, app_icon, image, desktop_entry,
		       urgency, created_at, closed_at, close_reason
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                 Entry
			notificationID, createdAt         int64
			body, appIcon, image, desktopName sql.NullString
			closedAt, closeReason             sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &notificationID, &e.AppName, &e.Summary, &body, &appIcon, &image,
			&desktopName, &e.Urgency, &createdAt, &closedAt, &closeReason); err != nil {
			return nil, err
		}
		e.NotificationID = uint32(notificationID) //nolint:gosec // stored from a uint32
		e.Body = dbutil.NullStringValue(body)
		e.AppIcon = dbutil.NullStringValue(appIcon)
		e.Image = dbutil.NullStringValue(image)
		e.DesktopEntry = dbutil.NullStringValue(desktopName)
		e.CreatedAt = time.UnixMicro(createdAt)
		e.ClosedAt = dbutil.NullMicrosToTime(closedAt)
		e.CloseReason = dbutil.NullInt64ToPtr(closeReason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify Log implements notification.Recorder at compile time.
var _ notification.Recorder = (*Log)(nil)
