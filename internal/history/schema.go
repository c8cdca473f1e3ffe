package history

import "database/sql"

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			notification_id INTEGER NOT NULL,
			app_name TEXT NOT NULL,
			summary TEXT NOT NULL,
			body TEXT,
			app_icon TEXT,
			image TEXT,
			desktop_entry TEXT,
			urgency INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			closed_at INTEGER,
			close_reason INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_open ON notifications(notification_id) WHERE closed_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at DESC);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, currentSchemaVersion)
	return err
}
