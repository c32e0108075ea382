package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Ntqsdigital/renewal/internal/model"
)

// SQLiteLedger implements Ledger using modernc.org/sqlite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteLedger{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sent_reminders (
	id      TEXT PRIMARY KEY,
	email   TEXT NOT NULL,
	expiry  TEXT NOT NULL,
	tag     TEXT NOT NULL,
	sent_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(email, expiry, tag)
);

CREATE INDEX IF NOT EXISTS idx_sent_reminders_expiry ON sent_reminders(expiry);
`

func (l *SQLiteLedger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) AlreadySent(ctx context.Context, key model.ReminderKey) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM sent_reminders WHERE email = ? AND expiry = ? AND tag = ?`,
		key.Email, key.ExpiryDay(), key.Tag,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: lookup sent")
	}
	return true, nil
}

func (l *SQLiteLedger) MarkSent(ctx context.Context, key model.ReminderKey) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO sent_reminders (id, email, expiry, tag, sent_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email, expiry, tag) DO NOTHING`,
		uuid.New().String(), key.Email, key.ExpiryDay(), key.Tag, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: mark sent")
}

func (l *SQLiteLedger) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM sent_reminders WHERE expiry < ?`,
		before.Format("2006-01-02"),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune rows affected")
	}
	return int(n), nil
}

func (l *SQLiteLedger) List(ctx context.Context, limit int) ([]model.SentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, email, expiry, tag, sent_at FROM sent_reminders ORDER BY sent_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list")
	}
	defer rows.Close()

	var records []model.SentRecord
	for rows.Next() {
		var r model.SentRecord
		if err := rows.Scan(&r.ID, &r.Email, &r.Expiry, &r.Tag, &r.SentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}
