package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Ntqsdigital/renewal/internal/model"
)

// Pool is the subset of pgxpool.Pool the ledger uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresLedger implements Ledger using pgxpool.
type PostgresLedger struct {
	pool Pool
}

// NewPostgres creates a PostgresLedger with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLedger, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresLedger{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sent_reminders (
	id      TEXT PRIMARY KEY,
	email   TEXT NOT NULL,
	expiry  DATE NOT NULL,
	tag     TEXT NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(email, expiry, tag)
);

CREATE INDEX IF NOT EXISTS idx_sent_reminders_expiry ON sent_reminders(expiry);
`

func (l *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}

func (l *PostgresLedger) AlreadySent(ctx context.Context, key model.ReminderKey) (bool, error) {
	var one int
	err := l.pool.QueryRow(ctx,
		`SELECT 1 FROM sent_reminders WHERE email = $1 AND expiry = $2 AND tag = $3`,
		key.Email, key.ExpiryDay(), key.Tag,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: lookup sent")
	}
	return true, nil
}

func (l *PostgresLedger) MarkSent(ctx context.Context, key model.ReminderKey) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO sent_reminders (id, email, expiry, tag, sent_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email, expiry, tag) DO NOTHING`,
		uuid.New().String(), key.Email, key.ExpiryDay(), key.Tag, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: mark sent")
}

func (l *PostgresLedger) Prune(ctx context.Context, before time.Time) (int, error) {
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM sent_reminders WHERE expiry < $1`,
		before.Format("2006-01-02"),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune")
	}
	return int(tag.RowsAffected()), nil
}

func (l *PostgresLedger) List(ctx context.Context, limit int) ([]model.SentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, email, expiry::text, tag, sent_at FROM sent_reminders ORDER BY sent_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list")
	}
	defer rows.Close()

	var records []model.SentRecord
	for rows.Next() {
		var r model.SentRecord
		if err := rows.Scan(&r.ID, &r.Email, &r.Expiry, &r.Tag, &r.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}
