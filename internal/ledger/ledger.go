// Package ledger persists which reminders have already gone out so that
// repeated pipeline invocations within the same window send nothing twice.
// The ledger is a single-writer resource; concurrent pipeline runs are
// serialized by the invoking scheduler, not here.
package ledger

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Ntqsdigital/renewal/internal/config"
	"github.com/Ntqsdigital/renewal/internal/model"
)

// Ledger defines the durable dedup store for sent reminders.
type Ledger interface {
	// AlreadySent reports whether the key has been marked.
	AlreadySent(ctx context.Context, key model.ReminderKey) (bool, error)

	// MarkSent records the key. Marking an existing key is a no-op.
	MarkSent(ctx context.Context, key model.ReminderKey) error

	// Prune removes records whose expiry date is before the given day and
	// returns how many were deleted.
	Prune(ctx context.Context, before time.Time) (int, error)

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]model.SentRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs the configured ledger backend and runs its migration.
func Open(ctx context.Context, cfg config.LedgerConfig) (Ledger, error) {
	var (
		l   Ledger
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		l, err = NewSQLite(cfg.Path)
	case "postgres":
		l, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("ledger: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := l.Migrate(ctx); err != nil {
		l.Close()
		return nil, err
	}

	return l, nil
}
