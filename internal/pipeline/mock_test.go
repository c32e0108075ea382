package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Ntqsdigital/renewal/internal/mailer"
	"github.com/Ntqsdigital/renewal/internal/model"
)

// fakeRows is a RowSource serving a fixed table.
type fakeRows struct {
	rows [][]string
	err  error
}

func (f *fakeRows) Rows(context.Context) ([][]string, error) {
	return f.rows, f.err
}

// memLedger is an in-memory Ledger with optional fault injection.
type memLedger struct {
	marked     map[string]bool
	lookupErr  error
	markErr    error
	markCalls  int
	checkCalls int
}

func newMemLedger() *memLedger {
	return &memLedger{marked: make(map[string]bool)}
}

func ledgerKey(key model.ReminderKey) string {
	return fmt.Sprintf("%s|%s|%s", key.Email, key.ExpiryDay(), key.Tag)
}

func (l *memLedger) AlreadySent(_ context.Context, key model.ReminderKey) (bool, error) {
	l.checkCalls++
	if l.lookupErr != nil {
		return false, l.lookupErr
	}
	return l.marked[ledgerKey(key)], nil
}

func (l *memLedger) MarkSent(_ context.Context, key model.ReminderKey) error {
	l.markCalls++
	if l.markErr != nil {
		return l.markErr
	}
	l.marked[ledgerKey(key)] = true
	return nil
}

func (l *memLedger) Prune(context.Context, time.Time) (int, error) { return 0, nil }

func (l *memLedger) List(context.Context, int) ([]model.SentRecord, error) { return nil, nil }

func (l *memLedger) Migrate(context.Context) error { return nil }

func (l *memLedger) Close() error { return nil }

// recordMailer records sends and can fail selected recipients.
type recordMailer struct {
	sent   []mailer.Message
	failTo map[string]error
}

func newRecordMailer() *recordMailer {
	return &recordMailer{failTo: make(map[string]error)}
}

func (m *recordMailer) Send(_ context.Context, msg mailer.Message) error {
	for _, rcpt := range msg.To {
		if err := m.failTo[rcpt]; err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}
