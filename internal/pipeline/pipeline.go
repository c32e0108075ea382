// Package pipeline implements the agreement reminder pipeline: locate the
// header row in a raw workbook table, classify columns into roles, extract
// normalized agreements, classify each into a reminder bucket and dispatch
// notifications that the dedup ledger has not seen yet.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/ledger"
	"github.com/Ntqsdigital/renewal/internal/mailer"
	"github.com/Ntqsdigital/renewal/internal/model"
)

// RowSource produces one snapshot of the agreements workbook as a raw
// table. A failure here aborts the run.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// Deps are the pipeline's external collaborators.
type Deps struct {
	Rows   RowSource
	Ledger ledger.Ledger
	Mailer mailer.Mailer
	Clock  func() time.Time // defaults to time.Now
}

// Options carries the per-run policy knobs, resolved from config once at
// process entry.
type Options struct {
	Sender            string
	DefaultRecipients []string
	ExtraKeywords     map[Role][]string
	DayFirst          bool
	MaxHeaderScan     int
	NotifyExpired     bool
	DueWindows        []string
	EveningHour       int
	Confirmation      bool
}

// Run executes one full pipeline invocation: fetch, extract, classify,
// dedup-filter, dispatch. Per-agreement send failures are isolated; only
// source, decode and column-detection failures abort the run.
func Run(ctx context.Context, deps Deps, opts Options) (*model.RunReport, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	report := model.NewRunReport(uuid.New().String(), clock().UTC())
	log := zap.L().With(zap.String("run_id", report.RunID))

	rows, err := deps.Rows.Rows(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load table")
	}
	if len(rows) == 0 {
		return nil, eris.New("pipeline: workbook contains no rows")
	}
	report.Rows = len(rows)

	headerIdx, confident := LocateHeader(rows, opts.MaxHeaderScan)
	if !confident {
		log.Warn("no header row detected, treating row 0 as header")
	}

	roles, err := ClassifyColumns(rows[headerIdx], opts.ExtraKeywords)
	if err != nil {
		return nil, err
	}
	logRoles(log, roles)

	defaultEmail := ""
	if len(opts.DefaultRecipients) > 0 {
		defaultEmail = opts.DefaultRecipients[0]
	}

	agreements, skipped := Extract(rows, headerIdx, roles, ExtractOptions{
		DefaultEmail: defaultEmail,
		DayFirst:     opts.DayFirst,
	})
	report.SkippedRows = skipped
	report.Agreements = len(agreements)

	now := clock()
	today := DateOnly(now)
	dueTag := dueWindowTag(opts, now)

	for _, a := range agreements {
		bucket := ClassifyBucketPolicy(a.ExpiryDate, today, opts.NotifyExpired)
		if !bucket.Notify() {
			continue
		}
		tag := bucket.Tag(dueTag)
		report.Buckets[tag]++

		alog := log.With(
			zap.String("agreement", a.DisplayName),
			zap.String("email", a.Email),
			zap.String("tag", tag),
		)

		if a.Email == "" {
			alog.Warn("no recipient resolved, skipping notification")
			report.Failed++
			continue
		}

		key := model.ReminderKey{Email: a.Email, Expiry: a.ExpiryDate, Tag: tag}
		sent, err := deps.Ledger.AlreadySent(ctx, key)
		if err != nil {
			// Without a readable ledger a send could duplicate; stay silent.
			alog.Error("ledger lookup failed, skipping notification", zap.Error(err))
			report.Failed++
			continue
		}
		if sent {
			alog.Debug("reminder already sent, suppressing")
			report.Suppressed++
			continue
		}

		subject, body := compose(a, bucket)
		msg := mailer.Message{
			From:           opts.Sender,
			To:             []string{a.Email},
			Subject:        subject,
			Body:           body,
			AttachmentPath: a.AttachmentPath,
		}
		if err := deps.Mailer.Send(ctx, msg); err != nil {
			alog.Error("notification dispatch failed", zap.Error(err))
			report.Failed++
			continue
		}

		report.Sent++
		if err := deps.Ledger.MarkSent(ctx, key); err != nil {
			// The send went out; a failed mark risks one duplicate on the
			// next run, which beats losing the notification entirely.
			alog.Error("ledger mark failed", zap.Error(err))
		}
	}

	report.FinishedAt = clock().UTC()

	if opts.Confirmation {
		sendConfirmation(ctx, deps.Mailer, opts, report, log)
	}

	log.Info("run complete",
		zap.Int("rows", report.Rows),
		zap.Int("skipped_rows", report.SkippedRows),
		zap.Int("agreements", report.Agreements),
		zap.Int("sent", report.Sent),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// dueWindowTag picks the ledger tag for due-today sends. A single
// configured window applies all day; with both morning and evening
// windows the clock hour selects the active one so each dedups
// independently.
func dueWindowTag(opts Options, now time.Time) string {
	switch len(opts.DueWindows) {
	case 0:
		return model.WindowDue
	case 1:
		return opts.DueWindows[0]
	default:
		if now.Hour() < opts.EveningHour {
			return model.WindowDueMorning
		}
		return model.WindowDueEvening
	}
}

// compose renders the reminder subject and body for one agreement.
func compose(a model.Agreement, bucket model.Bucket) (subject, body string) {
	subject = fmt.Sprintf("Renewal Reminder for %s", a.DisplayName)
	date := a.ExpiryDate.Format("2006-01-02")

	name := a.Name
	if name == "" {
		name = a.DisplayName
	}

	var line string
	switch bucket.Kind {
	case model.BucketDueToday:
		line = fmt.Sprintf("Your agreement expires today (%s). Please take necessary action.", date)
	case model.BucketExpired:
		line = fmt.Sprintf("Your agreement expired on %s. Please take necessary action.", date)
	default:
		plural := "days"
		if bucket.DaysLeft == 1 {
			plural = "day"
		}
		line = fmt.Sprintf("Your agreement expires in %d %s, on %s. Please take necessary action.",
			bucket.DaysLeft, plural, date)
	}

	body = fmt.Sprintf("Dear %s,\n\n%s\n", name, line)
	if a.Service != "" {
		body += fmt.Sprintf("\nService: %s", a.Service)
	}
	if a.Business != "" {
		body += fmt.Sprintf("\nBusiness: %s", a.Business)
	}
	body += "\n\nRegards,\nNTQS Digital"
	return subject, body
}

func sendConfirmation(ctx context.Context, m mailer.Mailer, opts Options, report *model.RunReport, log *zap.Logger) {
	if len(opts.DefaultRecipients) == 0 {
		log.Warn("confirmation enabled but no default recipients configured")
		return
	}
	body := fmt.Sprintf(
		"Renewal pipeline run %s finished.\n\nAgreements: %d\nSent: %d\nSuppressed: %d\nFailed: %d\nSkipped rows: %d\n",
		report.RunID, report.Agreements, report.Sent, report.Suppressed, report.Failed, report.SkippedRows,
	)
	err := m.Send(ctx, mailer.Message{
		From:    opts.Sender,
		To:      opts.DefaultRecipients,
		Subject: "Renewal pipeline run summary",
		Body:    body,
	})
	if err != nil {
		log.Error("confirmation send failed", zap.Error(err))
	}
}

func logRoles(log *zap.Logger, roles RoleMap) {
	fields := make([]zap.Field, 0, len(roles))
	for role, ref := range roles {
		fields = append(fields, zap.String(string(role), ref.Name))
	}
	log.Info("columns detected", fields...)
}
