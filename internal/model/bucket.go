package model

import "fmt"

// BucketKind identifies the reminder classification for an agreement on a
// given day.
type BucketKind string

const (
	BucketNone        BucketKind = "none"
	BucketPreReminder BucketKind = "pre_reminder"
	BucketDueToday    BucketKind = "due_today"
	BucketExpired     BucketKind = "expired" // only produced when expired notifications are enabled
)

// Due-today window tags. A single-window deployment uses WindowDue; a
// twice-daily scheduler uses the morning/evening pair so each window
// dedups independently.
const (
	WindowDue        = "due"
	WindowDueMorning = "due_morning"
	WindowDueEvening = "due_evening"
)

// Bucket is the result of classifying one agreement against today's date.
type Bucket struct {
	Kind     BucketKind
	DaysLeft int
}

// Notify reports whether this bucket produces a notification.
func (b Bucket) Notify() bool {
	return b.Kind != BucketNone
}

// Tag returns the stable ledger tag for this bucket. Due-today buckets take
// their tag from the active send window; pre-reminders get one tag per
// days-left value so each day's reminder dedups separately.
func (b Bucket) Tag(dueWindow string) string {
	switch b.Kind {
	case BucketPreReminder:
		return fmt.Sprintf("pre_%d", b.DaysLeft)
	case BucketDueToday:
		if dueWindow == "" {
			return WindowDue
		}
		return dueWindow
	case BucketExpired:
		return "expired"
	}
	return ""
}
