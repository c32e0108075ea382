package pipeline

import (
	"time"

	"github.com/Ntqsdigital/renewal/internal/model"
)

// PreWindowDays is how many days before expiry pre-reminders begin.
const PreWindowDays = 5

// ClassifyBucket maps an expiry date and today's date to a reminder
// bucket. Pure and total: negative days-left (already expired) and more
// than PreWindowDays out both yield BucketNone. A sign or boundary error
// here causes silent notification loss, so the boundaries are pinned by
// tests at -1, 0, 5 and 6.
func ClassifyBucket(expiry, today time.Time) model.Bucket {
	daysLeft := DaysBetween(today, expiry)

	switch {
	case daysLeft < 0:
		return model.Bucket{Kind: model.BucketNone, DaysLeft: daysLeft}
	case daysLeft == 0:
		return model.Bucket{Kind: model.BucketDueToday}
	case daysLeft <= PreWindowDays:
		return model.Bucket{Kind: model.BucketPreReminder, DaysLeft: daysLeft}
	default:
		return model.Bucket{Kind: model.BucketNone, DaysLeft: daysLeft}
	}
}

// ClassifyBucketPolicy applies the configured reminder policy on top of
// the strict classification. With NotifyExpired set, an already-expired
// agreement produces a single BucketExpired notification (deduped under
// the "expired" tag) instead of staying silent.
func ClassifyBucketPolicy(expiry, today time.Time, notifyExpired bool) model.Bucket {
	b := ClassifyBucket(expiry, today)
	if b.Kind == model.BucketNone && b.DaysLeft < 0 && notifyExpired {
		return model.Bucket{Kind: model.BucketExpired, DaysLeft: b.DaysLeft}
	}
	return b
}

// DaysBetween returns the whole calendar days from a to b, negative when b
// precedes a. Both arguments are truncated to dates first so time-of-day
// and zone offsets cannot shift the count.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
