package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ntqsdigital/renewal/internal/model"
)

func TestClassifyBucket_Boundaries(t *testing.T) {
	today := date(2024, time.June, 1)

	tests := []struct {
		name     string
		expiry   time.Time
		wantKind model.BucketKind
		wantDays int
	}{
		{"expired yesterday", date(2024, time.May, 31), model.BucketNone, -1},
		{"long expired", date(2023, time.June, 1), model.BucketNone, -366},
		{"due today", date(2024, time.June, 1), model.BucketDueToday, 0},
		{"one day left", date(2024, time.June, 2), model.BucketPreReminder, 1},
		{"three days left", date(2024, time.June, 4), model.BucketPreReminder, 3},
		{"five days left", date(2024, time.June, 6), model.BucketPreReminder, 5},
		{"six days left", date(2024, time.June, 7), model.BucketNone, 6},
		{"far future", date(2025, time.June, 1), model.BucketNone, 365},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ClassifyBucket(tt.expiry, today)
			assert.Equal(t, tt.wantKind, b.Kind)
			if b.Kind == model.BucketPreReminder || b.Kind == model.BucketNone {
				assert.Equal(t, tt.wantDays, b.DaysLeft)
			}
		})
	}
}

func TestClassifyBucket_TimeOfDayIrrelevant(t *testing.T) {
	// Classification counts calendar days, not 24h periods.
	today := time.Date(2024, time.June, 1, 23, 30, 0, 0, time.UTC)
	expiry := time.Date(2024, time.June, 2, 1, 0, 0, 0, time.UTC)

	b := ClassifyBucket(expiry, today)
	assert.Equal(t, model.BucketPreReminder, b.Kind)
	assert.Equal(t, 1, b.DaysLeft)
}

func TestClassifyBucketPolicy_NotifyExpired(t *testing.T) {
	today := date(2024, time.June, 1)
	expired := date(2024, time.May, 20)

	strict := ClassifyBucketPolicy(expired, today, false)
	assert.Equal(t, model.BucketNone, strict.Kind)

	lenient := ClassifyBucketPolicy(expired, today, true)
	assert.Equal(t, model.BucketExpired, lenient.Kind)
	assert.Equal(t, "expired", lenient.Tag(model.WindowDue))

	// Policy never touches non-expired classifications.
	due := ClassifyBucketPolicy(today, today, true)
	assert.Equal(t, model.BucketDueToday, due.Kind)
}

func TestBucketTags(t *testing.T) {
	pre := model.Bucket{Kind: model.BucketPreReminder, DaysLeft: 3}
	assert.Equal(t, "pre_3", pre.Tag(model.WindowDue))

	due := model.Bucket{Kind: model.BucketDueToday}
	assert.Equal(t, "due", due.Tag(model.WindowDue))
	assert.Equal(t, "due_morning", due.Tag(model.WindowDueMorning))
	assert.Equal(t, "due_evening", due.Tag(model.WindowDueEvening))
	assert.Equal(t, "due", due.Tag(""))

	none := model.Bucket{Kind: model.BucketNone}
	assert.Equal(t, "", none.Tag(model.WindowDue))
	assert.False(t, none.Notify())
	assert.True(t, pre.Notify())
}

func TestDaysBetween(t *testing.T) {
	a := date(2024, time.June, 1)
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 3, DaysBetween(a, date(2024, time.June, 4)))
	assert.Equal(t, -1, DaysBetween(a, date(2024, time.May, 31)))
	// Across a month boundary.
	assert.Equal(t, 30, DaysBetween(a, date(2024, time.July, 1)))
}
