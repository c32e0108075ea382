package model

import "time"

// ReminderKey identifies one distinct notification event. A key is marked
// in the ledger after a successful send and checked before every send, so
// repeated pipeline runs within the same window stay silent.
type ReminderKey struct {
	Email  string
	Expiry time.Time
	Tag    string
}

// ExpiryDay returns the expiry date formatted as the ledger's date key.
func (k ReminderKey) ExpiryDay() string {
	return k.Expiry.Format("2006-01-02")
}

// SentRecord is one persisted ledger entry.
type SentRecord struct {
	ID     string    `json:"id"`
	Email  string    `json:"email"`
	Expiry string    `json:"expiry"`
	Tag    string    `json:"tag"`
	SentAt time.Time `json:"sent_at"`
}
