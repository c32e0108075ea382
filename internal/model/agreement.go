package model

import "time"

// FallbackDisplayName is used when no name-bearing column yields a value.
const FallbackDisplayName = "Unnamed Agreement"

// Agreement is one normalized row from the agreements workbook. Rows whose
// expiry date fails to parse never become Agreements, so ExpiryDate is
// always set. Email is resolved during extraction (row value or configured
// default recipient) and is never empty in a constructed Agreement.
type Agreement struct {
	DisplayName    string    `json:"display_name"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email"`
	ExpiryDate     time.Time `json:"expiry_date"`
	Service        string    `json:"service,omitempty"`
	Business       string    `json:"business,omitempty"`
	AttachmentPath string    `json:"attachment_path,omitempty"`
}
