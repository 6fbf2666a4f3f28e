package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DefaultMaxRecordAttempts caps how many attempts may accumulate on a
// delivery record before further dispatch requests are rejected.
const DefaultMaxRecordAttempts = 5

// DeliveryRecord tracks delivery state for one recipient key. A record is
// created on the first dispatch request for a key and never deleted.
type DeliveryRecord struct {
	RecipientKey      string
	Delivered         bool
	Attempts          int
	LastAttemptAt     *time.Time
	LastError         *string
	ProviderMessageID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DeliveryAttempt records a single physical send attempt for audit.
type DeliveryAttempt struct {
	ID            string
	RecipientKey  string
	AttemptNumber int
	Error         *string
	ElapsedMillis int64
	CreatedAt     time.Time
}

// NormalizeRecipientKey canonicalizes an email address into the key used
// to deduplicate deliveries.
func NormalizeRecipientKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmailAddress rejects addresses the provider would bounce on.
func ValidateEmailAddress(address string) error {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, trimmed)
	}
	return nil
}
