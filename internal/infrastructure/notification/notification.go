// Package notification turns ledger events into messages for payers and
// branch staff and hands them to delivery channels.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is a rendered message about a voucher
type Notification struct {
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	BranchID      uuid.UUID  `json:"branch_id"`
	VoucherID     uuid.UUID  `json:"voucher_id"`
	VoucherNumber string     `json:"voucher_number"`
	PaymentID     *uuid.UUID `json:"payment_id,omitempty"`
	// Recipient is the user the message is addressed to; nil means branch staff
	Recipient  *uuid.UUID `json:"recipient,omitempty"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Notifier delivers a notification on one channel
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
