package notification

import (
	"fmt"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Composer renders ledger events into localized text. Printers and casers
// keep per-call state, so one of each is created for every message.
type Composer struct {
	tag language.Tag
}

// NewComposer creates a Composer for a BCP 47 locale such as "en-US" or "de".
// Unknown or empty locales fall back to English.
func NewComposer(locale string) *Composer {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Composer{tag: tag}
}

// Amount formats money with the locale's grouping and two decimals
func (c *Composer) Amount(d decimal.Decimal) string {
	return message.NewPrinter(c.tag).Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Compose builds the notification for event. ok is false for event types
// nobody is notified about.
func (c *Composer) Compose(event shared.DomainEvent) (n Notification, ok bool) {
	n = Notification{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		BranchID:   event.BranchID(),
		VoucherID:  event.AggregateID(),
		OccurredAt: event.OccurredAt(),
	}

	switch e := event.(type) {
	case *fee.PaymentApprovedEvent:
		c.decided(&n, e.Decision())
		n.Body = fmt.Sprintf("Your payment of %s for voucher %s was approved. Remaining balance: %s.",
			c.Amount(e.Amount), e.VoucherNumber, c.Amount(e.RemainingAmount))
	case *fee.PaymentRejectedEvent:
		c.decided(&n, e.Decision())
		n.Body = fmt.Sprintf("Your payment of %s for voucher %s was rejected.",
			c.Amount(e.Amount), e.VoucherNumber)
		if e.Reason != "" {
			n.Body += " Reason: " + e.Reason
		}
	case *fee.PaymentSubmittedEvent:
		n.VoucherNumber = e.VoucherNumber
		n.PaymentID = &e.PaymentID
		n.Title = "Payment awaiting review"
		n.Body = fmt.Sprintf("A payment of %s was submitted for voucher %s.",
			c.Amount(e.Amount), e.VoucherNumber)
	case *fee.VoucherPaidEvent:
		n.VoucherNumber = e.VoucherNumber
		n.Title = "Voucher paid"
		n.Body = fmt.Sprintf("Voucher %s is fully paid (%s).", e.VoucherNumber, c.Amount(e.PaidAmount))
	case *fee.VoucherOverdueEvent:
		n.VoucherNumber = e.VoucherNumber
		n.Title = "Voucher overdue"
		n.Body = fmt.Sprintf("Voucher %s was due on %s and has no approved payment.",
			e.VoucherNumber, e.DueDate.Format("2006-01-02"))
	case *fee.VoucherCancelledEvent:
		n.VoucherNumber = e.VoucherNumber
		n.Title = "Voucher cancelled"
		n.Body = fmt.Sprintf("Voucher %s was cancelled.", e.VoucherNumber)
		if e.Reason != "" {
			n.Body += " Reason: " + e.Reason
		}
	default:
		return Notification{}, false
	}
	return n, true
}

func (c *Composer) decided(n *Notification, d *fee.PaymentDecidedEvent) {
	n.VoucherNumber = d.VoucherNumber
	n.PaymentID = &d.PaymentID
	if d.SubmittedBy != uuid.Nil {
		recipient := d.SubmittedBy
		n.Recipient = &recipient
	}
	n.Title = cases.Title(c.tag).String("payment " + string(d.Status))
}
