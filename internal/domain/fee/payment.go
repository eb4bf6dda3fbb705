package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Evidence references the payment proof held by the evidence store.
// The ledger never interprets it.
type Evidence struct {
	URL        string `json:"url"`
	StorageKey string `json:"storage_key"`
}

// IsZero reports whether no evidence was supplied
func (e Evidence) IsZero() bool {
	return e.URL == "" && e.StorageKey == ""
}

// Payment is one payer-submitted claim against a fee voucher.
// It only exists inside its voucher's payment history.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	VoucherID       uuid.UUID       `json:"voucher_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	TransactionID   string          `json:"transaction_id"`
	Screenshot      Evidence        `json:"screenshot"`
	Remarks         string          `json:"remarks"`
	Status          PaymentStatus   `json:"status"`
	SubmittedBy     uuid.UUID       `json:"submitted_by"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	DecisionRemarks string          `json:"decision_remarks,omitempty"`
}

// IsPending returns true while the payment awaits a decision
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// DecidedBy returns the approver or rejecter, nil while pending
func (p *Payment) DecidedBy() *uuid.UUID {
	switch p.Status {
	case PaymentStatusApproved:
		return p.ApprovedBy
	case PaymentStatusRejected:
		return p.RejectedBy
	}
	return nil
}

// DecidedAt returns the decision time, nil while pending
func (p *Payment) DecidedAt() *time.Time {
	switch p.Status {
	case PaymentStatusApproved:
		return p.ApprovedAt
	case PaymentStatusRejected:
		return p.RejectedAt
	}
	return nil
}

// LastActivityAt is the submission time for pending payments and the
// decision time otherwise.
func (p *Payment) LastActivityAt() time.Time {
	if at := p.DecidedAt(); at != nil {
		return *at
	}
	return p.SubmittedAt
}

func (p *Payment) approve(actor uuid.UUID, remarks string, at time.Time) {
	p.Status = PaymentStatusApproved
	p.ApprovedBy = &actor
	p.ApprovedAt = &at
	p.DecisionRemarks = remarks
}

func (p *Payment) reject(actor uuid.UUID, reason string, at time.Time) {
	p.Status = PaymentStatusRejected
	p.RejectedBy = &actor
	p.RejectedAt = &at
	p.RejectionReason = reason
	p.DecisionRemarks = reason
}
