package fee

import (
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeVoucherIssued    = "VoucherIssued"
	EventTypePaymentSubmitted = "PaymentSubmitted"
	EventTypePaymentApproved  = "PaymentApproved"
	EventTypePaymentRejected  = "PaymentRejected"
	EventTypeVoucherPaid      = "VoucherPaid"
	EventTypeVoucherCancelled = "VoucherCancelled"
	EventTypeVoucherOverdue   = "VoucherOverdue"
)

// VoucherIssuedEvent is raised when billing generation issues a voucher
type VoucherIssuedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DueDate       time.Time       `json:"due_date"`
}

// EventType returns the event type name
func (e *VoucherIssuedEvent) EventType() string {
	return EventTypeVoucherIssued
}

// NewVoucherIssuedEvent creates a new VoucherIssuedEvent
func NewVoucherIssuedEvent(v *FeeVoucher) *VoucherIssuedEvent {
	return &VoucherIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherIssued, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		StudentID:       v.StudentID,
		TotalAmount:     v.TotalAmount,
		DueDate:         v.DueDate,
	}
}

// PaymentSubmittedEvent is raised when a payer appends a payment claim
type PaymentSubmittedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	SubmittedBy   uuid.UUID       `json:"submitted_by"`
}

// EventType returns the event type name
func (e *PaymentSubmittedEvent) EventType() string {
	return EventTypePaymentSubmitted
}

// NewPaymentSubmittedEvent creates a new PaymentSubmittedEvent
func NewPaymentSubmittedEvent(v *FeeVoucher, p *Payment) *PaymentSubmittedEvent {
	return &PaymentSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSubmitted, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		SubmittedBy:     p.SubmittedBy,
	}
}

// PaymentDecidedEvent is the common payload of approval and rejection.
// Notification handlers subscribe to both through this shape.
type PaymentDecidedEvent struct {
	shared.BaseDomainEvent
	VoucherID       uuid.UUID       `json:"voucher_id"`
	VoucherNumber   string          `json:"voucher_number"`
	StudentID       uuid.UUID       `json:"student_id"`
	StudentName     string          `json:"student_name"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	SubmittedBy     uuid.UUID       `json:"submitted_by"`
	Status          PaymentStatus   `json:"status"`
	DecidedBy       uuid.UUID       `json:"decided_by"`
	DecidedAt       time.Time       `json:"decided_at"`
	Reason          string          `json:"reason,omitempty"`
	VoucherStatus   VoucherStatus   `json:"voucher_status"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

func newPaymentDecidedEvent(eventType string, v *FeeVoucher, p *Payment) PaymentDecidedEvent {
	e := PaymentDecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		StudentID:       v.StudentID,
		StudentName:     v.StudentName,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		SubmittedBy:     p.SubmittedBy,
		Status:          p.Status,
		Reason:          p.RejectionReason,
		VoucherStatus:   v.Status,
		PaidAmount:      v.PaidAmount,
		RemainingAmount: v.RemainingAmount,
	}
	if by := p.DecidedBy(); by != nil {
		e.DecidedBy = *by
	}
	if at := p.DecidedAt(); at != nil {
		e.DecidedAt = *at
	}
	return e
}

// Decision returns the shared decision payload
func (e *PaymentDecidedEvent) Decision() *PaymentDecidedEvent {
	return e
}

// PaymentApprovedEvent is raised when a payment is approved
type PaymentApprovedEvent struct {
	PaymentDecidedEvent
}

// EventType returns the event type name
func (e *PaymentApprovedEvent) EventType() string {
	return EventTypePaymentApproved
}

// NewPaymentApprovedEvent creates a new PaymentApprovedEvent
func NewPaymentApprovedEvent(v *FeeVoucher, p *Payment) *PaymentApprovedEvent {
	return &PaymentApprovedEvent{PaymentDecidedEvent: newPaymentDecidedEvent(EventTypePaymentApproved, v, p)}
}

// PaymentRejectedEvent is raised when a payment is rejected
type PaymentRejectedEvent struct {
	PaymentDecidedEvent
}

// EventType returns the event type name
func (e *PaymentRejectedEvent) EventType() string {
	return EventTypePaymentRejected
}

// NewPaymentRejectedEvent creates a new PaymentRejectedEvent
func NewPaymentRejectedEvent(v *FeeVoucher, p *Payment) *PaymentRejectedEvent {
	return &PaymentRejectedEvent{PaymentDecidedEvent: newPaymentDecidedEvent(EventTypePaymentRejected, v, p)}
}

// VoucherPaidEvent is raised when approvals settle the voucher in full
type VoucherPaidEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID       `json:"voucher_id"`
	VoucherNumber string          `json:"voucher_number"`
	StudentID     uuid.UUID       `json:"student_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// EventType returns the event type name
func (e *VoucherPaidEvent) EventType() string {
	return EventTypeVoucherPaid
}

// NewVoucherPaidEvent creates a new VoucherPaidEvent
func NewVoucherPaidEvent(v *FeeVoucher) *VoucherPaidEvent {
	return &VoucherPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherPaid, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		StudentID:       v.StudentID,
		PaidAmount:      v.PaidAmount,
	}
}

// VoucherCancelledEvent is raised when an administrator cancels a voucher
type VoucherCancelledEvent struct {
	shared.BaseDomainEvent
	VoucherID      uuid.UUID     `json:"voucher_id"`
	VoucherNumber  string        `json:"voucher_number"`
	PreviousStatus VoucherStatus `json:"previous_status"`
	CancelledBy    uuid.UUID     `json:"cancelled_by"`
	Reason         string        `json:"reason"`
}

// EventType returns the event type name
func (e *VoucherCancelledEvent) EventType() string {
	return EventTypeVoucherCancelled
}

// NewVoucherCancelledEvent creates a new VoucherCancelledEvent
func NewVoucherCancelledEvent(v *FeeVoucher, previousStatus VoucherStatus) *VoucherCancelledEvent {
	var cancelledBy uuid.UUID
	if v.CancelledBy != nil {
		cancelledBy = *v.CancelledBy
	}
	return &VoucherCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherCancelled, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		PreviousStatus:  previousStatus,
		CancelledBy:     cancelledBy,
		Reason:          v.CancelReason,
	}
}

// VoucherOverdueEvent is raised when the sweeper flags an unpaid voucher
type VoucherOverdueEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID `json:"voucher_id"`
	VoucherNumber string    `json:"voucher_number"`
	DueDate       time.Time `json:"due_date"`
	AsOf          time.Time `json:"as_of"`
}

// EventType returns the event type name
func (e *VoucherOverdueEvent) EventType() string {
	return EventTypeVoucherOverdue
}

// NewVoucherOverdueEvent creates a new VoucherOverdueEvent
func NewVoucherOverdueEvent(v *FeeVoucher, asOf time.Time) *VoucherOverdueEvent {
	return &VoucherOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherOverdue, AggregateType, v.ID, v.BranchID),
		VoucherID:       v.ID,
		VoucherNumber:   v.VoucherNumber,
		DueDate:         v.DueDate,
		AsOf:            asOf,
	}
}
