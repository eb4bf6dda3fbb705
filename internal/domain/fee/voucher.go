package fee

import (
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateType is the aggregate name used on domain events
const AggregateType = "FeeVoucher"

// MoneyScale is the number of decimal places a money amount may carry
const MoneyScale = 2

// checkMoneyScale rejects amounts finer than MoneyScale
func checkMoneyScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("%s %s has more than %d decimal places", field, amount.String(), MoneyScale))
	}
	return nil
}

// FeeVoucher is the billing record of one student for one period in one
// branch, together with the ordered ledger of payments claimed against it.
type FeeVoucher struct {
	shared.BaseAggregateRoot
	VoucherNumber   string          `json:"voucher_number"`
	StudentID       uuid.UUID       `json:"student_id"`
	StudentName     string          `json:"student_name"` // Denormalized for reporting
	BranchID        uuid.UUID       `json:"branch_id"`
	ClassID         uuid.UUID       `json:"class_id"`
	ClassName       string          `json:"class_name"` // Denormalized for reporting
	TemplateID      uuid.UUID       `json:"template_id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Amount          decimal.Decimal `json:"amount"`
	LateFeeAmount   decimal.Decimal `json:"late_fee_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	DueDate         time.Time       `json:"due_date"`
	Status          VoucherStatus   `json:"status"`
	Payments        []Payment       `json:"payment_history"` // Submission order
	UpdatedBy       *uuid.UUID      `json:"updated_by"`
	CancelledAt     *time.Time      `json:"cancelled_at"`
	CancelledBy     *uuid.UUID      `json:"cancelled_by"`
	CancelReason    string          `json:"cancel_reason"`
}

// IssueVoucherInput is what billing generation hands over for a new voucher
type IssueVoucherInput struct {
	VoucherNumber  string
	StudentID      uuid.UUID
	StudentName    string
	BranchID       uuid.UUID
	ClassID        uuid.UUID
	ClassName      string
	TemplateID     uuid.UUID
	Month          int
	Year           int
	Amount         decimal.Decimal
	LateFeeAmount  decimal.Decimal
	DiscountAmount decimal.Decimal
	DueDate        time.Time
	IssuedBy       uuid.UUID
}

// NewFeeVoucher issues a voucher in pending status
func NewFeeVoucher(in IssueVoucherInput) (*FeeVoucher, error) {
	if in.VoucherNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Voucher number cannot be empty")
	}
	if len(in.VoucherNumber) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Voucher number cannot exceed 50 characters")
	}
	if in.StudentID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Student ID cannot be empty")
	}
	if in.BranchID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Branch ID cannot be empty")
	}
	if in.Month < 1 || in.Month > 12 {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Month %d is out of range", in.Month))
	}
	if in.Year < 2000 || in.Year > 2100 {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Year %d is out of range", in.Year))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Amount must be positive")
	}
	if in.LateFeeAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Late fee cannot be negative")
	}
	if in.DiscountAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Discount cannot be negative")
	}
	for _, m := range []struct {
		field  string
		amount decimal.Decimal
	}{
		{"Amount", in.Amount},
		{"Late fee", in.LateFeeAmount},
		{"Discount", in.DiscountAmount},
	} {
		if err := checkMoneyScale(m.field, m.amount); err != nil {
			return nil, err
		}
	}
	total := in.Amount.Add(in.LateFeeAmount).Sub(in.DiscountAmount)
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Discount cannot cover the whole amount")
	}
	if in.DueDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Due date is required")
	}

	v := &FeeVoucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VoucherNumber:     in.VoucherNumber,
		StudentID:         in.StudentID,
		StudentName:       in.StudentName,
		BranchID:          in.BranchID,
		ClassID:           in.ClassID,
		ClassName:         in.ClassName,
		TemplateID:        in.TemplateID,
		Month:             in.Month,
		Year:              in.Year,
		Amount:            in.Amount,
		LateFeeAmount:     in.LateFeeAmount,
		DiscountAmount:    in.DiscountAmount,
		TotalAmount:       total,
		PaidAmount:        decimal.Zero,
		RemainingAmount:   total,
		DueDate:           in.DueDate,
		Status:            VoucherStatusPending,
		Payments:          make([]Payment, 0),
	}
	if in.IssuedBy != uuid.Nil {
		issuedBy := in.IssuedBy
		v.UpdatedBy = &issuedBy
	}

	v.AddDomainEvent(NewVoucherIssuedEvent(v))

	return v, nil
}

// SubmitPaymentInput carries a payer's payment claim
type SubmitPaymentInput struct {
	PaymentID     uuid.UUID // Optional, generated when nil
	PayerID       uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Evidence      Evidence
	TransactionID string
	Remarks       string
	PaymentDate   time.Time // Defaults to now
}

// SubmitPayment appends a pending payment to the history.
// Paid, remaining and status are left untouched.
func (v *FeeVoucher) SubmitPayment(in SubmitPaymentInput) (*Payment, error) {
	if !v.Status.CanAcceptPayment() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot submit payment on voucher in %s status", v.Status))
	}
	if in.PayerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payer ID is required")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	if err := checkMoneyScale("Payment amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Amount.GreaterThan(v.RemainingAmount) {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Payment amount %s exceeds remaining amount %s", in.Amount.StringFixed(2), v.RemainingAmount.StringFixed(2)))
	}
	if in.Evidence.URL == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment evidence is required")
	}
	if !in.Method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Payment method %q is not valid", in.Method))
	}
	if len(in.TransactionID) > 100 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Transaction ID cannot exceed 100 characters")
	}
	if len(in.Remarks) > 500 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Remarks cannot exceed 500 characters")
	}

	id := in.PaymentID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if v.FindPayment(id) != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Payment entry already exists")
	}

	now := time.Now()
	paymentDate := in.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = now
	}

	v.Payments = append(v.Payments, Payment{
		ID:            id,
		VoucherID:     v.ID,
		Amount:        in.Amount,
		PaymentDate:   paymentDate,
		PaymentMethod: in.Method,
		TransactionID: in.TransactionID,
		Screenshot:    in.Evidence,
		Remarks:       in.Remarks,
		Status:        PaymentStatusPending,
		SubmittedBy:   in.PayerID,
		SubmittedAt:   now,
	})
	payment := &v.Payments[len(v.Payments)-1]
	v.UpdatedAt = now

	v.AddDomainEvent(NewPaymentSubmittedEvent(v, payment))

	return payment, nil
}

// DecidePayment moves a pending payment to approved or rejected.
// Approval recomputes the aggregates from the ledger; rejection leaves them
// alone. A payment that is no longer pending yields *AlreadyDecidedError
// together with the payment as it stands.
func (v *FeeVoucher) DecidePayment(paymentID uuid.UUID, decision Decision, actorID uuid.UUID, remarks string) (*Payment, error) {
	if !decision.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Decision %q must be approve or reject", decision))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Deciding user ID is required")
	}
	if len(remarks) > 500 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Remarks cannot exceed 500 characters")
	}
	payment := v.FindPayment(paymentID)
	if payment == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Payment entry not found")
	}
	if !payment.IsPending() {
		return payment, NewAlreadyDecidedError(payment)
	}
	if v.Status == VoucherStatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Cannot decide payments on a cancelled voucher")
	}

	now := time.Now()
	previousStatus := v.Status

	switch decision {
	case DecisionApprove:
		payment.approve(actorID, remarks, now)
		v.recalculate()
		v.AddDomainEvent(NewPaymentApprovedEvent(v, payment))
	case DecisionReject:
		payment.reject(actorID, remarks, now)
		v.AddDomainEvent(NewPaymentRejectedEvent(v, payment))
	}

	v.UpdatedBy = &actorID
	v.UpdatedAt = now

	if previousStatus != VoucherStatusPaid && v.Status == VoucherStatusPaid {
		v.AddDomainEvent(NewVoucherPaidEvent(v))
	}

	return payment, nil
}

// Cancel cancels the voucher. Paid vouchers cannot be cancelled and a
// cancelled voucher accepts nothing further.
func (v *FeeVoucher) Cancel(cancelledBy uuid.UUID, reason string) error {
	if !v.Status.CanCancel() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot cancel voucher in %s status", v.Status))
	}
	if cancelledBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Cancelling user ID is required")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}
	if len(reason) > 500 {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason cannot exceed 500 characters")
	}

	now := time.Now()
	previousStatus := v.Status
	v.Status = VoucherStatusCancelled
	v.CancelledAt = &now
	v.CancelledBy = &cancelledBy
	v.CancelReason = reason
	v.UpdatedBy = &cancelledBy
	v.UpdatedAt = now

	v.AddDomainEvent(NewVoucherCancelledEvent(v, previousStatus))

	return nil
}

// MarkOverdue flags a pending voucher whose due date lies before asOf.
// It reports whether the status changed.
func (v *FeeVoucher) MarkOverdue(asOf time.Time) bool {
	if v.Status != VoucherStatusPending || !v.PaidAmount.IsZero() {
		return false
	}
	if !asOf.After(v.DueDate) {
		return false
	}

	v.Status = VoucherStatusOverdue
	v.UpdatedAt = time.Now()

	v.AddDomainEvent(NewVoucherOverdueEvent(v, asOf))

	return true
}

// FindPayment returns the payment with the given stable ID, or nil
func (v *FeeVoucher) FindPayment(id uuid.UUID) *Payment {
	for i := range v.Payments {
		if v.Payments[i].ID == id {
			return &v.Payments[i]
		}
	}
	return nil
}

// OverpaidAmount returns how much approved payments exceed the total
func (v *FeeVoucher) OverpaidAmount() decimal.Decimal {
	over := v.PaidAmount.Sub(v.TotalAmount)
	if over.IsPositive() {
		return over
	}
	return decimal.Zero
}

// PendingAmount sums the payments that still await a decision
func (v *FeeVoucher) PendingAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range v.Payments {
		if p.IsPending() {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// recalculate derives paid, remaining and status from the payment history
func (v *FeeVoucher) recalculate() {
	paid := decimal.Zero
	for _, p := range v.Payments {
		if p.Status == PaymentStatusApproved {
			paid = paid.Add(p.Amount)
		}
	}
	v.PaidAmount = paid
	v.RemainingAmount = decimal.Max(decimal.Zero, v.TotalAmount.Sub(paid))
	v.Status = v.deriveStatus()
}

func (v *FeeVoucher) deriveStatus() VoucherStatus {
	switch {
	case v.Status == VoucherStatusCancelled:
		return VoucherStatusCancelled
	case v.PaidAmount.IsPositive() && v.RemainingAmount.IsZero():
		return VoucherStatusPaid
	case v.PaidAmount.IsPositive():
		return VoucherStatusPartial
	case v.Status == VoucherStatusOverdue:
		return VoucherStatusOverdue
	default:
		return VoucherStatusPending
	}
}

// CheckInvariants verifies the ledger arithmetic and status derivation
func (v *FeeVoucher) CheckInvariants() error {
	if !v.TotalAmount.Equal(v.Amount.Add(v.LateFeeAmount).Sub(v.DiscountAmount)) {
		return fmt.Errorf("total %s != amount + late fee - discount", v.TotalAmount)
	}
	paid := decimal.Zero
	decided := make(map[uuid.UUID]bool, len(v.Payments))
	for _, p := range v.Payments {
		if decided[p.ID] {
			return fmt.Errorf("payment %s appears twice", p.ID)
		}
		decided[p.ID] = true
		if p.ApprovedBy != nil && p.RejectedBy != nil {
			return fmt.Errorf("payment %s carries both approval and rejection", p.ID)
		}
		if p.Status == PaymentStatusApproved {
			paid = paid.Add(p.Amount)
		}
	}
	if !v.PaidAmount.Equal(paid) {
		return fmt.Errorf("paid %s != sum of approved payments %s", v.PaidAmount, paid)
	}
	remaining := decimal.Max(decimal.Zero, v.TotalAmount.Sub(v.PaidAmount))
	if !v.RemainingAmount.Equal(remaining) {
		return fmt.Errorf("remaining %s != max(0, total - paid) %s", v.RemainingAmount, remaining)
	}
	if v.Status == VoucherStatusCancelled {
		return nil
	}
	isPaid := v.RemainingAmount.IsZero() && v.PaidAmount.IsPositive()
	if (v.Status == VoucherStatusPaid) != isPaid {
		return fmt.Errorf("status %s inconsistent with paid %s remaining %s", v.Status, v.PaidAmount, v.RemainingAmount)
	}
	isPartial := v.PaidAmount.IsPositive() && v.PaidAmount.LessThan(v.TotalAmount)
	if (v.Status == VoucherStatusPartial) != isPartial {
		return fmt.Errorf("status %s inconsistent with paid %s total %s", v.Status, v.PaidAmount, v.TotalAmount)
	}
	return nil
}
