package fee

import (
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Voucher DTOs ====================

// IssueVoucherRequest carries a voucher produced by billing generation
type IssueVoucherRequest struct {
	StudentID      uuid.UUID        `json:"student_id" binding:"required"`
	StudentName    string           `json:"student_name" binding:"required,min=1,max=200"`
	ClassID        uuid.UUID        `json:"class_id"`
	ClassName      string           `json:"class_name" binding:"max=100"`
	TemplateID     uuid.UUID        `json:"template_id"`
	Month          int              `json:"month" binding:"required,min=1,max=12"`
	Year           int              `json:"year" binding:"required,min=2000,max=2100"`
	Amount         decimal.Decimal  `json:"amount" binding:"required"`
	LateFeeAmount  *decimal.Decimal `json:"late_fee_amount"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	DueDate        time.Time        `json:"due_date" binding:"required"`
}

// CancelVoucherRequest carries the reason for cancelling a voucher
type CancelVoucherRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// VoucherListFilter narrows a voucher listing
type VoucherListFilter struct {
	StudentID *uuid.UUID         `form:"student_id"`
	Status    *fee.VoucherStatus `form:"status"`
	Month     int                `form:"month" binding:"omitempty,min=1,max=12"`
	Year      int                `form:"year" binding:"omitempty,min=2000,max=2100"`
	Page      int                `form:"page" binding:"omitempty,min=1"`
	PageSize  int                `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string             `form:"sort_by"`
	SortOrder string             `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// VoucherSummary is the aggregate state of a voucher without its history
type VoucherSummary struct {
	ID              uuid.UUID         `json:"id"`
	VoucherNumber   string            `json:"voucher_number"`
	BranchID        uuid.UUID         `json:"branch_id"`
	StudentID       uuid.UUID         `json:"student_id"`
	StudentName     string            `json:"student_name"`
	ClassName       string            `json:"class_name"`
	Month           int               `json:"month"`
	Year            int               `json:"year"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	RemainingAmount decimal.Decimal   `json:"remaining_amount"`
	OverpaidAmount  decimal.Decimal   `json:"overpaid_amount"`
	DueDate         time.Time         `json:"due_date"`
	Status          fee.VoucherStatus `json:"status"`
	Version         int               `json:"version"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// VoucherResponse is a voucher with its full payment history
type VoucherResponse struct {
	VoucherSummary
	ClassID        uuid.UUID         `json:"class_id"`
	TemplateID     uuid.UUID         `json:"template_id"`
	Amount         decimal.Decimal   `json:"amount"`
	LateFeeAmount  decimal.Decimal   `json:"late_fee_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	PendingAmount  decimal.Decimal   `json:"pending_amount"`
	Payments       []PaymentResponse `json:"payment_history"`
	UpdatedBy      *uuid.UUID        `json:"updated_by,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	CancelledBy    *uuid.UUID        `json:"cancelled_by,omitempty"`
	CancelReason   string            `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToVoucherSummary converts a domain voucher to its summary
func ToVoucherSummary(v *fee.FeeVoucher) VoucherSummary {
	return VoucherSummary{
		ID:              v.ID,
		VoucherNumber:   v.VoucherNumber,
		BranchID:        v.BranchID,
		StudentID:       v.StudentID,
		StudentName:     v.StudentName,
		ClassName:       v.ClassName,
		Month:           v.Month,
		Year:            v.Year,
		TotalAmount:     v.TotalAmount,
		PaidAmount:      v.PaidAmount,
		RemainingAmount: v.RemainingAmount,
		OverpaidAmount:  v.OverpaidAmount(),
		DueDate:         v.DueDate,
		Status:          v.Status,
		Version:         v.GetVersion(),
		UpdatedAt:       v.UpdatedAt,
	}
}

// ToVoucherSummaries converts a slice of vouchers
func ToVoucherSummaries(vouchers []fee.FeeVoucher) []VoucherSummary {
	out := make([]VoucherSummary, len(vouchers))
	for i := range vouchers {
		out[i] = ToVoucherSummary(&vouchers[i])
	}
	return out
}

// ToVoucherResponse converts a domain voucher with its history
func ToVoucherResponse(v *fee.FeeVoucher) VoucherResponse {
	payments := make([]PaymentResponse, len(v.Payments))
	for i := range v.Payments {
		payments[i] = ToPaymentResponse(v, i)
	}
	return VoucherResponse{
		VoucherSummary: ToVoucherSummary(v),
		ClassID:        v.ClassID,
		TemplateID:     v.TemplateID,
		Amount:         v.Amount,
		LateFeeAmount:  v.LateFeeAmount,
		DiscountAmount: v.DiscountAmount,
		PendingAmount:  v.PendingAmount(),
		Payments:       payments,
		UpdatedBy:      v.UpdatedBy,
		CancelledAt:    v.CancelledAt,
		CancelledBy:    v.CancelledBy,
		CancelReason:   v.CancelReason,
		CreatedAt:      v.CreatedAt,
	}
}

// ==================== Payment DTOs ====================

// SubmitPaymentRequest is a payer's claim with an already stored proof
type SubmitPaymentRequest struct {
	VoucherID      uuid.UUID         `json:"-"`
	Amount         decimal.Decimal   `json:"amount" binding:"required"`
	Method         fee.PaymentMethod `json:"payment_method" binding:"required"`
	Evidence       fee.Evidence      `json:"screenshot"`
	TransactionID  string            `json:"transaction_id" binding:"max=100"`
	Remarks        string            `json:"remarks" binding:"max=500"`
	PaymentDate    *time.Time        `json:"payment_date"`
	IdempotencyKey string            `json:"-"` // From the Idempotency-Key header
}

// PaymentRefResponse identifies a newly submitted payment
type PaymentRefResponse struct {
	VoucherID     uuid.UUID         `json:"voucher_id"`
	VoucherNumber string            `json:"voucher_number"`
	PaymentID     uuid.UUID         `json:"payment_id"`
	Index         int               `json:"index"`       // History position, display only
	PaymentRef    string            `json:"payment_ref"` // Stable payment id
	Status        fee.PaymentStatus `json:"status"`
	Replayed      bool              `json:"replayed,omitempty"`
}

// PaymentResponse is one entry of a voucher's payment history
type PaymentResponse struct {
	ID              uuid.UUID         `json:"id"`
	Index           int               `json:"index"`
	PaymentRef      string            `json:"payment_ref"`
	Amount          decimal.Decimal   `json:"amount"`
	PaymentDate     time.Time         `json:"payment_date"`
	PaymentMethod   fee.PaymentMethod `json:"payment_method"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	Screenshot      fee.Evidence      `json:"screenshot"`
	Remarks         string            `json:"remarks,omitempty"`
	Status          fee.PaymentStatus `json:"status"`
	SubmittedBy     uuid.UUID         `json:"submitted_by"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	ApprovedBy      *uuid.UUID        `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID        `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	DecisionRemarks string            `json:"decision_remarks,omitempty"`
}

// ToPaymentResponse converts the payment at index of v's history
func ToPaymentResponse(v *fee.FeeVoucher, index int) PaymentResponse {
	p := &v.Payments[index]
	return PaymentResponse{
		ID:              p.ID,
		Index:           index,
		PaymentRef:      p.ID.String(),
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		PaymentMethod:   p.PaymentMethod,
		TransactionID:   p.TransactionID,
		Screenshot:      p.Screenshot,
		Remarks:         p.Remarks,
		Status:          p.Status,
		SubmittedBy:     p.SubmittedBy,
		SubmittedAt:     p.SubmittedAt,
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      p.ApprovedAt,
		RejectedBy:      p.RejectedBy,
		RejectedAt:      p.RejectedAt,
		RejectionReason: p.RejectionReason,
		DecisionRemarks: p.DecisionRemarks,
	}
}

// paymentIndex returns the history position of id, or -1
func paymentIndex(v *fee.FeeVoucher, id uuid.UUID) int {
	for i := range v.Payments {
		if v.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

// ==================== Decision DTOs ====================

// DecisionOutcome tells the caller what a decision request achieved
type DecisionOutcome string

const (
	OutcomeApproved       DecisionOutcome = "APPROVED"
	OutcomeRejected       DecisionOutcome = "REJECTED"
	OutcomeAlreadyDecided DecisionOutcome = "ALREADY_DECIDED"
)

// DecidePaymentRequest asks to approve or reject one payment entry.
// PaymentRef accepts the stable id, a history index or voucherId:index.
// BranchID, when set, scopes the voucher lookup to that branch.
type DecidePaymentRequest struct {
	VoucherID  uuid.UUID    `json:"-"`
	BranchID   *uuid.UUID   `json:"-"`
	PaymentRef string       `json:"-"`
	Decision   fee.Decision `json:"decision" binding:"required,oneof=approve reject"`
	Remarks    string       `json:"remarks" binding:"max=500"`
}

// DecisionResult is the voucher and payment after a decision request
type DecisionResult struct {
	Voucher  VoucherSummary  `json:"voucher"`
	Payment  PaymentResponse `json:"payment"`
	Outcome  DecisionOutcome `json:"outcome"`
	Message  string          `json:"message"`
	Attempts int             `json:"attempts"`
}

// ==================== Reporting DTOs ====================

// PaymentReportItem is a payment flattened with its voucher context
type PaymentReportItem struct {
	PaymentResponse
	VoucherID     uuid.UUID `json:"voucher_id"`
	VoucherNumber string    `json:"voucher_number"`
	StudentID     uuid.UUID `json:"student_id"`
	StudentName   string    `json:"student_name"`
	ClassName     string    `json:"class_name"`
	Month         int       `json:"month"`
	Year          int       `json:"year"`
}

// PaymentBucket groups the payments of one status
type PaymentBucket struct {
	Count       int                 `json:"count"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Items       []PaymentReportItem `json:"items"`
}

// PaymentsByStatus is the branch payment report
type PaymentsByStatus struct {
	BranchID    uuid.UUID     `json:"branch_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Pending     PaymentBucket `json:"pending"`
	Approved    PaymentBucket `json:"approved"`
	Rejected    PaymentBucket `json:"rejected"`
}

// ==================== Sweep DTOs ====================

// OverdueSweepResult reports one run of the overdue sweep
type OverdueSweepResult struct {
	AsOf      time.Time   `json:"as_of"`
	Scanned   int         `json:"scanned"`
	Marked    int         `json:"marked"`
	Conflicts int         `json:"conflicts"`
	MarkedIDs []uuid.UUID `json:"marked_ids"`
}
