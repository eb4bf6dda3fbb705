package models

import (
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeVoucherModel is the persistence model for the FeeVoucher aggregate root.
type FeeVoucherModel struct {
	AggregateModel
	VoucherNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_fee_vouchers_number"`
	StudentID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_fee_vouchers_period,priority:1"`
	StudentName     string                `gorm:"type:varchar(200)"`
	BranchID        uuid.UUID             `gorm:"type:uuid;not null;index;index:idx_fee_vouchers_period,priority:2"`
	ClassID         uuid.UUID             `gorm:"type:uuid"`
	ClassName       string                `gorm:"type:varchar(100)"`
	TemplateID      uuid.UUID             `gorm:"type:uuid"`
	Month           int                   `gorm:"not null;index:idx_fee_vouchers_period,priority:4"`
	Year            int                   `gorm:"not null;index:idx_fee_vouchers_period,priority:3"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	LateFeeAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount  decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DueDate         time.Time             `gorm:"not null;index"`
	Status          fee.VoucherStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Payments        []VoucherPaymentModel `gorm:"foreignKey:VoucherID;references:ID"`
	UpdatedBy       *uuid.UUID            `gorm:"type:uuid"`
	CancelledAt     *time.Time
	CancelledBy     *uuid.UUID `gorm:"type:uuid"`
	CancelReason    string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (FeeVoucherModel) TableName() string {
	return "fee_vouchers"
}

// ToDomain converts the persistence model to a domain FeeVoucher.
func (m *FeeVoucherModel) ToDomain() *fee.FeeVoucher {
	v := &fee.FeeVoucher{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VoucherNumber:     m.VoucherNumber,
		StudentID:         m.StudentID,
		StudentName:       m.StudentName,
		BranchID:          m.BranchID,
		ClassID:           m.ClassID,
		ClassName:         m.ClassName,
		TemplateID:        m.TemplateID,
		Month:             m.Month,
		Year:              m.Year,
		Amount:            m.Amount,
		LateFeeAmount:     m.LateFeeAmount,
		DiscountAmount:    m.DiscountAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		RemainingAmount:   m.RemainingAmount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		UpdatedBy:         m.UpdatedBy,
		CancelledAt:       m.CancelledAt,
		CancelledBy:       m.CancelledBy,
		CancelReason:      m.CancelReason,
		Payments:          make([]fee.Payment, len(m.Payments)),
	}
	for i := range m.Payments {
		v.Payments[i] = *m.Payments[i].ToDomain()
	}
	return v
}

// FromDomain populates the persistence model from a domain FeeVoucher.
// Payments are written through their own rows and are not copied here.
func (m *FeeVoucherModel) FromDomain(v *fee.FeeVoucher) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.VoucherNumber = v.VoucherNumber
	m.StudentID = v.StudentID
	m.StudentName = v.StudentName
	m.BranchID = v.BranchID
	m.ClassID = v.ClassID
	m.ClassName = v.ClassName
	m.TemplateID = v.TemplateID
	m.Month = v.Month
	m.Year = v.Year
	m.Amount = v.Amount
	m.LateFeeAmount = v.LateFeeAmount
	m.DiscountAmount = v.DiscountAmount
	m.TotalAmount = v.TotalAmount
	m.PaidAmount = v.PaidAmount
	m.RemainingAmount = v.RemainingAmount
	m.DueDate = v.DueDate
	m.Status = v.Status
	m.UpdatedBy = v.UpdatedBy
	m.CancelledAt = v.CancelledAt
	m.CancelledBy = v.CancelledBy
	m.CancelReason = v.CancelReason
}

// FeeVoucherModelFromDomain creates a new persistence model from domain.
func FeeVoucherModelFromDomain(v *fee.FeeVoucher) *FeeVoucherModel {
	m := &FeeVoucherModel{}
	m.FromDomain(v)
	return m
}

// VoucherPaymentModel is the persistence model for one entry of a voucher's
// payment history. Seq is assigned by the database when the row is appended
// and fixes the history order.
type VoucherPaymentModel struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key"`
	VoucherID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_payments_seq,priority:1"`
	Seq             int64             `gorm:"not null;default:0;uniqueIndex:idx_voucher_payments_seq,priority:2"`
	Amount          decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PaymentDate     time.Time         `gorm:"not null"`
	PaymentMethod   fee.PaymentMethod `gorm:"type:varchar(30);not null"`
	TransactionID   string            `gorm:"type:varchar(100)"`
	ScreenshotURL   string            `gorm:"type:varchar(1024);not null"`
	ScreenshotKey   string            `gorm:"type:varchar(512)"`
	Remarks         string            `gorm:"type:varchar(500)"`
	Status          fee.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	SubmittedBy     uuid.UUID         `gorm:"type:uuid;not null"`
	SubmittedAt     time.Time         `gorm:"not null"`
	ApprovedBy      *uuid.UUID        `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectionReason string    `gorm:"type:varchar(500)"`
	DecisionRemarks string    `gorm:"type:varchar(500)"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VoucherPaymentModel) TableName() string {
	return "voucher_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *VoucherPaymentModel) ToDomain() *fee.Payment {
	return &fee.Payment{
		ID:              m.ID,
		VoucherID:       m.VoucherID,
		Amount:          m.Amount,
		PaymentDate:     m.PaymentDate,
		PaymentMethod:   m.PaymentMethod,
		TransactionID:   m.TransactionID,
		Screenshot:      fee.Evidence{URL: m.ScreenshotURL, StorageKey: m.ScreenshotKey},
		Remarks:         m.Remarks,
		Status:          m.Status,
		SubmittedBy:     m.SubmittedBy,
		SubmittedAt:     m.SubmittedAt,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		RejectedBy:      m.RejectedBy,
		RejectedAt:      m.RejectedAt,
		RejectionReason: m.RejectionReason,
		DecisionRemarks: m.DecisionRemarks,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *VoucherPaymentModel) FromDomain(p *fee.Payment) {
	m.ID = p.ID
	m.VoucherID = p.VoucherID
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.PaymentMethod = p.PaymentMethod
	m.TransactionID = p.TransactionID
	m.ScreenshotURL = p.Screenshot.URL
	m.ScreenshotKey = p.Screenshot.StorageKey
	m.Remarks = p.Remarks
	m.Status = p.Status
	m.SubmittedBy = p.SubmittedBy
	m.SubmittedAt = p.SubmittedAt
	m.ApprovedBy = p.ApprovedBy
	m.ApprovedAt = p.ApprovedAt
	m.RejectedBy = p.RejectedBy
	m.RejectedAt = p.RejectedAt
	m.RejectionReason = p.RejectionReason
	m.DecisionRemarks = p.DecisionRemarks
}

// VoucherPaymentModelFromDomain creates a new persistence model from domain.
func VoucherPaymentModelFromDomain(p *fee.Payment) *VoucherPaymentModel {
	m := &VoucherPaymentModel{}
	m.FromDomain(p)
	return m
}

// DecisionColumns returns the columns a decision writes on a payment row
func (m *VoucherPaymentModel) DecisionColumns(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":           m.Status,
		"approved_by":      m.ApprovedBy,
		"approved_at":      m.ApprovedAt,
		"rejected_by":      m.RejectedBy,
		"rejected_at":      m.RejectedAt,
		"rejection_reason": m.RejectionReason,
		"decision_remarks": m.DecisionRemarks,
		"updated_at":       now,
	}
}
