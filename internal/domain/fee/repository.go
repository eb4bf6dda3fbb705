package fee

import (
	"context"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Storage-level write outcomes. Repositories return these so the approval
// engine can tell a lost race on the payment row apart from a stale voucher.
var (
	// ErrPaymentNoLongerPending means the conditional payment update matched no row
	ErrPaymentNoLongerPending = shared.NewDomainError(shared.CodeAlreadyDecided, "Payment is no longer pending")
	// ErrStaleVoucher means the voucher version moved since it was read
	ErrStaleVoucher = shared.NewDomainError(shared.CodeConcurrencyConflict, "Fee voucher was modified by another process")
	// ErrVoucherNotSubmittable means the voucher left an open status before the append committed
	ErrVoucherNotSubmittable = shared.NewDomainError(shared.CodeInvalidState, "Fee voucher no longer accepts payments")
)

// VoucherFilter defines filtering options for voucher queries
type VoucherFilter struct {
	shared.Pagination
	BranchID  *uuid.UUID
	StudentID *uuid.UUID
	Status    *VoucherStatus
	Month     int
	Year      int
	SortBy    string
	SortOrder string
}

// FeeVoucherRepository persists fee vouchers and their payment history.
// Find methods return (nil, nil) when nothing matches. Loaded vouchers carry
// their payments in submission order.
type FeeVoucherRepository interface {
	// FindByID finds a voucher with its payment history
	FindByID(ctx context.Context, id uuid.UUID) (*FeeVoucher, error)

	// FindByVoucherNumber finds a voucher by its human-readable number
	FindByVoucherNumber(ctx context.Context, voucherNumber string) (*FeeVoucher, error)

	// FindAll lists vouchers without payment history, returning the total count
	FindAll(ctx context.Context, filter VoucherFilter) ([]FeeVoucher, int64, error)

	// FindByBranchWithPayments loads every voucher of a branch with its history
	FindByBranchWithPayments(ctx context.Context, branchID uuid.UUID) ([]FeeVoucher, error)

	// FindOverdueCandidates lists pending vouchers due before asOf
	FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]FeeVoucher, error)

	// ExistsForPeriod reports whether a live (not cancelled) voucher exists
	// for the student, branch and billing period
	ExistsForPeriod(ctx context.Context, studentID, branchID uuid.UUID, month, year int) (bool, error)

	// Create inserts a newly issued voucher
	Create(ctx context.Context, voucher *FeeVoucher) error

	// AppendPayment inserts a pending payment row. The insert only commits
	// while the voucher still accepts payments; it does not move the version.
	AppendPayment(ctx context.Context, voucher *FeeVoucher, payment *Payment) error

	// SaveDecision atomically writes a decided payment and the voucher
	// aggregates. The payment update is conditional on the row still being
	// pending (ErrPaymentNoLongerPending) and the voucher update on the
	// version read (ErrStaleVoucher). On success the voucher version moves on.
	SaveDecision(ctx context.Context, voucher *FeeVoucher, payment *Payment) error

	// SaveWithLock writes the voucher's own fields guarded by its version
	SaveWithLock(ctx context.Context, voucher *FeeVoucher) error

	// GenerateVoucherNumber returns the next number for a billing period
	GenerateVoucherNumber(ctx context.Context, year, month int) (string, error)
}
