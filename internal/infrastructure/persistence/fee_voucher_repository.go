package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// voucherNumberPrefix starts every fee voucher number
const voucherNumberPrefix = "FV"

// GormFeeVoucherRepository implements fee.FeeVoucherRepository using GORM
type GormFeeVoucherRepository struct {
	db *gorm.DB
}

// NewGormFeeVoucherRepository creates a new GormFeeVoucherRepository
func NewGormFeeVoucherRepository(db *gorm.DB) *GormFeeVoucherRepository {
	return &GormFeeVoucherRepository{db: db}
}

// orderedPayments preloads payments in the order they were appended
func orderedPayments(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

// nextPaymentSeq numbers a new history row after the voucher's last one.
// It runs while the append holds the voucher row, so appends on one voucher
// are numbered one at a time.
const nextPaymentSeq = "(SELECT COALESCE(MAX(seq), 0) + 1 FROM voucher_payments WHERE voucher_id = ?)"

// FindByID finds a fee voucher by ID with its payment history
func (r *GormFeeVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*fee.FeeVoucher, error) {
	var model models.FeeVoucherModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", orderedPayments).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByVoucherNumber finds a fee voucher by its number
func (r *GormFeeVoucherRepository) FindByVoucherNumber(ctx context.Context, voucherNumber string) (*fee.FeeVoucher, error) {
	var model models.FeeVoucherModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", orderedPayments).
		First(&model, "voucher_number = ?", voucherNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists fee vouchers matching the filter, latest period first unless
// the filter names a sort field
func (r *GormFeeVoucherRepository) FindAll(ctx context.Context, filter fee.VoucherFilter) ([]fee.FeeVoucher, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeVoucherModel{})

	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Month > 0 {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize()
	var voucherModels []models.FeeVoucherModel
	if err := query.
		Order(voucherOrderClause(filter.SortBy, filter.SortOrder)).
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&voucherModels).Error; err != nil {
		return nil, 0, err
	}

	vouchers := make([]fee.FeeVoucher, len(voucherModels))
	for i := range voucherModels {
		vouchers[i] = *voucherModels[i].ToDomain()
	}
	return vouchers, total, nil
}

// FindByBranchWithPayments loads all vouchers of a branch with their history
func (r *GormFeeVoucherRepository) FindByBranchWithPayments(ctx context.Context, branchID uuid.UUID) ([]fee.FeeVoucher, error) {
	var voucherModels []models.FeeVoucherModel
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Preload("Payments", orderedPayments).
		Order("created_at DESC").
		Find(&voucherModels).Error; err != nil {
		return nil, err
	}

	vouchers := make([]fee.FeeVoucher, len(voucherModels))
	for i := range voucherModels {
		vouchers[i] = *voucherModels[i].ToDomain()
	}
	return vouchers, nil
}

// FindOverdueCandidates lists pending vouchers with nothing paid that fell due before asOf
func (r *GormFeeVoucherRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]fee.FeeVoucher, error) {
	if limit <= 0 {
		limit = 100
	}
	var voucherModels []models.FeeVoucherModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND paid_amount = 0 AND due_date < ?", fee.VoucherStatusPending, asOf).
		Order("due_date ASC").
		Limit(limit).
		Find(&voucherModels).Error; err != nil {
		return nil, err
	}

	vouchers := make([]fee.FeeVoucher, len(voucherModels))
	for i := range voucherModels {
		vouchers[i] = *voucherModels[i].ToDomain()
	}
	return vouchers, nil
}

// ExistsForPeriod checks for a live voucher of the student in the billing period
func (r *GormFeeVoucherRepository) ExistsForPeriod(ctx context.Context, studentID, branchID uuid.UUID, month, year int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FeeVoucherModel{}).
		Where("student_id = ? AND branch_id = ? AND month = ? AND year = ? AND status <> ?",
			studentID, branchID, month, year, fee.VoucherStatusCancelled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a newly issued voucher together with any payments it carries
func (r *GormFeeVoucherRepository) Create(ctx context.Context, voucher *fee.FeeVoucher) error {
	model := models.FeeVoucherModelFromDomain(voucher)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Voucher number %s already exists", voucher.VoucherNumber))
			}
			return err
		}
		for i := range voucher.Payments {
			if err := tx.Create(paymentRow(&voucher.Payments[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendPayment inserts a pending payment row while the voucher still
// accepts payments. The voucher row is touched under the same condition so
// a concurrent cancellation or settlement cannot be overtaken; its version
// is left alone so appends never invalidate in-flight decisions.
func (r *GormFeeVoucherRepository) AppendPayment(ctx context.Context, voucher *fee.FeeVoucher, payment *fee.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FeeVoucherModel{}).
			Where("id = ? AND status NOT IN ?", voucher.ID,
				[]fee.VoucherStatus{fee.VoucherStatusCancelled, fee.VoucherStatusPaid}).
			Update("updated_at", voucher.UpdatedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fee.ErrVoucherNotSubmittable
		}

		if err := tx.Create(paymentRow(payment)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Payment entry already exists")
			}
			return err
		}
		return tx.Model(&models.VoucherPaymentModel{}).
			Where("id = ?", payment.ID).
			UpdateColumn("seq", gorm.Expr(nextPaymentSeq, voucher.ID)).Error
	})
}

// SaveDecision writes a decided payment and the recomputed voucher in one
// transaction. Both updates are conditional: the payment must still be
// pending and the voucher must still carry the version it was read at.
func (r *GormFeeVoucherRepository) SaveDecision(ctx context.Context, voucher *fee.FeeVoucher, payment *fee.Payment) error {
	now := time.Now()
	paymentModel := models.VoucherPaymentModelFromDomain(payment)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.VoucherPaymentModel{}).
			Where("id = ? AND voucher_id = ? AND status = ?", payment.ID, voucher.ID, fee.PaymentStatusPending).
			Updates(paymentModel.DecisionColumns(now))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fee.ErrPaymentNoLongerPending
		}

		result = tx.Model(&models.FeeVoucherModel{}).
			Where("id = ? AND version = ?", voucher.ID, voucher.Version).
			Updates(map[string]interface{}{
				"paid_amount":      voucher.PaidAmount,
				"remaining_amount": voucher.RemainingAmount,
				"status":           voucher.Status,
				"updated_by":       voucher.UpdatedBy,
				"updated_at":       voucher.UpdatedAt,
				"version":          gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fee.ErrStaleVoucher
		}
		return nil
	})
	if err != nil {
		return err
	}

	voucher.IncrementVersion()
	return nil
}

// SaveWithLock saves the voucher's own fields with optimistic locking
func (r *GormFeeVoucherRepository) SaveWithLock(ctx context.Context, voucher *fee.FeeVoucher) error {
	result := r.db.WithContext(ctx).
		Model(&models.FeeVoucherModel{}).
		Where("id = ? AND version = ?", voucher.ID, voucher.Version).
		Updates(map[string]interface{}{
			"status":           voucher.Status,
			"late_fee_amount":  voucher.LateFeeAmount,
			"discount_amount":  voucher.DiscountAmount,
			"total_amount":     voucher.TotalAmount,
			"paid_amount":      voucher.PaidAmount,
			"remaining_amount": voucher.RemainingAmount,
			"updated_by":       voucher.UpdatedBy,
			"updated_at":       voucher.UpdatedAt,
			"cancelled_at":     voucher.CancelledAt,
			"cancelled_by":     voucher.CancelledBy,
			"cancel_reason":    voucher.CancelReason,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fee.ErrStaleVoucher
	}

	voucher.IncrementVersion()
	return nil
}

// GenerateVoucherNumber returns the next number of a billing period.
// Format: FV-YYYYMM-NNNNNN
func (r *GormFeeVoucherRepository) GenerateVoucherNumber(ctx context.Context, year, month int) (string, error) {
	prefix := fmt.Sprintf("%s-%04d%02d-", voucherNumberPrefix, year, month)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.FeeVoucherModel{}).
		Select("voucher_number").
		Where("voucher_number LIKE ?", prefix+"%").
		Order("voucher_number DESC").
		Limit(1).
		Scan(&maxNumber).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	nextSeq := 1
	if suffix, ok := strings.CutPrefix(maxNumber, prefix); ok {
		if seq, err := strconv.Atoi(suffix); err == nil {
			nextSeq = seq + 1
		}
	}

	return fmt.Sprintf("%s%06d", prefix, nextSeq), nil
}

func paymentRow(p *fee.Payment) *models.VoucherPaymentModel {
	row := models.VoucherPaymentModelFromDomain(p)
	row.CreatedAt = p.SubmittedAt
	row.UpdatedAt = p.SubmittedAt
	return row
}

// Ensure GormFeeVoucherRepository implements the interface
var _ fee.FeeVoucherRepository = (*GormFeeVoucherRepository)(nil)
