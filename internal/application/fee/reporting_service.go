package fee

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportingService is the read-only payment projection of a branch
type ReportingService struct {
	repo fee.FeeVoucherRepository
}

// NewReportingService creates a new ReportingService
func NewReportingService(repo fee.FeeVoucherRepository) *ReportingService {
	return &ReportingService{repo: repo}
}

// ListPaymentsByStatus flattens every payment of a branch into pending,
// approved and rejected buckets. Each bucket is sorted most recent first:
// pending by submission time, decided ones by decision time.
func (s *ReportingService) ListPaymentsByStatus(ctx context.Context, branchID uuid.UUID, actor fee.Actor) (*PaymentsByStatus, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting_service", "ListPaymentsByStatus",
		telemetry.WithAttribute(telemetry.SpanAttrBranchID, branchID.String()),
	)
	defer span.End()

	if !fee.CanViewBranch(actor, branchID) {
		err := shared.NewDomainError(shared.CodeForbidden, "Actor is not allowed to view payments of this branch")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		vouchers []fee.FeeVoucher
		err      error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationPaymentsReport, branchID.String()), func(ctx context.Context) {
		vouchers, err = s.repo.FindByBranchWithPayments(ctx, branchID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &PaymentsByStatus{
		BranchID:    branchID,
		GeneratedAt: time.Now(),
		Pending:     newBucket(),
		Approved:    newBucket(),
		Rejected:    newBucket(),
	}

	for i := range vouchers {
		v := &vouchers[i]
		for idx := range v.Payments {
			item := PaymentReportItem{
				PaymentResponse: ToPaymentResponse(v, idx),
				VoucherID:       v.ID,
				VoucherNumber:   v.VoucherNumber,
				StudentID:       v.StudentID,
				StudentName:     v.StudentName,
				ClassName:       v.ClassName,
				Month:           v.Month,
				Year:            v.Year,
			}
			switch v.Payments[idx].Status {
			case fee.PaymentStatusPending:
				report.Pending.add(item)
			case fee.PaymentStatusApproved:
				report.Approved.add(item)
			case fee.PaymentStatusRejected:
				report.Rejected.add(item)
			}
		}
	}

	report.Pending.sort(func(p PaymentResponse) time.Time { return p.SubmittedAt })
	report.Approved.sort(func(p PaymentResponse) time.Time { return derefTime(p.ApprovedAt, p.SubmittedAt) })
	report.Rejected.sort(func(p PaymentResponse) time.Time { return derefTime(p.RejectedAt, p.SubmittedAt) })

	telemetry.SetAttributes(span,
		"pending_count", report.Pending.Count,
		"approved_count", report.Approved.Count,
		"rejected_count", report.Rejected.Count,
	)
	telemetry.SetOK(span)
	return report, nil
}

func newBucket() PaymentBucket {
	return PaymentBucket{TotalAmount: decimal.Zero, Items: make([]PaymentReportItem, 0)}
}

func (b *PaymentBucket) add(item PaymentReportItem) {
	b.Items = append(b.Items, item)
	b.Count++
	b.TotalAmount = b.TotalAmount.Add(item.Amount)
}

// sort orders items most recent first, ties broken by payment id
func (b *PaymentBucket) sort(at func(PaymentResponse) time.Time) {
	slices.SortStableFunc(b.Items, func(x, y PaymentReportItem) int {
		if c := at(y.PaymentResponse).Compare(at(x.PaymentResponse)); c != 0 {
			return c
		}
		return cmp.Compare(x.ID.String(), y.ID.String())
	})
}

func derefTime(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}
