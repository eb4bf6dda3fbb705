package fee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"github.com/feeledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// voucherNumberAttempts bounds retries when two issuers draw the same number
	voucherNumberAttempts = 3
	// DefaultOverdueBatchSize is the number of vouchers read per sweep batch
	DefaultOverdueBatchSize = 200
)

// VoucherService handles the voucher lifecycle around the payment ledger
type VoucherService struct {
	repo             fee.FeeVoucherRepository
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.LedgerMetrics
	logger           *zap.Logger
	overdueBatchSize int
}

// VoucherServiceConfig holds the voucher service collaborators
type VoucherServiceConfig struct {
	Repo             fee.FeeVoucherRepository
	EventPublisher   shared.EventPublisher
	Metrics          *telemetry.LedgerMetrics
	Logger           *zap.Logger
	OverdueBatchSize int
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(cfg VoucherServiceConfig) *VoucherService {
	s := &VoucherService{
		repo:             cfg.Repo,
		eventPublisher:   cfg.EventPublisher,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		overdueBatchSize: cfg.OverdueBatchSize,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.overdueBatchSize <= 0 {
		s.overdueBatchSize = DefaultOverdueBatchSize
	}
	return s
}

// IssueVoucher records a voucher handed over by billing generation.
// Only one live voucher may exist per student, branch and period.
func (s *VoucherService) IssueVoucher(ctx context.Context, branchID uuid.UUID, req IssueVoucherRequest, actor fee.Actor) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher_service", "IssueVoucher",
		telemetry.WithAttribute(telemetry.SpanAttrBranchID, branchID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrStudentID, req.StudentID.String()),
	)
	defer span.End()

	if !fee.CanViewBranch(actor, branchID) {
		err := shared.NewDomainError(shared.CodeForbidden, "Actor is not allowed to issue vouchers for this branch")
		telemetry.RecordError(span, err)
		return nil, err
	}

	exists, err := s.repo.ExistsForPeriod(ctx, req.StudentID, branchID, req.Month, req.Year)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		err := shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("A voucher for %02d/%d already exists for this student", req.Month, req.Year))
		telemetry.RecordError(span, err)
		return nil, err
	}

	in := fee.IssueVoucherInput{
		StudentID:      req.StudentID,
		StudentName:    req.StudentName,
		BranchID:       branchID,
		ClassID:        req.ClassID,
		ClassName:      req.ClassName,
		TemplateID:     req.TemplateID,
		Month:          req.Month,
		Year:           req.Year,
		Amount:         req.Amount,
		LateFeeAmount:  decimalOrZero(req.LateFeeAmount),
		DiscountAmount: decimalOrZero(req.DiscountAmount),
		DueDate:        req.DueDate,
		IssuedBy:       actor.ID,
	}

	var v *fee.FeeVoucher
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationIssueVoucher, branchID.String()), func(ctx context.Context) {
		v, err = s.create(ctx, in)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, logger.L(ctx), v)
	logger.L(ctx).Info("Fee voucher issued",
		zap.String("voucher_id", v.ID.String()),
		zap.String("voucher_number", v.VoucherNumber),
		zap.String("total_amount", v.TotalAmount.String()),
	)

	telemetry.SetAttributes(span, telemetry.SpanAttrVoucherNumber, v.VoucherNumber)
	telemetry.SetOK(span)
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// create draws a voucher number and inserts, drawing again when another
// issuer took the same number first
func (s *VoucherService) create(ctx context.Context, in fee.IssueVoucherInput) (*fee.FeeVoucher, error) {
	var lastErr error
	for range voucherNumberAttempts {
		number, err := s.repo.GenerateVoucherNumber(ctx, in.Year, in.Month)
		if err != nil {
			return nil, err
		}
		in.VoucherNumber = number

		v, err := fee.NewFeeVoucher(in)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, v); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return v, nil
	}
	return nil, lastErr
}

// GetVoucher returns a voucher with its payment history
func (s *VoucherService) GetVoucher(ctx context.Context, id uuid.UUID, actor fee.Actor) (*VoucherResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.viewable(v, actor)
}

// GetVoucherByNumber returns a voucher by its human-readable number
func (s *VoucherService) GetVoucherByNumber(ctx context.Context, number string, actor fee.Actor) (*VoucherResponse, error) {
	v, err := s.repo.FindByVoucherNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.viewable(v, actor)
}

func (s *VoucherService) viewable(v *fee.FeeVoucher, actor fee.Actor) (*VoucherResponse, error) {
	if v == nil {
		return nil, notFound()
	}
	if !fee.CanView(actor, v) {
		// Hide the voucher's existence from actors outside its scope
		return nil, notFound()
	}
	resp := ToVoucherResponse(v)
	return &resp, nil
}

// ListVouchers lists a branch's vouchers without payment history
func (s *VoucherService) ListVouchers(ctx context.Context, branchID uuid.UUID, filter VoucherListFilter, actor fee.Actor) (*shared.Paginated[VoucherSummary], error) {
	if !fee.CanViewBranch(actor, branchID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Actor is not allowed to view vouchers of this branch")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Voucher status %q is not valid", *filter.Status))
	}

	page := shared.Pagination{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	vouchers, total, err := s.repo.FindAll(ctx, fee.VoucherFilter{
		Pagination: page,
		BranchID:   &branchID,
		StudentID:  filter.StudentID,
		Status:     filter.Status,
		Month:      filter.Month,
		Year:       filter.Year,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToVoucherSummaries(vouchers), total, page.Page, page.PageSize)
	return &result, nil
}

// CancelVoucher cancels a voucher that is not yet paid. A concurrent
// decision moves the version; the cancel then re-reads and re-checks.
func (s *VoucherService) CancelVoucher(ctx context.Context, id uuid.UUID, req CancelVoucherRequest, actor fee.Actor) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher_service", "CancelVoucher",
		telemetry.WithAttribute(telemetry.SpanAttrVoucherID, id.String()),
	)
	defer span.End()

	var cancelled *fee.FeeVoucher
	operation := func() error {
		v, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		if v == nil {
			return backoff.Permanent(notFound())
		}
		if err := fee.AuthorizeDecision(actor, v); err != nil {
			return backoff.Permanent(err)
		}
		if err := v.Cancel(actor.ID, req.Reason); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.repo.SaveWithLock(ctx, v); err != nil {
			if errors.Is(err, fee.ErrStaleVoucher) {
				s.metrics.RecordCASConflict(ctx, v.BranchID.String())
				return err
			}
			return backoff.Permanent(err)
		}
		cancelled = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 2), ctx)
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationCancelVoucher, branchLabel(actor.BranchID)), func(context.Context) {
		err = backoff.Retry(operation, policy)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, logger.L(ctx), cancelled)
	logger.L(ctx).Info("Fee voucher cancelled",
		zap.String("voucher_id", cancelled.ID.String()),
		zap.String("reason", cancelled.CancelReason),
	)

	telemetry.SetOK(span)
	resp := ToVoucherResponse(cancelled)
	return &resp, nil
}

// MarkOverdue moves pending, unpaid vouchers due before asOf to overdue.
// Vouchers that change underneath the sweep are skipped until the next run.
func (s *VoucherService) MarkOverdue(ctx context.Context, asOf time.Time) (*OverdueSweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher_service", "MarkOverdue")
	defer span.End()

	result := &OverdueSweepResult{AsOf: asOf, MarkedIDs: make([]uuid.UUID, 0)}
	skipped := make(map[uuid.UUID]bool)

	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationOverdueSweep, ""), func(ctx context.Context) {
		err = s.sweep(ctx, asOf, result, skipped)
	})

	s.metrics.RecordOverdue(ctx, result.Marked)
	telemetry.SetAttributes(span, "scanned", result.Scanned, "marked", result.Marked, "conflicts", result.Conflicts)
	if err != nil {
		telemetry.RecordError(span, err)
		return result, err
	}

	if result.Marked > 0 {
		logger.L(ctx).Info("Overdue sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("marked", result.Marked),
			zap.Int("conflicts", result.Conflicts),
		)
	}
	telemetry.SetOK(span)
	return result, nil
}

func (s *VoucherService) sweep(ctx context.Context, asOf time.Time, result *OverdueSweepResult, skipped map[uuid.UUID]bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		limit := s.overdueBatchSize + len(skipped)
		batch, err := s.repo.FindOverdueCandidates(ctx, asOf, limit)
		if err != nil {
			return err
		}

		progressed := false
		for i := range batch {
			v := &batch[i]
			if skipped[v.ID] {
				continue
			}
			result.Scanned++
			if !v.MarkOverdue(asOf) {
				skipped[v.ID] = true
				continue
			}
			if err := s.repo.SaveWithLock(ctx, v); err != nil {
				if !errors.Is(err, fee.ErrStaleVoucher) {
					return err
				}
				result.Conflicts++
				skipped[v.ID] = true
				continue
			}
			progressed = true
			result.Marked++
			result.MarkedIDs = append(result.MarkedIDs, v.ID)
			publishEvents(ctx, s.eventPublisher, s.logger, v)
		}

		if !progressed || len(batch) < limit {
			return nil
		}
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
