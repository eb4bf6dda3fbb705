package fee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"github.com/feeledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSubmissionInFlight is returned when an idempotency key is held by a
// request that has not finished yet
var ErrSubmissionInFlight = shared.NewDomainError(shared.CodeConcurrencyConflict, "A payment with this idempotency key is still being processed")

// SubmissionService records payer-submitted payment claims. Claims are
// appended in pending status; only the approval engine moves money.
type SubmissionService struct {
	repo           fee.FeeVoucherRepository
	evidence       fee.EvidenceStorage
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// SubmissionServiceConfig holds the submission service collaborators.
// Evidence and Idempotency are optional.
type SubmissionServiceConfig struct {
	Repo           fee.FeeVoucherRepository
	Evidence       fee.EvidenceStorage
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.LedgerMetrics
	Logger         *zap.Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(cfg SubmissionServiceConfig) *SubmissionService {
	s := &SubmissionService{
		repo:           cfg.Repo,
		evidence:       cfg.Evidence,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: cfg.IdempotencyTTL,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.idempotencyTTL <= 0 {
		s.idempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return s
}

// SubmitPayment appends a pending payment whose proof is already stored
func (s *SubmissionService) SubmitPayment(ctx context.Context, req SubmitPaymentRequest, actor fee.Actor) (*PaymentRefResponse, error) {
	return s.submit(ctx, req, nil, actor)
}

// SubmitPaymentWithUpload stores the proof file first and then appends the
// payment referencing it. The stored file is removed if the append fails.
func (s *SubmissionService) SubmitPaymentWithUpload(ctx context.Context, req SubmitPaymentRequest, upload fee.EvidenceUpload, actor fee.Actor) (*PaymentRefResponse, error) {
	if s.evidence == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Evidence upload is not configured")
	}
	return s.submit(ctx, req, &upload, actor)
}

func (s *SubmissionService) submit(ctx context.Context, req SubmitPaymentRequest, upload *fee.EvidenceUpload, actor fee.Actor) (*PaymentRefResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "submission_service", "SubmitPayment",
		telemetry.WithAttribute(telemetry.SpanAttrVoucherID, req.VoucherID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrActorRole, string(actor.Role)),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount.String()),
	)
	defer span.End()

	var (
		resp *PaymentRefResponse
		err  error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.FeeOperationLabels(telemetry.OperationSubmitPayment, branchLabel(actor.BranchID)), func(ctx context.Context) {
		resp, err = s.doSubmit(ctx, req, upload, actor)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, resp.PaymentID.String())
	telemetry.SetOK(span)
	return resp, nil
}

func (s *SubmissionService) doSubmit(ctx context.Context, req SubmitPaymentRequest, upload *fee.EvidenceUpload, actor fee.Actor) (*PaymentRefResponse, error) {
	log := logger.L(ctx).With(zap.String("voucher_id", req.VoucherID.String()))

	v, err := s.repo.FindByID(ctx, req.VoucherID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, notFound()
	}
	if err := fee.AuthorizeSubmission(actor, v); err != nil {
		return nil, err
	}
	if !v.Status.CanAcceptPayment() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot submit payment on voucher in %s status", v.Status))
	}

	paymentID := uuid.New()
	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = submissionKey(actor.ID, v.ID, req.IdempotencyKey)
		stored, reserved, err := s.idempotency.Reserve(ctx, idemKey, paymentID.String(), s.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return s.replay(ctx, v, stored, log)
		}
	}

	resp, err := s.appendPayment(ctx, v, paymentID, req, upload, actor, log)
	if err != nil && idemKey != "" {
		if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), idemKey); releaseErr != nil {
			log.Warn("Failed to release idempotency key", zap.Error(releaseErr))
		}
	}
	return resp, err
}

func (s *SubmissionService) appendPayment(ctx context.Context, v *fee.FeeVoucher, paymentID uuid.UUID, req SubmitPaymentRequest, upload *fee.EvidenceUpload, actor fee.Actor, log *zap.Logger) (*PaymentRefResponse, error) {
	evidence := req.Evidence
	if upload != nil {
		upload.VoucherID = v.ID
		upload.BranchID = v.BranchID
		stored, err := s.evidence.Store(ctx, *upload)
		if err != nil {
			return nil, err
		}
		evidence = stored
	}

	in := fee.SubmitPaymentInput{
		PaymentID:     paymentID,
		PayerID:       actor.ID,
		Amount:        req.Amount,
		Method:        req.Method,
		Evidence:      evidence,
		TransactionID: req.TransactionID,
		Remarks:       req.Remarks,
	}
	if req.PaymentDate != nil {
		in.PaymentDate = *req.PaymentDate
	}

	payment, err := v.SubmitPayment(in)
	if err == nil {
		err = s.repo.AppendPayment(ctx, v, payment)
	}
	if err != nil {
		if upload != nil {
			s.discardEvidence(ctx, evidence, log)
		}
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, log, v)
	s.metrics.RecordSubmission(ctx, v.BranchID.String(), string(payment.PaymentMethod))
	log.Info("Payment submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("method", string(payment.PaymentMethod)),
	)

	return refResponse(v, payment.ID, false), nil
}

// replay answers a repeated idempotency key with the payment it produced.
// v may have been read before the first request committed, so a miss is
// checked again against a fresh read.
func (s *SubmissionService) replay(ctx context.Context, v *fee.FeeVoucher, stored string, log *zap.Logger) (*PaymentRefResponse, error) {
	id, err := uuid.Parse(stored)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency entry %q: %w", stored, err)
	}
	if v.FindPayment(id) == nil {
		fresh, err := s.repo.FindByID(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if fresh == nil || fresh.FindPayment(id) == nil {
			return nil, ErrSubmissionInFlight
		}
		v = fresh
	}
	log.Info("Replayed idempotent payment submission", zap.String("payment_id", id.String()))
	return refResponse(v, id, true), nil
}

func (s *SubmissionService) discardEvidence(ctx context.Context, evidence fee.Evidence, log *zap.Logger) {
	if evidence.StorageKey == "" {
		return
	}
	if err := s.evidence.Delete(context.WithoutCancel(ctx), evidence.StorageKey); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Failed to remove orphaned payment evidence",
			zap.String("storage_key", evidence.StorageKey),
			zap.Error(err),
		)
	}
}

func submissionKey(actorID, voucherID uuid.UUID, key string) string {
	return fmt.Sprintf("payment-submit:%s:%s:%s", actorID, voucherID, key)
}

func refResponse(v *fee.FeeVoucher, paymentID uuid.UUID, replayed bool) *PaymentRefResponse {
	index := paymentIndex(v, paymentID)
	return &PaymentRefResponse{
		VoucherID:     v.ID,
		VoucherNumber: v.VoucherNumber,
		PaymentID:     paymentID,
		Index:         index,
		PaymentRef:    paymentID.String(),
		Status:        v.Payments[index].Status,
		Replayed:      replayed,
	}
}
