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
	"go.uber.org/zap"
)

// Retry defaults for the voucher compare-and-swap loop
const (
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 20 * time.Millisecond
	DefaultMaxBackoff     = 500 * time.Millisecond
)

// ApprovalEngine approves and rejects pending payments. Every decision is
// written as a conditional payment update plus a voucher version check; a
// stale voucher is re-read and the decision re-applied with backoff.
type ApprovalEngine struct {
	repo           fee.FeeVoucherRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ApprovalEngineConfig holds the engine's collaborators and retry policy.
// Zero retry values fall back to the defaults.
type ApprovalEngineConfig struct {
	Repo           fee.FeeVoucherRepository
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.LedgerMetrics
	Logger         *zap.Logger
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewApprovalEngine creates a new ApprovalEngine
func NewApprovalEngine(cfg ApprovalEngineConfig) *ApprovalEngine {
	e := &ApprovalEngine{
		repo:           cfg.Repo,
		eventPublisher: cfg.EventPublisher,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = DefaultMaxAttempts
	}
	if e.initialBackoff <= 0 {
		e.initialBackoff = DefaultInitialBackoff
	}
	if e.maxBackoff < e.initialBackoff {
		e.maxBackoff = max(DefaultMaxBackoff, e.initialBackoff)
	}
	return e
}

func (e *ApprovalEngine) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(e.initialBackoff),
		backoff.WithMaxInterval(e.maxBackoff),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(e.maxAttempts-1)), ctx)
}

// DecidePayment approves or rejects one payment of a voucher on behalf of
// actor. Both the branch route and the platform route land here.
//
// A payment that is no longer pending is not an error: the result carries
// OutcomeAlreadyDecided with the winning decision and nothing is written.
func (e *ApprovalEngine) DecidePayment(ctx context.Context, req DecidePaymentRequest, actor fee.Actor) (*DecisionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "approval_engine", "DecidePayment",
		telemetry.WithAttribute(telemetry.SpanAttrVoucherID, req.VoucherID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentRef, req.PaymentRef),
		telemetry.WithAttribute(telemetry.SpanAttrDecision, string(req.Decision)),
		telemetry.WithAttribute(telemetry.SpanAttrActorRole, string(actor.Role)),
	)
	defer span.End()
	start := time.Now()

	if !req.Decision.IsValid() {
		err := shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Decision %q must be approve or reject", req.Decision))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result *DecisionResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.DecisionLabels(branchLabel(actor.BranchID), string(req.Decision)), func(ctx context.Context) {
		result, err = e.decide(ctx, req, actor)
	})

	branch := branchLabel(actor.BranchID)
	if result != nil {
		branch = result.Voucher.BranchID.String()
	}

	if err != nil {
		outcome := telemetry.OutcomeFailed
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			outcome = telemetry.OutcomeConflict
		}
		e.metrics.RecordDecision(ctx, branch, string(req.Decision), outcome, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, err
	}

	e.metrics.RecordDecision(ctx, branch, string(req.Decision), outcomeMetric(result.Outcome), time.Since(start))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOutcome, string(result.Outcome),
		telemetry.SpanAttrAttempt, result.Attempts,
		telemetry.SpanAttrPaymentID, result.Payment.ID.String(),
		telemetry.SpanAttrVoucherStatus, string(result.Voucher.Status),
	)
	telemetry.SetOK(span)
	return result, nil
}

func (e *ApprovalEngine) decide(ctx context.Context, req DecidePaymentRequest, actor fee.Actor) (*DecisionResult, error) {
	log := logger.L(ctx).With(
		zap.String("voucher_id", req.VoucherID.String()),
		zap.String("payment_ref", req.PaymentRef),
		zap.String("decision", string(req.Decision)),
	)

	var (
		attempts  int
		paymentID uuid.UUID
		committed *fee.FeeVoucher
	)

	operation := func() (*DecisionResult, error) {
		attempts++

		v, err := e.load(ctx, req, actor)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		// Positional refs are resolved against the first read only; the
		// stable id is what every later attempt addresses.
		if paymentID == uuid.Nil {
			if paymentID, err = v.ResolvePaymentRef(req.PaymentRef); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		payment, err := v.DecidePayment(paymentID, req.Decision, actor.ID, req.Remarks)
		var decided *fee.AlreadyDecidedError
		if errors.As(err, &decided) {
			return alreadyDecidedResult(v, paymentID, decided, attempts), nil
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		err = e.repo.SaveDecision(ctx, v, payment)
		switch {
		case err == nil:
			committed = v
			return decidedResult(v, paymentID, req.Decision, attempts), nil

		case errors.Is(err, fee.ErrPaymentNoLongerPending):
			// Another decision on the same payment committed first
			return e.reportWinner(ctx, req.VoucherID, paymentID, attempts)

		case errors.Is(err, fee.ErrStaleVoucher):
			e.metrics.RecordCASConflict(ctx, v.BranchID.String())
			return nil, err

		default:
			return nil, backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		log.Debug("Voucher changed during decision, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	result, err := backoff.RetryNotifyWithData(operation, e.retryPolicy(ctx), notify)
	if err != nil {
		if errors.Is(err, fee.ErrStaleVoucher) {
			log.Warn("Decision abandoned after repeated version conflicts", zap.Int("attempts", attempts))
			return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("Fee voucher kept changing; decision abandoned after %d attempts", attempts))
		}
		return nil, err
	}

	if committed != nil {
		publishEvents(ctx, e.eventPublisher, log, committed)
		log.Info("Payment decided",
			zap.String("payment_id", paymentID.String()),
			zap.String("voucher_status", string(committed.Status)),
			zap.Int("attempts", attempts),
		)
	} else {
		log.Info("Payment was already decided",
			zap.String("payment_id", paymentID.String()),
			zap.String("payment_status", string(result.Payment.Status)),
		)
	}
	return result, nil
}

// load reads the voucher and applies the decision policy
func (e *ApprovalEngine) load(ctx context.Context, req DecidePaymentRequest, actor fee.Actor) (*fee.FeeVoucher, error) {
	v, err := e.repo.FindByID(ctx, req.VoucherID)
	if err != nil {
		return nil, err
	}
	if v == nil || (req.BranchID != nil && *req.BranchID != v.BranchID) {
		return nil, notFound()
	}
	if err := fee.AuthorizeDecision(actor, v); err != nil {
		return nil, err
	}
	return v, nil
}

// reportWinner re-reads the voucher after losing the payment-row race
func (e *ApprovalEngine) reportWinner(ctx context.Context, voucherID, paymentID uuid.UUID, attempts int) (*DecisionResult, error) {
	v, err := e.repo.FindByID(ctx, voucherID)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if v == nil {
		return nil, backoff.Permanent(notFound())
	}
	p := v.FindPayment(paymentID)
	if p == nil {
		return nil, backoff.Permanent(shared.NewDomainError(shared.CodeNotFound, "Payment entry not found"))
	}
	if p.IsPending() {
		// The competing transaction rolled back; try again
		return nil, fee.ErrStaleVoucher
	}
	return alreadyDecidedResult(v, paymentID, fee.NewAlreadyDecidedError(p), attempts), nil
}

func decidedResult(v *fee.FeeVoucher, paymentID uuid.UUID, decision fee.Decision, attempts int) *DecisionResult {
	outcome, message := OutcomeApproved, "Payment approved"
	if decision == fee.DecisionReject {
		outcome, message = OutcomeRejected, "Payment rejected"
	}
	return &DecisionResult{
		Voucher:  ToVoucherSummary(v),
		Payment:  ToPaymentResponse(v, paymentIndex(v, paymentID)),
		Outcome:  outcome,
		Message:  message,
		Attempts: attempts,
	}
}

func alreadyDecidedResult(v *fee.FeeVoucher, paymentID uuid.UUID, decided *fee.AlreadyDecidedError, attempts int) *DecisionResult {
	return &DecisionResult{
		Voucher:  ToVoucherSummary(v),
		Payment:  ToPaymentResponse(v, paymentIndex(v, paymentID)),
		Outcome:  OutcomeAlreadyDecided,
		Message:  decided.Error(),
		Attempts: attempts,
	}
}

func outcomeMetric(o DecisionOutcome) string {
	switch o {
	case OutcomeApproved:
		return telemetry.OutcomeApproved
	case OutcomeRejected:
		return telemetry.OutcomeRejected
	default:
		return telemetry.OutcomeAlreadyDecided
	}
}

// branchLabel renders a branch id for labels, empty for platform actors
func branchLabel(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
