package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Decision outcomes recorded on feeledger_payment_decisions_total
const (
	OutcomeApproved       = "approved"
	OutcomeRejected       = "rejected"
	OutcomeAlreadyDecided = "already_decided"
	OutcomeConflict       = "conflict"
	OutcomeFailed         = "failed"
)

// LedgerMetrics holds the fee ledger's business instruments.
// A nil *LedgerMetrics records nothing, so services can run without metrics.
type LedgerMetrics struct {
	decisionsTotal   *Counter
	casConflicts     *Counter
	decisionDuration *Histogram
	submissionsTotal *Counter
	overdueMarked    *Counter
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &LedgerMetrics{}
	var err error

	if m.decisionsTotal, err = NewCounter(meter,
		"feeledger_payment_decisions_total",
		"Payment decisions by outcome",
		"{decision}",
	); err != nil {
		return nil, err
	}

	if m.casConflicts, err = NewCounter(meter,
		"feeledger_voucher_cas_conflicts_total",
		"Voucher version compare-and-swap failures that triggered a retry",
		"{conflict}",
	); err != nil {
		return nil, err
	}

	if m.decisionDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "feeledger_payment_decision_duration_seconds",
		Description: "Time to decide a payment including retries",
		Unit:        "s",
		Boundaries:  DecisionDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if m.submissionsTotal, err = NewCounter(meter,
		"feeledger_payment_submissions_total",
		"Payment claims appended to voucher ledgers",
		"{payment}",
	); err != nil {
		return nil, err
	}

	if m.overdueMarked, err = NewCounter(meter,
		"feeledger_vouchers_overdue_total",
		"Vouchers moved to overdue by the sweeper",
		"{voucher}",
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDecision records one finished decision run
func (m *LedgerMetrics) RecordDecision(ctx context.Context, branchID, decision, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrBranchID.String(branchID),
		AttrDecision.String(decision),
		AttrOutcome.String(outcome),
	}
	m.decisionsTotal.Inc(ctx, attrs...)
	m.decisionDuration.RecordDuration(ctx, elapsed, attrs...)
}

// RecordCASConflict records a stale-version retry
func (m *LedgerMetrics) RecordCASConflict(ctx context.Context, branchID string) {
	if m == nil {
		return
	}
	m.casConflicts.Inc(ctx, AttrBranchID.String(branchID))
}

// RecordSubmission records an appended payment claim
func (m *LedgerMetrics) RecordSubmission(ctx context.Context, branchID, method string) {
	if m == nil {
		return
	}
	m.submissionsTotal.Inc(ctx, AttrBranchID.String(branchID), AttrPaymentMethod.String(method))
}

// RecordOverdue records vouchers flagged overdue in one sweep
func (m *LedgerMetrics) RecordOverdue(ctx context.Context, count int) {
	if m == nil || count == 0 {
		return
	}
	m.overdueMarked.Add(ctx, int64(count))
}
