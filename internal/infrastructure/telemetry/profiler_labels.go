package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelBranchID   = "branch_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelDecision   = "decision"
	ProfilingLabelRegion     = "region"
)

// Fee ledger operations used as profiling label values
const (
	OperationSubmitPayment  = "submit_payment"
	OperationDecidePayment  = "decide_payment"
	OperationIssueVoucher   = "issue_voucher"
	OperationCancelVoucher  = "cancel_voucher"
	OperationOverdueSweep   = "overdue_sweep"
	OperationPaymentsReport = "payments_by_status"
)

// MaxLabelValueLength caps label values
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiling labels. Branch ids are
// kept: a deployment serves a bounded set of branches.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"voucher_id": true,
	"payment_id": true,
	"student_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its samples.
// The labels map is copied before use.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is WithProfilingLabels on the plain runtime/pprof API
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long
// values and returns key/value pairs in key order.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range slices.Sorted(maps.Keys(labels)) {
		value := labels[key]
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		if k := sanitizeLabelKey(key); k != "" {
			pairs = append(pairs, k, value)
		}
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and keeps [a-z0-9_]
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == ' ' || c == '-':
			b.WriteByte('_')
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HTTPRequestLabels labels a request by handler, route, method and branch
func HTTPRequestLabels(controller, route, method, branchID string) map[string]string {
	labels := make(map[string]string, 4)
	putNonEmpty(labels, ProfilingLabelController, controller)
	putNonEmpty(labels, ProfilingLabelRoute, route)
	putNonEmpty(labels, ProfilingLabelMethod, method)
	putNonEmpty(labels, ProfilingLabelBranchID, branchID)
	return labels
}

// FeeOperationLabels labels a ledger operation, optionally scoped to a branch
func FeeOperationLabels(operation, branchID string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	putNonEmpty(labels, ProfilingLabelBranchID, branchID)
	return labels
}

// DecisionLabels labels one approval engine run
func DecisionLabels(branchID, decision string) map[string]string {
	labels := FeeOperationLabels(OperationDecidePayment, branchID)
	putNonEmpty(labels, ProfilingLabelDecision, decision)
	return labels
}

// RegionLabels labels a code region such as "cas_write" or "evidence_upload"
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	maps.Copy(labels, extraLabels)
	labels[ProfilingLabelRegion] = region
	return labels
}

func putNonEmpty(labels map[string]string, key, value string) {
	if value != "" {
		labels[key] = value
	}
}
