package fee

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func newTestVoucher(t *testing.T, total float64) *FeeVoucher {
	t.Helper()
	v, err := NewFeeVoucher(IssueVoucherInput{
		VoucherNumber: "FV-202409-000001",
		StudentID:     uuid.New(),
		StudentName:   "Ayesha Khan",
		BranchID:      uuid.New(),
		ClassID:       uuid.New(),
		ClassName:     "Grade 5 - A",
		TemplateID:    uuid.New(),
		Month:         9,
		Year:          2024,
		Amount:        decimal.NewFromFloat(total),
		DueDate:       time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return v
}

func submit(t *testing.T, v *FeeVoucher, amount float64) *Payment {
	t.Helper()
	p, err := v.SubmitPayment(SubmitPaymentInput{
		PayerID:  uuid.New(),
		Amount:   decimal.NewFromFloat(amount),
		Method:   PaymentMethodBankTransfer,
		Evidence: Evidence{URL: "https://cdn.example.com/proof.jpg", StorageKey: "evidence/proof.jpg"},
	})
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, shared.ErrorCode(err), err.Error())
}

func TestNewFeeVoucher(t *testing.T) {
	v, err := NewFeeVoucher(IssueVoucherInput{
		VoucherNumber:  "FV-202409-000002",
		StudentID:      uuid.New(),
		BranchID:       uuid.New(),
		Month:          9,
		Year:           2024,
		Amount:         decimal.NewFromInt(1000),
		LateFeeAmount:  decimal.NewFromInt(50),
		DiscountAmount: decimal.NewFromInt(150),
		DueDate:        time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	assert.True(t, v.TotalAmount.Equal(decimal.NewFromInt(900)))
	assert.True(t, v.RemainingAmount.Equal(decimal.NewFromInt(900)))
	assert.True(t, v.PaidAmount.IsZero())
	assert.Equal(t, VoucherStatusPending, v.Status)
	assert.Equal(t, 1, v.Version)
	assert.Empty(t, v.Payments)
	require.Len(t, v.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeVoucherIssued, v.GetDomainEvents()[0].EventType())
	assert.NoError(t, v.CheckInvariants())
}

func TestNewFeeVoucher_Validation(t *testing.T) {
	base := IssueVoucherInput{
		VoucherNumber: "FV-1",
		StudentID:     uuid.New(),
		BranchID:      uuid.New(),
		Month:         1,
		Year:          2025,
		Amount:        decimal.NewFromInt(100),
		DueDate:       time.Now(),
	}

	tests := []struct {
		name   string
		mutate func(*IssueVoucherInput)
	}{
		{"empty number", func(in *IssueVoucherInput) { in.VoucherNumber = "" }},
		{"nil student", func(in *IssueVoucherInput) { in.StudentID = uuid.Nil }},
		{"nil branch", func(in *IssueVoucherInput) { in.BranchID = uuid.Nil }},
		{"month 13", func(in *IssueVoucherInput) { in.Month = 13 }},
		{"zero amount", func(in *IssueVoucherInput) { in.Amount = decimal.Zero }},
		{"negative late fee", func(in *IssueVoucherInput) { in.LateFeeAmount = decimal.NewFromInt(-1) }},
		{"discount covers all", func(in *IssueVoucherInput) { in.DiscountAmount = decimal.NewFromInt(100) }},
		{"no due date", func(in *IssueVoucherInput) { in.DueDate = time.Time{} }},
		{"amount below a cent", func(in *IssueVoucherInput) { in.Amount = decimal.RequireFromString("100.005") }},
		{"late fee below a cent", func(in *IssueVoucherInput) { in.LateFeeAmount = decimal.RequireFromString("0.001") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := NewFeeVoucher(in)
			requireCode(t, err, shared.CodeValidation)
		})
	}
}

func TestSubmitPayment_AppendsPendingWithoutTouchingAggregates(t *testing.T) {
	v := newTestVoucher(t, 1000)
	v.ClearDomainEvents()

	p := submit(t, v, 600)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, v.ID, p.VoucherID)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.False(t, p.SubmittedAt.IsZero())
	assert.False(t, p.PaymentDate.IsZero())
	assert.True(t, v.PaidAmount.IsZero())
	assert.True(t, v.RemainingAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, VoucherStatusPending, v.Status)
	require.Len(t, v.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePaymentSubmitted, v.GetDomainEvents()[0].EventType())
}

func TestSubmitPayment_Validation(t *testing.T) {
	v := newTestVoucher(t, 1000)
	valid := SubmitPaymentInput{
		PayerID:  uuid.New(),
		Amount:   decimal.NewFromInt(100),
		Method:   PaymentMethodCash,
		Evidence: Evidence{URL: "https://cdn.example.com/p.png"},
	}

	tests := []struct {
		name   string
		mutate func(*SubmitPaymentInput)
	}{
		{"zero amount", func(in *SubmitPaymentInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *SubmitPaymentInput) { in.Amount = decimal.NewFromInt(-5) }},
		{"exceeds remaining", func(in *SubmitPaymentInput) { in.Amount = decimal.NewFromInt(1001) }},
		{"missing evidence", func(in *SubmitPaymentInput) { in.Evidence = Evidence{} }},
		{"bad method", func(in *SubmitPaymentInput) { in.Method = "barter" }},
		{"no payer", func(in *SubmitPaymentInput) { in.PayerID = uuid.Nil }},
		{"amount that would store as zero", func(in *SubmitPaymentInput) { in.Amount = decimal.RequireFromString("0.00001") }},
		{"amount that would be rounded", func(in *SubmitPaymentInput) { in.Amount = decimal.RequireFromString("0.33335") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := v.SubmitPayment(in)
			requireCode(t, err, shared.CodeValidation)
		})
	}
	assert.Empty(t, v.Payments)
}

func TestSubmitPayment_AcceptsCentsAndTrailingZeros(t *testing.T) {
	v := newTestVoucher(t, 1000)
	for _, amount := range []string{"0.01", "12.50", "99.9900"} {
		_, err := v.SubmitPayment(SubmitPaymentInput{
			PayerID:  uuid.New(),
			Amount:   decimal.RequireFromString(amount),
			Method:   PaymentMethodCash,
			Evidence: Evidence{URL: "https://cdn.example.com/p.png"},
		})
		require.NoError(t, err, amount)
	}
	assert.Len(t, v.Payments, 3)
}

func TestSubmitPayment_UsesSuppliedID(t *testing.T) {
	v := newTestVoucher(t, 1000)
	id := uuid.New()
	in := SubmitPaymentInput{
		PaymentID: id,
		PayerID:   uuid.New(),
		Amount:    decimal.NewFromInt(10),
		Method:    PaymentMethodCash,
		Evidence:  Evidence{URL: "u"},
	}

	p, err := v.SubmitPayment(in)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	_, err = v.SubmitPayment(in)
	requireCode(t, err, shared.CodeAlreadyExists)
}

// Scenario A: partial then paid
func TestScenarioA_PartialThenPaid(t *testing.T) {
	v := newTestVoucher(t, 1000)
	approver := uuid.New()

	p1 := submit(t, v, 600)
	_, err := v.DecidePayment(p1.ID, DecisionApprove, approver, "")
	require.NoError(t, err)

	assert.True(t, v.PaidAmount.Equal(decimal.NewFromInt(600)))
	assert.True(t, v.RemainingAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, VoucherStatusPartial, v.Status)

	p2 := submit(t, v, 400)
	_, err = v.DecidePayment(p2.ID, DecisionApprove, approver, "")
	require.NoError(t, err)

	assert.True(t, v.PaidAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, v.RemainingAmount.IsZero())
	assert.Equal(t, VoucherStatusPaid, v.Status)
	assert.NoError(t, v.CheckInvariants())

	var types []string
	for _, e := range v.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, EventTypeVoucherPaid)
}

// Scenario C: approve then reject the same payment
func TestScenarioC_SecondDecisionIsAlreadyDecided(t *testing.T) {
	v := newTestVoucher(t, 1000)
	branchAdmin := uuid.New()
	platformAdmin := uuid.New()
	p1 := submit(t, v, 500)

	_, err := v.DecidePayment(p1.ID, DecisionApprove, branchAdmin, "")
	require.NoError(t, err)
	paidAfterFirst := v.PaidAmount

	got, err := v.DecidePayment(p1.ID, DecisionReject, platformAdmin, "fake receipt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyDecided))

	var already *AlreadyDecidedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, PaymentStatusApproved, already.Status)
	assert.Equal(t, branchAdmin, already.DecidedBy)
	assert.Contains(t, err.Error(), "already approved by "+branchAdmin.String())

	require.NotNil(t, got)
	assert.Equal(t, PaymentStatusApproved, got.Status)
	assert.Nil(t, got.RejectedBy)
	assert.Empty(t, got.RejectionReason)
	assert.True(t, v.PaidAmount.Equal(paidAfterFirst))
	assert.NoError(t, v.CheckInvariants())
}

// Scenario D: cancelled voucher refuses submissions
func TestScenarioD_CancelledVoucherRejectsSubmission(t *testing.T) {
	v := newTestVoucher(t, 1000)
	require.NoError(t, v.Cancel(uuid.New(), "student withdrew"))

	_, err := v.SubmitPayment(SubmitPaymentInput{
		PayerID:  uuid.New(),
		Amount:   decimal.NewFromInt(100),
		Method:   PaymentMethodCash,
		Evidence: Evidence{URL: "u"},
	})
	requireCode(t, err, shared.CodeInvalidState)
}

func TestDecidePayment_Reject(t *testing.T) {
	v := newTestVoucher(t, 1000)
	p := submit(t, v, 300)
	admin := uuid.New()

	got, err := v.DecidePayment(p.ID, DecisionReject, admin, "blurry screenshot")
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusRejected, got.Status)
	assert.Equal(t, admin, *got.RejectedBy)
	assert.NotNil(t, got.RejectedAt)
	assert.Equal(t, "blurry screenshot", got.RejectionReason)
	assert.Nil(t, got.ApprovedBy)
	assert.True(t, v.PaidAmount.IsZero())
	assert.Equal(t, VoucherStatusPending, v.Status)
	assert.Equal(t, admin, *v.UpdatedBy)
}

func TestDecidePayment_Errors(t *testing.T) {
	v := newTestVoucher(t, 1000)
	p := submit(t, v, 300)

	_, err := v.DecidePayment(p.ID, Decision("maybe"), uuid.New(), "")
	requireCode(t, err, shared.CodeValidation)

	_, err = v.DecidePayment(uuid.New(), DecisionApprove, uuid.New(), "")
	requireCode(t, err, shared.CodeNotFound)

	require.NoError(t, v.Cancel(uuid.New(), "duplicate voucher"))
	_, err = v.DecidePayment(p.ID, DecisionApprove, uuid.New(), "")
	requireCode(t, err, shared.CodeInvalidState)
	assert.Equal(t, PaymentStatusPending, p.Status)
}

func TestDecidePayment_OverdueVoucherBecomesPartial(t *testing.T) {
	v := newTestVoucher(t, 1000)
	p := submit(t, v, 200)
	require.True(t, v.MarkOverdue(v.DueDate.Add(time.Hour)))

	_, err := v.DecidePayment(p.ID, DecisionApprove, uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, VoucherStatusPartial, v.Status)
}

func TestDecidePayment_Overpayment(t *testing.T) {
	v := newTestVoucher(t, 1000)
	p1 := submit(t, v, 700)
	p2 := submit(t, v, 700)

	_, err := v.DecidePayment(p1.ID, DecisionApprove, uuid.New(), "")
	require.NoError(t, err)
	_, err = v.DecidePayment(p2.ID, DecisionApprove, uuid.New(), "")
	require.NoError(t, err)

	assert.True(t, v.RemainingAmount.IsZero())
	assert.Equal(t, VoucherStatusPaid, v.Status)
	assert.True(t, v.OverpaidAmount().Equal(decimal.NewFromInt(400)))
	assert.NoError(t, v.CheckInvariants())
}

func TestCancel(t *testing.T) {
	t.Run("requires reason", func(t *testing.T) {
		v := newTestVoucher(t, 1000)
		requireCode(t, v.Cancel(uuid.New(), ""), shared.CodeValidation)
	})

	t.Run("paid voucher cannot be cancelled", func(t *testing.T) {
		v := newTestVoucher(t, 100)
		p := submit(t, v, 100)
		_, err := v.DecidePayment(p.ID, DecisionApprove, uuid.New(), "")
		require.NoError(t, err)
		requireCode(t, v.Cancel(uuid.New(), "oops"), shared.CodeInvalidState)
	})

	t.Run("cancel twice", func(t *testing.T) {
		v := newTestVoucher(t, 100)
		require.NoError(t, v.Cancel(uuid.New(), "first"))
		requireCode(t, v.Cancel(uuid.New(), "second"), shared.CodeInvalidState)
	})

	t.Run("partial voucher can be cancelled", func(t *testing.T) {
		v := newTestVoucher(t, 1000)
		p := submit(t, v, 100)
		_, err := v.DecidePayment(p.ID, DecisionApprove, uuid.New(), "")
		require.NoError(t, err)
		by := uuid.New()
		require.NoError(t, v.Cancel(by, "family relocated"))
		assert.Equal(t, VoucherStatusCancelled, v.Status)
		assert.Equal(t, by, *v.CancelledBy)
		assert.NoError(t, v.CheckInvariants())
	})
}

func TestMarkOverdue(t *testing.T) {
	v := newTestVoucher(t, 1000)

	assert.False(t, v.MarkOverdue(v.DueDate.Add(-time.Hour)))
	assert.True(t, v.MarkOverdue(v.DueDate.Add(time.Hour)))
	assert.Equal(t, VoucherStatusOverdue, v.Status)
	assert.False(t, v.MarkOverdue(v.DueDate.Add(2*time.Hour)))

	partial := newTestVoucher(t, 1000)
	p := submit(t, partial, 10)
	_, err := partial.DecidePayment(p.ID, DecisionApprove, uuid.New(), "")
	require.NoError(t, err)
	assert.False(t, partial.MarkOverdue(partial.DueDate.Add(time.Hour)))
	assert.Equal(t, VoucherStatusPartial, partial.Status)
}

// Random operation sequences must keep the ledger consistent and never
// credit one payment twice.
func TestLedgerProperties_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for run := 0; run < 200; run++ {
		v := newTestVoucher(t, float64(100+rng.IntN(5000)))
		credited := map[uuid.UUID]int{}

		for step := 0; step < 30; step++ {
			switch op := rng.IntN(10); {
			case op < 4 && v.Status.CanAcceptPayment() && v.RemainingAmount.IsPositive():
				limit := v.RemainingAmount.IntPart()
				if limit < 1 {
					continue
				}
				amount := decimal.NewFromInt(1 + rng.Int64N(limit))
				_, err := v.SubmitPayment(SubmitPaymentInput{
					PayerID:  uuid.New(),
					Amount:   amount,
					Method:   PaymentMethodOnline,
					Evidence: Evidence{URL: "u"},
				})
				require.NoError(t, err)
			case op < 9 && len(v.Payments) > 0:
				target := v.Payments[rng.IntN(len(v.Payments))]
				decision := DecisionApprove
				if rng.IntN(3) == 0 {
					decision = DecisionReject
				}
				before := v.PaidAmount
				wasPending := target.IsPending()
				p, err := v.DecidePayment(target.ID, decision, uuid.New(), "r")
				switch {
				case !wasPending:
					require.ErrorIs(t, err, ErrAlreadyDecided)
					assert.True(t, v.PaidAmount.Equal(before))
				case v.Status == VoucherStatusCancelled:
					requireCode(t, err, shared.CodeInvalidState)
				default:
					require.NoError(t, err)
					if p.Status == PaymentStatusApproved {
						credited[p.ID]++
					}
				}
			case op == 9 && v.Status.CanCancel() && rng.IntN(4) == 0:
				require.NoError(t, v.Cancel(uuid.New(), "random"))
			}
			require.NoError(t, v.CheckInvariants(), "run %d step %d", run, step)
		}

		for id, n := range credited {
			assert.Equal(t, 1, n, "payment %s credited %d times", id, n)
		}
	}
}
