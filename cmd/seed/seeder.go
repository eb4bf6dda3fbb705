package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seedOptions controls the size of the generated data set
type seedOptions struct {
	Branches          int
	StudentsPerBranch int
	Months            int
	// Year and StartMonth give the first billing period
	Year       int
	StartMonth int
	Seed       uint64
}

// seedBranch is one generated branch and its people
type seedBranch struct {
	ID       uuid.UUID
	Admin    fee.Actor
	Parents  []fee.Actor
	Vouchers []uuid.UUID
}

// seedResult summarises what was written
type seedResult struct {
	Branches   []seedBranch
	SuperAdmin fee.Actor
	Vouchers   int
	Payments   int
	Approved   int
	Rejected   int
}

// seeder drives the application services to build demo data, so every
// voucher and payment goes through the same rules as live traffic
type seeder struct {
	vouchers    *feeapp.VoucherService
	submissions *feeapp.SubmissionService
	approvals   *feeapp.ApprovalEngine
	faker       *gofakeit.Faker
	logger      *zap.Logger
}

func newSeeder(vouchers *feeapp.VoucherService, submissions *feeapp.SubmissionService, approvals *feeapp.ApprovalEngine, seed uint64, logger *zap.Logger) *seeder {
	return &seeder{
		vouchers:    vouchers,
		submissions: submissions,
		approvals:   approvals,
		faker:       gofakeit.New(seed),
		logger:      logger,
	}
}

var seedMethods = []string{
	string(fee.PaymentMethodCash),
	string(fee.PaymentMethodBankTransfer),
	string(fee.PaymentMethodOnline),
	string(fee.PaymentMethodMobileWallet),
}

func (s *seeder) run(ctx context.Context, opts seedOptions) (*seedResult, error) {
	result := &seedResult{
		SuperAdmin: fee.Actor{ID: uuid.New(), Role: fee.RoleSuperAdmin},
	}

	for b := 0; b < opts.Branches; b++ {
		branch := seedBranch{ID: uuid.New()}
		branch.Admin = fee.Actor{ID: uuid.New(), Role: fee.RoleBranchAdmin, BranchID: branch.ID}

		classID := uuid.New()
		className := fmt.Sprintf("Grade %d", s.faker.Number(1, 10))
		for st := 0; st < opts.StudentsPerBranch; st++ {
			studentID := uuid.New()
			studentName := s.faker.Name()
			parent := fee.Actor{
				ID:         uuid.New(),
				Role:       fee.RoleParent,
				BranchID:   branch.ID,
				StudentIDs: []uuid.UUID{studentID},
			}
			branch.Parents = append(branch.Parents, parent)

			for m := 0; m < opts.Months; m++ {
				month, year := periodAt(opts.Year, opts.StartMonth, m)
				amount := decimal.NewFromInt(int64(s.faker.Number(20, 120)) * 50)
				voucher, err := s.vouchers.IssueVoucher(ctx, branch.ID, feeapp.IssueVoucherRequest{
					StudentID:   studentID,
					StudentName: studentName,
					ClassID:     classID,
					ClassName:   className,
					Month:       month,
					Year:        year,
					Amount:      amount,
					DueDate:     time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
				}, branch.Admin)
				if err != nil {
					return nil, fmt.Errorf("issue voucher for %s %d-%02d: %w", studentName, year, month, err)
				}
				result.Vouchers++
				branch.Vouchers = append(branch.Vouchers, voucher.ID)

				if err := s.pay(ctx, voucher, parent, branch.Admin, result); err != nil {
					return nil, err
				}
			}
		}

		s.logger.Info("Seeded branch",
			zap.String("branch_id", branch.ID.String()),
			zap.Int("students", len(branch.Parents)),
			zap.Int("vouchers", len(branch.Vouchers)),
		)
		result.Branches = append(result.Branches, branch)
	}
	return result, nil
}

// pay submits zero to two claims against a voucher and decides some of them,
// leaving a mix of unpaid, partial, paid and pending vouchers
func (s *seeder) pay(ctx context.Context, voucher *feeapp.VoucherResponse, parent, admin fee.Actor, result *seedResult) error {
	claims := s.faker.Number(0, 2)
	remaining := voucher.RemainingAmount
	for i := 0; i < claims && remaining.IsPositive(); i++ {
		amount := remaining
		if claims == 2 && i == 0 {
			amount = remaining.Div(decimal.NewFromInt(2)).Round(0)
		}
		ref, err := s.submissions.SubmitPayment(ctx, feeapp.SubmitPaymentRequest{
			VoucherID: voucher.ID,
			Amount:    amount,
			Method:    fee.PaymentMethod(s.faker.RandomString(seedMethods)),
			Evidence: fee.Evidence{
				URL: fmt.Sprintf("https://storage.example.com/evidence/seed/%s.png", s.faker.UUID()),
			},
			TransactionID: s.faker.Numerify("TXN-##########"),
		}, parent)
		if err != nil {
			return fmt.Errorf("submit payment on %s: %w", voucher.VoucherNumber, err)
		}
		result.Payments++

		// about a third of the claims stay pending for the review queue
		switch s.faker.Number(0, 5) {
		case 0, 1:
			continue
		case 2:
			if _, err := s.decide(ctx, voucher.ID, ref.PaymentRef, fee.DecisionReject, "Receipt does not match the bank statement", admin); err != nil {
				return err
			}
			result.Rejected++
		default:
			if _, err := s.decide(ctx, voucher.ID, ref.PaymentRef, fee.DecisionApprove, "", admin); err != nil {
				return err
			}
			result.Approved++
			remaining = remaining.Sub(amount)
		}
	}
	return nil
}

func (s *seeder) decide(ctx context.Context, voucherID uuid.UUID, paymentRef string, decision fee.Decision, remarks string, admin fee.Actor) (*feeapp.DecisionResult, error) {
	res, err := s.approvals.DecidePayment(ctx, feeapp.DecidePaymentRequest{
		VoucherID:  voucherID,
		PaymentRef: paymentRef,
		Decision:   decision,
		Remarks:    remarks,
	}, admin)
	if err != nil {
		return nil, fmt.Errorf("%s payment %s on %s: %w", decision, paymentRef, voucherID, err)
	}
	return res, nil
}

// periodAt returns the billing period offset months after the start period
func periodAt(year, startMonth, offset int) (month, y int) {
	zeroBased := startMonth - 1 + offset
	return zeroBased%12 + 1, year + zeroBased/12
}
