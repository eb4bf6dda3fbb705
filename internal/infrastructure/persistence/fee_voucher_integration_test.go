//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/infrastructure/migration"
	"github.com/feeledger/backend/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a disposable PostgreSQL container with the schema applied
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("feeledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestGormFeeVoucherRepository_ConcurrentDecisions_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db := newPostgresTestDB(t)
	repo := NewGormFeeVoucherRepository(db)
	ctx := context.Background()

	t.Run("only one decision on the same payment commits", func(t *testing.T) {
		v := createRepoTestVoucher(t, repo, voucherFixture{number: "FV-202609-900001"})
		p := appendRepoTestPayment(t, repo, v, 1000)

		const deciders = 8
		var committed, alreadyDecided, stale atomic.Int32

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < deciders; i++ {
			decision := fee.DecisionApprove
			if i%2 == 1 {
				decision = fee.DecisionReject
			}
			g.Go(func() error {
				loaded, err := repo.FindByID(gctx, v.ID)
				if err != nil {
					return err
				}
				decided, err := loaded.DecidePayment(p.ID, decision, uuid.New(), "race")
				if errors.Is(err, fee.ErrAlreadyDecided) {
					alreadyDecided.Add(1)
					return nil
				}
				if err != nil {
					return err
				}
				err = repo.SaveDecision(gctx, loaded, decided)
				switch {
				case err == nil:
					committed.Add(1)
				case errors.Is(err, fee.ErrPaymentNoLongerPending):
					alreadyDecided.Add(1)
				case errors.Is(err, fee.ErrStaleVoucher):
					stale.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int32(1), committed.Load())
		assert.Equal(t, int32(deciders-1), alreadyDecided.Load()+stale.Load())

		found, err := repo.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.NoError(t, found.CheckInvariants())
		assert.Equal(t, 2, found.Version)
		if found.Payments[0].Status == fee.PaymentStatusApproved {
			assert.True(t, found.PaidAmount.Equal(decimal.NewFromInt(1000)))
			assert.Equal(t, fee.VoucherStatusPaid, found.Status)
		} else {
			assert.True(t, found.PaidAmount.IsZero())
		}
	})

	t.Run("decisions on different payments never lose an update", func(t *testing.T) {
		v := createRepoTestVoucher(t, repo, voucherFixture{number: "FV-202609-900002"})
		p1 := appendRepoTestPayment(t, repo, v, 300)
		p2 := appendRepoTestPayment(t, repo, v, 200)

		decide := func(paymentID uuid.UUID) error {
			for attempt := 0; attempt < 10; attempt++ {
				loaded, err := repo.FindByID(ctx, v.ID)
				if err != nil {
					return err
				}
				decided, err := loaded.DecidePayment(paymentID, fee.DecisionApprove, uuid.New(), "")
				if err != nil {
					return err
				}
				err = repo.SaveDecision(ctx, loaded, decided)
				if errors.Is(err, fee.ErrStaleVoucher) {
					continue
				}
				return err
			}
			return fee.ErrStaleVoucher
		}

		var g errgroup.Group
		g.Go(func() error { return decide(p1.ID) })
		g.Go(func() error { return decide(p2.ID) })
		require.NoError(t, g.Wait())

		found, err := repo.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.True(t, found.PaidAmount.Equal(decimal.NewFromInt(500)))
		assert.True(t, found.RemainingAmount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, fee.VoucherStatusPartial, found.Status)
		assert.Equal(t, 3, found.Version)
		assert.NoError(t, found.CheckInvariants())
	})

	t.Run("cancellation wins over a concurrent append", func(t *testing.T) {
		v := createRepoTestVoucher(t, repo, voucherFixture{number: "FV-202609-900003"})
		stale, err := repo.FindByID(ctx, v.ID)
		require.NoError(t, err)

		require.NoError(t, v.Cancel(uuid.New(), "withdrawn"))
		require.NoError(t, repo.SaveWithLock(ctx, v))

		p, err := stale.SubmitPayment(fee.SubmitPaymentInput{
			PayerID:  uuid.New(),
			Amount:   decimal.NewFromInt(100),
			Method:   fee.PaymentMethodCash,
			Evidence: fee.Evidence{URL: "https://evidence.example.com/late.png"},
		})
		require.NoError(t, err)
		assert.ErrorIs(t, repo.AppendPayment(ctx, stale, p), fee.ErrVoucherNotSubmittable)
	})
}
