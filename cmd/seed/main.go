// Command seed fills a development database with branches, vouchers and
// payments in every state, and prints bearer tokens for the generated users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	feeapp "github.com/feeledger/backend/internal/application/fee"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/infrastructure/auth"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"github.com/feeledger/backend/internal/infrastructure/migration"
	"github.com/feeledger/backend/internal/infrastructure/persistence"
	"github.com/feeledger/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	now := time.Now().UTC()
	opts := seedOptions{}
	var migrate bool
	flag.IntVar(&opts.Branches, "branches", 2, "Number of branches")
	flag.IntVar(&opts.StudentsPerBranch, "students", 10, "Students per branch")
	flag.IntVar(&opts.Months, "months", 3, "Billing months per student")
	flag.IntVar(&opts.Year, "year", now.Year(), "Year of the first billing period")
	flag.IntVar(&opts.StartMonth, "start-month", int(now.Month()), "Month of the first billing period")
	flag.Uint64Var(&opts.Seed, "seed", 0, "Faker seed, 0 for random")
	flag.BoolVar(&migrate, "migrate", true, "Apply migrations before seeding")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.App.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if migrate {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get database handle", zap.Error(err))
		}
		m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
		if err != nil {
			log.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	repo := persistence.NewGormFeeVoucherRepository(db.DB)
	s := newSeeder(
		feeapp.NewVoucherService(feeapp.VoucherServiceConfig{Repo: repo, Logger: log}),
		feeapp.NewSubmissionService(feeapp.SubmissionServiceConfig{Repo: repo, Logger: log}),
		feeapp.NewApprovalEngine(feeapp.ApprovalEngineConfig{Repo: repo, Logger: log}),
		opts.Seed,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.run(ctx, opts)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete",
		zap.Int("branches", len(result.Branches)),
		zap.Int("vouchers", result.Vouchers),
		zap.Int("payments", result.Payments),
		zap.Int("approved", result.Approved),
		zap.Int("rejected", result.Rejected),
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	printToken(log, jwtService, "super admin", result.SuperAdmin)
	for _, branch := range result.Branches {
		printToken(log, jwtService, "branch admin "+branch.ID.String(), branch.Admin)
		if len(branch.Parents) > 0 {
			printToken(log, jwtService, "parent in "+branch.ID.String(), branch.Parents[0])
		}
	}
}

func printToken(log *zap.Logger, jwtService *auth.JWTService, label string, actor fee.Actor) {
	token, expiresAt, err := jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:     actor.ID,
		Username:   label,
		Role:       actor.Role,
		BranchID:   actor.BranchID,
		StudentIDs: actor.StudentIDs,
	})
	if err != nil {
		log.Error("Failed to mint token", zap.String("user", label), zap.Error(err))
		return
	}
	fmt.Printf("%s (expires %s)\n  Bearer %s\n", label, expiresAt.Format(time.RFC3339), token)
}
