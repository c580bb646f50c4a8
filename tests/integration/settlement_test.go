package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresrepo "github.com/hanaplan/settled/internal/adapter/repository/postgres"
	redisrepo "github.com/hanaplan/settled/internal/adapter/repository/redis"
	"github.com/hanaplan/settled/internal/domain"
	infraredis "github.com/hanaplan/settled/internal/infrastructure/redis"
	"github.com/hanaplan/settled/internal/usecase"
	"github.com/hanaplan/settled/tests/testutil"
)

type testEnv struct {
	db     *testutil.TestDB
	runner *usecase.SettlementRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(ctx)

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	pool := db.Pool
	logger := zerolog.Nop()

	txManager := postgresrepo.NewTxManager(pool)
	accountRepo := postgresrepo.NewAccountRepository(pool)
	historyRepo := postgresrepo.NewHistoryRepository(pool)
	contractRepo := postgresrepo.NewLoanContractRepository(pool)
	scheduleRepo := postgresrepo.NewRepaymentScheduleRepository(pool)
	savingsRepo := postgresrepo.NewSavingsRepository(pool)
	participantRepo := postgresrepo.NewParticipantRepository(pool)
	runRepo := postgresrepo.NewRunRepository(pool)
	runLocker := redisrepo.NewRunLocker(redisClient)
	idGen := postgresrepo.NewULIDGenerator()
	retrier := postgresrepo.NewRetrier(logger)

	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, historyRepo, idGen, retrier)
	loanUC := usecase.NewLoanSettlementUseCase(contractRepo, scheduleRepo, transferUC, logger)
	savingsUC := usecase.NewSavingsSettlementUseCase(accountRepo, participantRepo, savingsRepo, transferUC, idGen, logger)
	reportUC := usecase.NewReportUseCase(runRepo, t.TempDir(), logger)
	runner := usecase.NewSettlementRunner(loanUC, savingsUC, reportUC, runLocker, time.Minute, logger)

	return &testEnv{db: db, runner: runner}
}

func TestLoanSettlementEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := newTestEnv(t)
	ctx := context.Background()

	due := decimal.NewFromInt(500_000)
	payer := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeOrdinary, decimal.NewFromInt(1_000_000))
	loanAcc := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeLoan, decimal.Zero)
	_, _ = env.db.CreateTestLoan(ctx, "user-1", payer.ID, loanAcc.ID, due, time.Now().UTC().AddDate(0, 0, -1))

	result, err := env.runner.RunBatch(ctx, usecase.BatchLoan, time.Now().UTC())
	if err != nil {
		t.Fatalf("loan batch failed: %v", err)
	}

	if result.SuccessCount() != 1 || result.FailureCount() != 0 || result.ErrorCount() != 0 {
		t.Fatalf("expected 1/0/0, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}

	if got := env.db.AccountBalance(ctx, payer.ID); !got.Equal(decimal.NewFromInt(500_000)) {
		t.Fatalf("expected payer balance 500000, got %s", got)
	}
	if got := env.db.AccountBalance(ctx, loanAcc.ID); !got.Equal(due) {
		t.Fatalf("expected loan account balance 500000, got %s", got)
	}
}

func TestLoanSettlementInsufficientFundsEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := newTestEnv(t)
	ctx := context.Background()

	payer := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeOrdinary, decimal.NewFromInt(100_000))
	loanAcc := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeLoan, decimal.Zero)
	env.db.CreateTestLoan(ctx, "user-1", payer.ID, loanAcc.ID, decimal.NewFromInt(500_000), time.Now().UTC().AddDate(0, 0, -1))

	result, err := env.runner.RunBatch(ctx, usecase.BatchLoan, time.Now().UTC())
	if err != nil {
		t.Fatalf("loan batch failed: %v", err)
	}

	if result.FailureCount() != 1 {
		t.Fatalf("expected 1 failure, got %d", result.FailureCount())
	}

	// No partial debits on a failed settlement.
	if got := env.db.AccountBalance(ctx, payer.ID); !got.Equal(decimal.NewFromInt(100_000)) {
		t.Fatalf("expected payer balance unchanged, got %s", got)
	}

	// A later run with funds recovers the row.
	_, err = env.db.Pool.Exec(ctx, `UPDATE accounts SET balance = $2 WHERE id = $1`, payer.ID, "600000")
	if err != nil {
		t.Fatalf("failed to fund payer: %v", err)
	}

	result, err = env.runner.RunBatch(ctx, usecase.BatchLoan, time.Now().UTC())
	if err != nil {
		t.Fatalf("second loan batch failed: %v", err)
	}
	if result.SuccessCount() != 1 {
		t.Fatalf("expected recovery run to settle the row, got %d successes", result.SuccessCount())
	}
}

func TestJointSavingsSettlementEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := newTestEnv(t)
	ctx := context.Background()

	monthly := decimal.NewFromInt(100_000)

	joint := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeJointSaving, decimal.Zero)
	p1Funds := env.db.CreateTestAccount(ctx, "user-1", domain.AccountTypeOrdinary, decimal.NewFromInt(500_000))
	p2Funds := env.db.CreateTestAccount(ctx, "user-2", domain.AccountTypeOrdinary, decimal.NewFromInt(500_000))

	env.db.AddParticipant(ctx, joint.ID, "user-1", domain.RolePrimary, decimal.NewFromInt(60))
	env.db.AddParticipant(ctx, joint.ID, "user-2", domain.RoleJoint, decimal.NewFromInt(40))

	env.db.CreateTestSavings(ctx, "user-1", joint.ID, p1Funds.ID, monthly, time.Now().UTC().AddDate(0, 0, -1))

	_, err := env.db.Pool.Exec(ctx, `
		INSERT INTO user_savings (user_savings_id, user_id, product_id, account_id, start_date,
			monthly_amount, auto_debit_account_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		"us-2", "user-2", "prod-savings", joint.ID, time.Now().UTC().AddDate(0, -1, 0),
		monthly.String(), p2Funds.ID, "active", time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to create second subscription: %v", err)
	}

	result, err := env.runner.RunBatch(ctx, usecase.BatchSavings, time.Now().UTC())
	if err != nil {
		t.Fatalf("savings batch failed: %v", err)
	}

	if result.SuccessCount() != 2 {
		t.Fatalf("expected 2 settled shares, got %d (%+v)", result.SuccessCount(), result)
	}

	if got := env.db.AccountBalance(ctx, joint.ID); !got.Equal(monthly) {
		t.Fatalf("expected joint balance 100000, got %s", got)
	}
	if got := env.db.AccountBalance(ctx, p1Funds.ID); !got.Equal(decimal.NewFromInt(440_000)) {
		t.Fatalf("expected primary funding balance 440000, got %s", got)
	}
	if got := env.db.AccountBalance(ctx, p2Funds.ID); !got.Equal(decimal.NewFromInt(460_000)) {
		t.Fatalf("expected joint funding balance 460000, got %s", got)
	}
}
