package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wallets_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Wallet{}); err != nil {
		t.Fatalf("migrate wallets: %v", err)
	}
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, available, invested string) *models.Wallet {
	t.Helper()
	wallet := &models.Wallet{
		UserID:           uuid.New(),
		AvailableBalance: decimal.RequireFromString(available),
		InvestedBalance:  decimal.RequireFromString(invested),
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return wallet
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Wallet {
	t.Helper()
	var wallet models.Wallet
	if err := db.First(&wallet, "id = ?", id).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	return &wallet
}

func TestDebitAvailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	wallet := seedWallet(t, db, "100", "0")

	ok, err := repo.DebitAvailable(ctx, wallet.ID, decimal.RequireFromString("60"))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !ok {
		t.Fatal("expected debit to succeed")
	}

	got := reload(t, db, wallet.ID)
	if !got.AvailableBalance.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected available 40, got %s", got.AvailableBalance)
	}

	ok, err = repo.DebitAvailable(ctx, wallet.ID, decimal.RequireFromString("40.00000001"))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if ok {
		t.Fatal("expected overdraft debit to be refused")
	}
	got = reload(t, db, wallet.ID)
	if !got.AvailableBalance.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("refused debit must not change balance, got %s", got.AvailableBalance)
	}
}

func TestCreditAvailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	wallet := seedWallet(t, db, "10", "0")

	if err := repo.CreditAvailable(ctx, wallet.ID, decimal.RequireFromString("5.5")); err != nil {
		t.Fatalf("credit: %v", err)
	}
	got := reload(t, db, wallet.ID)
	if !got.AvailableBalance.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("expected available 15.5, got %s", got.AvailableBalance)
	}
}

func TestMoveAvailableToInvested(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	wallet := seedWallet(t, db, "100", "20")

	ok, err := repo.MoveAvailableToInvested(ctx, wallet.ID, decimal.RequireFromString("30"))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !ok {
		t.Fatal("expected move to succeed")
	}
	got := reload(t, db, wallet.ID)
	if !got.AvailableBalance.Equal(decimal.RequireFromString("70")) || !got.InvestedBalance.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected balances %s/%s", got.AvailableBalance, got.InvestedBalance)
	}
	if !got.TotalBalance().Equal(wallet.TotalBalance()) {
		t.Fatalf("move must conserve total, got %s", got.TotalBalance())
	}

	ok, err = repo.MoveAvailableToInvested(ctx, wallet.ID, decimal.RequireFromString("1000"))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if ok {
		t.Fatal("expected move beyond available to be refused")
	}
}

func TestSettleInvested(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	wallet := seedWallet(t, db, "10", "50")

	// Proceeds 80 against a cost basis of 50: gain lands in available.
	ok, err := repo.SettleInvested(ctx, wallet.ID, decimal.RequireFromString("80"), decimal.RequireFromString("50"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !ok {
		t.Fatal("expected settle to succeed")
	}
	got := reload(t, db, wallet.ID)
	if !got.AvailableBalance.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("expected available 90, got %s", got.AvailableBalance)
	}
	if !got.InvestedBalance.Equal(decimal.Zero) {
		t.Fatalf("expected invested 0, got %s", got.InvestedBalance)
	}

	ok, err = repo.SettleInvested(ctx, wallet.ID, decimal.RequireFromString("5"), decimal.RequireFromString("1"))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected settle beyond invested to be refused")
	}
}

func TestGetOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := GetOrCreate(ctx, repo, userID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.UserID != userID {
		t.Fatalf("expected wallet for %s, got %s", userID, first.UserID)
	}
	if !first.AvailableBalance.Equal(decimal.Zero) || !first.InvestedBalance.Equal(decimal.Zero) {
		t.Fatal("new wallet must start empty")
	}

	second, err := GetOrCreate(ctx, repo, userID)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the same wallet on repeat calls")
	}
}
