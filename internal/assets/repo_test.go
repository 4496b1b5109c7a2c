package assets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:assets_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Asset{}, &models.PortfolioItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedAsset(t *testing.T, db *gorm.DB, total, available int64, status enums.AssetStatus) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		Title:           "Midnight Tape",
		Artist:          "Vera Lune",
		Kind:            enums.AssetKindSong,
		TotalShares:     total,
		AvailableShares: available,
		Price:           decimal.RequireFromString("12.5"),
		Status:          status,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return asset
}

func reloadAsset(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Asset {
	t.Helper()
	var asset models.Asset
	if err := db.First(&asset, "id = ?", id).Error; err != nil {
		t.Fatalf("reload asset: %v", err)
	}
	return &asset
}

func TestReserveShares(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 100, 10, enums.AssetStatusActive)

	ok, err := repo.ReserveShares(ctx, asset.ID, 7)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !ok {
		t.Fatal("expected reservation to succeed")
	}
	if got := reloadAsset(t, db, asset.ID).AvailableShares; got != 3 {
		t.Fatalf("expected 3 available shares, got %d", got)
	}

	ok, err = repo.ReserveShares(ctx, asset.ID, 4)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("expected reservation beyond float to be refused")
	}
	if got := reloadAsset(t, db, asset.ID).AvailableShares; got != 3 {
		t.Fatalf("refused reservation must not change float, got %d", got)
	}
}

func TestReserveSharesInactiveAsset(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	asset := seedAsset(t, db, 100, 100, enums.AssetStatusInactive)

	ok, err := repo.ReserveShares(context.Background(), asset.ID, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("expected reservation against inactive asset to be refused")
	}
}

func TestReleaseShares(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	asset := seedAsset(t, db, 100, 95, enums.AssetStatusActive)

	ok, err := repo.ReleaseShares(ctx, asset.ID, 5)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if !ok {
		t.Fatal("expected release to succeed")
	}
	if got := reloadAsset(t, db, asset.ID).AvailableShares; got != 100 {
		t.Fatalf("expected 100 available shares, got %d", got)
	}

	// Already at the cap: releasing one more would exceed total_shares.
	ok, err = repo.ReleaseShares(ctx, asset.ID, 1)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok {
		t.Fatal("expected release beyond total shares to be refused")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seedAsset(t, db, 10, 10, enums.AssetStatusActive)
	seedAsset(t, db, 10, 10, enums.AssetStatusInactive)

	all, err := repo.List(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(all))
	}

	active := enums.AssetStatusActive
	filtered, err := repo.List(ctx, &active)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Status != enums.AssetStatusActive {
		t.Fatalf("expected only the active asset, got %d", len(filtered))
	}
}
