package assets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

func newService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateAssetValidation(t *testing.T) {
	conn := newTestDB(t)
	svc := newService(t, conn)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateAssetInput
	}{
		{"missing title", CreateAssetInput{Artist: "a", Kind: enums.AssetKindSong, TotalShares: 10, Price: decimal.NewFromInt(1)}},
		{"missing artist", CreateAssetInput{Title: "t", Kind: enums.AssetKindSong, TotalShares: 10, Price: decimal.NewFromInt(1)}},
		{"bad kind", CreateAssetInput{Title: "t", Artist: "a", Kind: "vinyl", TotalShares: 10, Price: decimal.NewFromInt(1)}},
		{"zero shares", CreateAssetInput{Title: "t", Artist: "a", Kind: enums.AssetKindSong, TotalShares: 0, Price: decimal.NewFromInt(1)}},
		{"zero price", CreateAssetInput{Title: "t", Artist: "a", Kind: enums.AssetKindSong, TotalShares: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAssetStartsFullyAvailable(t *testing.T) {
	conn := newTestDB(t)
	svc := newService(t, conn)

	asset, err := svc.Create(context.Background(), CreateAssetInput{
		Title:       "Static Bloom",
		Artist:      "Noor Adel",
		Kind:        enums.AssetKindBasket,
		TotalShares: 500,
		Price:       decimal.RequireFromString("3.2"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if asset.AvailableShares != asset.TotalShares {
		t.Fatalf("expected full float, got %d/%d", asset.AvailableShares, asset.TotalShares)
	}
	if asset.Status != enums.AssetStatusActive {
		t.Fatalf("expected active status, got %s", asset.Status)
	}
}

func TestUpdatePriceCascadesToHoldings(t *testing.T) {
	conn := newTestDB(t)
	svc := newService(t, conn)
	ctx := context.Background()
	asset := seedAsset(t, conn, 100, 50, enums.AssetStatusActive)

	item := &models.PortfolioItem{
		UserID:        uuid.New(),
		AssetID:       asset.ID,
		Quantity:      5,
		PurchasePrice: decimal.RequireFromString("12.5"),
		CurrentPrice:  decimal.RequireFromString("12.5"),
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed holding: %v", err)
	}
	other := &models.PortfolioItem{
		UserID:        uuid.New(),
		AssetID:       uuid.New(),
		Quantity:      3,
		PurchasePrice: decimal.NewFromInt(7),
		CurrentPrice:  decimal.NewFromInt(7),
	}
	if err := conn.Create(other).Error; err != nil {
		t.Fatalf("seed other holding: %v", err)
	}

	newPrice := decimal.RequireFromString("15.75")
	updated, err := svc.UpdatePrice(ctx, asset.ID, newPrice)
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, updated.Price)
	}

	var got models.PortfolioItem
	if err := conn.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload holding: %v", err)
	}
	if !got.CurrentPrice.Equal(newPrice) {
		t.Fatalf("expected holding repriced to %s, got %s", newPrice, got.CurrentPrice)
	}
	if !got.PurchasePrice.Equal(item.PurchasePrice) {
		t.Fatal("purchase price must not change on reprice")
	}

	var untouched models.PortfolioItem
	if err := conn.First(&untouched, "id = ?", other.ID).Error; err != nil {
		t.Fatalf("reload other holding: %v", err)
	}
	if !untouched.CurrentPrice.Equal(decimal.NewFromInt(7)) {
		t.Fatal("holdings of other assets must not be repriced")
	}
}

func TestSetStatus(t *testing.T) {
	conn := newTestDB(t)
	svc := newService(t, conn)
	ctx := context.Background()
	asset := seedAsset(t, conn, 100, 100, enums.AssetStatusActive)

	updated, err := svc.SetStatus(ctx, asset.ID, enums.AssetStatusInactive)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != enums.AssetStatusInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}

	_, err = svc.Get(ctx, uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
