package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/internal/assets"
	"github.com/abed-obaah/royal-backend/internal/orders"
	"github.com/abed-obaah/royal-backend/internal/portfolio"
	"github.com/abed-obaah/royal-backend/internal/transactions"
	"github.com/abed-obaah/royal-backend/internal/users"
	"github.com/abed-obaah/royal-backend/internal/wallets"
	pkgauth "github.com/abed-obaah/royal-backend/pkg/auth"
	"github.com/abed-obaah/royal-backend/pkg/config"
	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "royal-test", ExpirationMinutes: 60}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Asset{},
		&models.PortfolioItem{},
		&models.Order{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := db.NewWithConn(conn)

	userRepo := users.NewRepository(conn)
	walletRepo := wallets.NewRepository(conn)
	assetRepo := assets.NewRepository(conn)
	portfolioRepo := portfolio.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	txnRepo := transactions.NewRepository(conn)

	passwordCfg := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

	userService, err := users.NewService(userRepo, testJWT, passwordCfg)
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	walletService, err := wallets.NewService(walletRepo)
	if err != nil {
		t.Fatalf("wallet service: %v", err)
	}
	assetService, err := assets.NewService(assetRepo, client)
	if err != nil {
		t.Fatalf("asset service: %v", err)
	}
	portfolioService, err := portfolio.NewService(portfolioRepo)
	if err != nil {
		t.Fatalf("portfolio service: %v", err)
	}
	orderService, err := orders.NewService(orderRepo, walletRepo, assetRepo, portfolioRepo, client, nil)
	if err != nil {
		t.Fatalf("order service: %v", err)
	}
	txnService, err := transactions.NewService(txnRepo, walletRepo, client, nil)
	if err != nil {
		t.Fatalf("transaction service: %v", err)
	}

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: testJWT,
	}

	return NewRouter(cfg, nil, client, nil, nil, userService, walletService, assetService, portfolioService, orderService, txnService)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
}

func mintAdminToken(t *testing.T) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	return token
}

type walletBody struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
	InvestedBalance  decimal.Decimal `json:"invested_balance"`
	Total            decimal.Decimal `json:"total"`
}

func requireWallet(t *testing.T, router http.Handler, token string, available, invested string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodGet, "/api/v1/wallet", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wallet fetch: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var w walletBody
	decodeData(t, rec, &w)
	if !w.AvailableBalance.Equal(decimal.RequireFromString(available)) {
		t.Fatalf("expected available %s got %s", available, w.AvailableBalance)
	}
	if !w.InvestedBalance.Equal(decimal.RequireFromString(invested)) {
		t.Fatalf("expected invested %s got %s", invested, w.InvestedBalance)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/wallet", "/api/v1/orders", "/api/v1/portfolio"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "fan@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/orders/pending", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      email,
		"password":   "sup3rsecret",
		"first_name": "Avery",
		"last_name":  "Stone",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "sup3rsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(t, rec, &login)
	if login.AccessToken == "" {
		t.Fatal("expected access token in login response")
	}
	return login.AccessToken
}

func TestInvestorLifecycle(t *testing.T) {
	router := newTestRouter(t)
	userToken := registerAndLogin(t, router, "investor@example.com")
	adminToken := mintAdminToken(t)

	// fresh wallet is provisioned empty
	requireWallet(t, router, userToken, "0", "0")

	// catalog starts behind the admin surface
	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/assets", adminToken, map[string]any{
		"title":        "Midnight Run",
		"artist":       "The Vales",
		"kind":         "song",
		"total_shares": 100,
		"price":        "10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create asset: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	var asset struct {
		ID uuid.UUID `json:"id"`
	}
	decodeData(t, rec, &asset)

	// deposit is pending until an admin confirms, wallet untouched
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/deposit", userToken, map[string]any{
		"amount": "500",
		"method": "bank",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	var txn struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	decodeData(t, rec, &txn)
	if txn.Status != string(enums.TransactionStatusPending) {
		t.Fatalf("expected pending deposit got %s", txn.Status)
	}
	requireWallet(t, router, userToken, "0", "0")

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/admin/transactions/%s/status", txn.ID), adminToken, map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete deposit: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	requireWallet(t, router, userToken, "500", "0")

	// buy settles synchronously
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/buy", userToken, map[string]any{
		"asset_id": asset.ID,
		"quantity": 20,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	requireWallet(t, router, userToken, "300", "200")

	rec = doJSON(t, router, http.MethodGet, "/api/v1/portfolio", userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio: expected 200 got %d", rec.Code)
	}
	var holdings []struct {
		ID       uuid.UUID `json:"id"`
		Quantity int64     `json:"quantity"`
	}
	decodeData(t, rec, &holdings)
	if len(holdings) != 1 || holdings[0].Quantity != 20 {
		t.Fatalf("expected one holding of 20 shares, got %+v", holdings)
	}

	// sell pends until resolution
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/sell", userToken, map[string]any{
		"portfolio_item_id": holdings[0].ID,
		"quantity":          5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sell: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	var sell struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	decodeData(t, rec, &sell)
	if sell.Status != string(enums.OrderStatusPending) {
		t.Fatalf("expected pending sell got %s", sell.Status)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/admin/orders/pending", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending sells: expected 200 got %d", rec.Code)
	}
	var pending []json.RawMessage
	decodeData(t, rec, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected one pending sell, got %d", len(pending))
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%s/resolve", sell.ID), adminToken, map[string]any{
		"action": "approve",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	// 5 shares at purchase price: proceeds 50 in, cost basis 50 out
	requireWallet(t, router, userToken, "350", "150")

	// withdraw holds funds immediately
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transactions/withdraw", userToken, map[string]any{
		"amount":             "100",
		"method":             "bank",
		"withdrawal_details": "IBAN XX00 1234",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("withdraw: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	requireWallet(t, router, userToken, "250", "150")
}

func TestValidationErrorsSurfaceDetails(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router, "strict@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/buy", token, map[string]any{
		"asset_id": uuid.New(),
		"quantity": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR got %s", envelope.Error.Code)
	}
	if _, ok := envelope.Error.Details["quantity"]; !ok {
		t.Fatalf("expected quantity detail, got %v", envelope.Error.Details)
	}
}
