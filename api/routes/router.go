package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abed-obaah/royal-backend/api/controllers"
	"github.com/abed-obaah/royal-backend/api/middleware"
	"github.com/abed-obaah/royal-backend/internal/assets"
	"github.com/abed-obaah/royal-backend/internal/orders"
	"github.com/abed-obaah/royal-backend/internal/portfolio"
	"github.com/abed-obaah/royal-backend/internal/transactions"
	"github.com/abed-obaah/royal-backend/internal/users"
	"github.com/abed-obaah/royal-backend/internal/wallets"
	"github.com/abed-obaah/royal-backend/pkg/config"
	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	"github.com/abed-obaah/royal-backend/pkg/logger"
	pkgredis "github.com/abed-obaah/royal-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	userService users.Service,
	walletService wallets.Service,
	assetService assets.Service,
	portfolioService portfolio.Service,
	orderService orders.Service,
	transactionService transactions.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// nil redis disables rate limiting and idempotency replay, not routing
	var idemStore pkgredis.IdempotencyStore
	var redisP pkgredis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisP = redisClient
	}

	rateLimited := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if redisClient == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.AuthRateLimit(policy, redisClient, logg)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(rateLimited(loginPolicy)).Post("/login", controllers.AuthLogin(userService, logg))
		r.With(rateLimited(registerPolicy)).Post("/register", controllers.AuthRegister(userService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/me", controllers.AuthMe(userService, logg))
			r.Get("/wallet", controllers.WalletGet(walletService, logg))

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", controllers.AssetList(assetService, logg))
				r.Get("/{assetId}", controllers.AssetDetail(assetService, logg))
			})

			r.Route("/portfolio", func(r chi.Router) {
				r.Get("/", controllers.PortfolioList(portfolioService, logg))
				r.Get("/{itemId}", controllers.PortfolioDetail(portfolioService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(orderService, logg))
				r.Post("/buy", controllers.OrderSubmitBuy(orderService, logg))
				r.Post("/sell", controllers.OrderSubmitSell(orderService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", controllers.TransactionList(transactionService, logg))
				r.Post("/deposit", controllers.TransactionDeposit(transactionService, logg))
				r.Post("/withdraw", controllers.TransactionWithdraw(transactionService, logg))
				r.Get("/{transactionId}", controllers.TransactionDetail(transactionService, logg))
				r.Delete("/{transactionId}/proof", controllers.TransactionDeleteProof(transactionService, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

				r.Route("/assets", func(r chi.Router) {
					r.Post("/", controllers.AdminAssetCreate(assetService, logg))
					r.Patch("/{assetId}/price", controllers.AdminAssetUpdatePrice(assetService, logg))
					r.Patch("/{assetId}/status", controllers.AdminAssetSetStatus(assetService, logg))
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/pending", controllers.AdminPendingSells(orderService, logg))
					r.Post("/{orderId}/resolve", controllers.AdminResolveSell(orderService, logg))
				})

				r.Route("/transactions", func(r chi.Router) {
					r.Get("/pending", controllers.AdminPendingTransactions(transactionService, logg))
					r.Patch("/{transactionId}/status", controllers.AdminTransactionStatus(transactionService, logg))
				})
			})
		})
	})

	return r
}
