package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tahweel-pay/tahweel_pay/internal/admin"
	"github.com/tahweel-pay/tahweel_pay/internal/carrier"
	"github.com/tahweel-pay/tahweel_pay/internal/config"
	"github.com/tahweel-pay/tahweel_pay/internal/gateway"
	"github.com/tahweel-pay/tahweel_pay/internal/ledger"
	"github.com/tahweel-pay/tahweel_pay/internal/metrics"
	"github.com/tahweel-pay/tahweel_pay/internal/middleware"
	"github.com/tahweel-pay/tahweel_pay/internal/notification"
	"github.com/tahweel-pay/tahweel_pay/internal/reconcile"
	"github.com/tahweel-pay/tahweel_pay/internal/transfer"
	"github.com/tahweel-pay/tahweel_pay/internal/ttlstore"
	"github.com/tahweel-pay/tahweel_pay/internal/user"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Carrier overrides the HTTP vendor client, used by tests.
	Carrier carrier.Client
}

// Background holds the long-running jobs the caller must start alongside the
// HTTP server.
type Background struct {
	Poller        *reconcile.Poller
	Sweeper       *transfer.Sweeper
	PollInterval  time.Duration
	SweepInterval time.Duration
}

// Setup configures middlewares and all application routes, returning the
// background jobs to run next to the server.
func Setup(app *fiber.App, d Deps) (*Background, error) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Storage backends: Postgres when configured, in-memory otherwise.
	var (
		walletLedger ledger.Ledger
		users        user.Repository
		channels     gateway.Repository
	)
	if d.DB != nil {
		walletLedger = ledger.NewPostgresLedger(d.DB)
		users = user.NewPostgresRepository(d.DB)
		channels = gateway.NewPostgresRepository(d.DB)
	} else {
		walletLedger = ledger.NewInMemory()
		users = user.NewMemoryRepository()
		channels = gateway.NewMemoryRepository()
	}

	var processed reconcile.ProcessedStore
	if d.Cache != nil {
		processed = reconcile.NewRedisProcessed(d.Cache, d.Cfg.DedupeTTL)
	} else {
		processed = reconcile.NewMemoryProcessed()
	}

	carrierClient := d.Carrier
	if carrierClient == nil {
		carrierClient = carrier.NewHTTPClient(d.Cfg.CarrierBaseURL, d.Logger)
	}
	identity := carrier.NewIdentity()
	notifier := notification.NewLoggerNotifier(d.Logger)

	sessions := ttlstore.NewMemory[transfer.Session](d.Cfg.SessionTTL)
	pending := ttlstore.NewMemory[transfer.PendingTransfer](d.Cfg.PendingTTL)

	transferSvc := transfer.NewService(transfer.Deps{
		Sessions:   sessions,
		Pending:    pending,
		Carrier:    carrierClient,
		Users:      users,
		Wallet:     walletLedger,
		Channels:   channels,
		Identity:   identity,
		Notifier:   notifier,
		Metrics:    collector,
		Logger:     d.Logger,
		StorePhone: d.Cfg.StorePhone,
	})

	poller := reconcile.NewPoller(reconcile.Deps{
		Carrier:   carrierClient,
		Identity:  identity,
		Users:     users,
		Wallet:    walletLedger,
		Processed: processed,
		Notifier:  notifier,
		Metrics:   collector,
		Logger:    d.Logger,
		PageSize:  d.Cfg.PollPageSize,
	})

	adminSvc := admin.NewService(carrierClient, identity, channels, poller, d.Logger)
	userSvc := user.NewService(users)

	transferHandler := transfer.NewHandler(transferSvc)
	adminHandler := admin.NewHandler(adminSvc)
	userHandler := user.NewHandler(userSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	loginLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterUserRoutes(api, userHandler)
	RegisterTransferRoutes(api, transferHandler, loginLimiter, creditIdempotency(d))
	RegisterAdminRoutes(api, adminHandler, loginLimiter)

	return &Background{
		Poller:        poller,
		Sweeper:       transfer.NewSweeper(sessions, pending, d.Logger),
		PollInterval:  d.Cfg.PollInterval,
		SweepInterval: d.Cfg.SweepInterval,
	}, nil
}

// creditIdempotency guards the credit-producing endpoints with the Redis
// idempotency layer when a cache is configured.
func creditIdempotency(d Deps) fiber.Handler {
	if d.Cache == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
}
