package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/libreria-dev/libreria-backend/api/routes"
	"github.com/libreria-dev/libreria-backend/internal/address"
	"github.com/libreria-dev/libreria-backend/internal/auth"
	"github.com/libreria-dev/libreria-backend/internal/cart"
	"github.com/libreria-dev/libreria-backend/internal/catalog"
	"github.com/libreria-dev/libreria-backend/internal/checkout"
	"github.com/libreria-dev/libreria-backend/internal/coupons"
	"github.com/libreria-dev/libreria-backend/internal/orders"
	"github.com/libreria-dev/libreria-backend/internal/paymentmethods"
	"github.com/libreria-dev/libreria-backend/internal/payments"
	"github.com/libreria-dev/libreria-backend/internal/users"
	"github.com/libreria-dev/libreria-backend/pkg/auth/session"
	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/metrics"
	"github.com/libreria-dev/libreria-backend/pkg/migrate"
	"github.com/libreria-dev/libreria-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, dbClient, sessionManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, svcs),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildServices(cfg *config.Config, dbClient *db.Client, sessions *session.Manager, logg *logger.Logger) (routes.Services, error) {
	conn := dbClient.DB()

	usersRepo := users.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	bookRepo := catalog.NewBookRepo(conn)
	couponRepo := coupons.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	cartService, err := cart.NewService(cart.ServiceParams{
		TxRunner: dbClient,
		CartRepo: cartRepo,
		BookRepo: bookRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessions,
		CartMerger:     cartMergeAdapter{carts: cartService},
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		TxRunner:      dbClient,
		BookRepo:      bookRepo,
		CategoryRepo:  catalog.NewCategoryRepo(conn),
		AuthorRepo:    catalog.NewAuthorRepo(conn),
		PublisherRepo: catalog.NewPublisherRepo(conn),
	})
	if err != nil {
		return routes.Services{}, err
	}

	couponsService, err := coupons.NewService(couponRepo)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		TxRunner:      dbClient,
		SessionRepo:   checkout.NewRepository(conn),
		CartRepo:      cartRepo,
		CouponChecker: couponsService,
		CouponRepo:    couponRepo,
		OrderRepo:     orderRepo,
		Gateway:       payments.NewSimulator(cfg.Payments),
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		TxRunner:  dbClient,
		OrderRepo: orderRepo,
	})
	if err != nil {
		return routes.Services{}, err
	}

	addressService, err := address.NewService(dbClient, conn)
	if err != nil {
		return routes.Services{}, err
	}

	paymentMethodsService, err := paymentmethods.NewService(dbClient, conn)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:           authService,
		Register:       registerService,
		Users:          usersService,
		Catalog:        catalogService,
		Coupons:        couponsService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Addresses:      addressService,
		PaymentMethods: paymentMethodsService,
	}, nil
}

// cartMergeAdapter folds the anonymous cart into the customer's cart on
// login, discarding the merged snapshot the cart service returns.
type cartMergeAdapter struct {
	carts cart.Service
}

func (a cartMergeAdapter) Merge(ctx context.Context, sessionToken string, customerID uuid.UUID) error {
	_, err := a.carts.Merge(ctx, sessionToken, customerID)
	return err
}
