package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/libreria-dev/libreria-backend/api/controllers"
	"github.com/libreria-dev/libreria-backend/api/middleware"
	addresssvc "github.com/libreria-dev/libreria-backend/internal/address"
	"github.com/libreria-dev/libreria-backend/internal/auth"
	cartsvc "github.com/libreria-dev/libreria-backend/internal/cart"
	"github.com/libreria-dev/libreria-backend/internal/catalog"
	checkoutsvc "github.com/libreria-dev/libreria-backend/internal/checkout"
	couponsvc "github.com/libreria-dev/libreria-backend/internal/coupons"
	ordersvc "github.com/libreria-dev/libreria-backend/internal/orders"
	pmsvc "github.com/libreria-dev/libreria-backend/internal/paymentmethods"
	userssvc "github.com/libreria-dev/libreria-backend/internal/users"
	"github.com/libreria-dev/libreria-backend/pkg/auth/session"
	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/db"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/metrics"
	"github.com/libreria-dev/libreria-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles every domain service the router mounts.
type Services struct {
	Auth           auth.Service
	Register       auth.RegisterService
	Users          userssvc.Service
	Catalog        catalog.Service
	Coupons        couponsvc.Service
	Cart           cartsvc.Service
	Checkout       checkoutsvc.Service
	Orders         ordersvc.Service
	Addresses      addresssvc.Service
	PaymentMethods pmsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Storefront: browsing, the cart, and checkout all work logged
		// out. A logged-in customer on the same routes is resolved by
		// OptionalAuth.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))
			r.Use(middleware.CartSession(logg))

			r.Get("/libros", controllers.ListBooks(svcs.Catalog, logg))
			r.Get("/libros/{bookID}", controllers.GetBook(svcs.Catalog, logg))
			r.Get("/categorias", controllers.ListCategories(svcs.Catalog, logg))
			r.Get("/autores", controllers.ListAuthors(svcs.Catalog, logg))
			r.Get("/editoriales", controllers.ListPublishers(svcs.Catalog, logg))
			r.Get("/cupones/{code}/validar", controllers.CheckCoupon(svcs.Coupons, logg))

			r.Route("/carrito", func(r chi.Router) {
				r.Use(middleware.Idempotency(redisClient, logg))
				r.Get("/", controllers.GetCart(svcs.Cart, logg))
				r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
				r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
				r.Put("/items/{itemID}", controllers.UpdateCartItem(svcs.Cart, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(svcs.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.Idempotency(redisClient, logg))
				r.Post("/", controllers.StartCheckout(svcs.Checkout, logg))
				r.Get("/{sessionID}", controllers.GetCheckoutSession(svcs.Checkout, logg))
				r.Put("/{sessionID}/shipping", controllers.SetCheckoutShipping(svcs.Checkout, logg))
				r.Put("/{sessionID}/payment", controllers.SetCheckoutPayment(svcs.Checkout, logg))
				r.Post("/{sessionID}/coupon", controllers.ApplyCheckoutCoupon(svcs.Checkout, logg))
				r.Delete("/{sessionID}/coupon", controllers.RemoveCheckoutCoupon(svcs.Checkout, logg))
				r.Post("/{sessionID}/back", controllers.CheckoutBack(svcs.Checkout, logg))
				r.Post("/{sessionID}/confirm", controllers.ConfirmCheckout(svcs.Checkout, logg))
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.CartSession(logg),
				middleware.AuthRateLimit(loginPolicy, redisClient, logg),
			).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, redisClient, logg),
				middleware.Idempotency(redisClient, logg),
			).Post("/register", controllers.AuthRegister(svcs.Register, logg))
			r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
				Post("/admin/login", controllers.AdminAuthLogin(svcs.Auth, logg))
		})

		// Customer account surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.Me(svcs.Users, logg))
				r.Put("/", controllers.UpdateProfile(svcs.Users, logg))
				r.Put("/password", controllers.ChangePassword(svcs.Users, logg))
			})

			r.Route("/direcciones", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(svcs.Addresses, logg))
				r.Post("/", controllers.CreateAddress(svcs.Addresses, logg))
				r.Put("/{addressID}", controllers.UpdateAddress(svcs.Addresses, logg))
				r.Delete("/{addressID}", controllers.DeleteAddress(svcs.Addresses, logg))
				r.Post("/{addressID}/default", controllers.SetDefaultAddress(svcs.Addresses, logg))
			})

			r.Route("/metodos-pago", func(r chi.Router) {
				r.Get("/", controllers.ListPaymentMethods(svcs.PaymentMethods, logg))
				r.Post("/", controllers.CreatePaymentMethod(svcs.PaymentMethods, logg))
				r.Delete("/{methodID}", controllers.DeletePaymentMethod(svcs.PaymentMethods, logg))
				r.Post("/{methodID}/default", controllers.SetDefaultPaymentMethod(svcs.PaymentMethods, logg))
			})

			r.Route("/pedidos", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.GetMyOrder(svcs.Orders, logg))
				r.With(middleware.Idempotency(redisClient, logg)).
					Post("/{orderID}/cancelar", controllers.CancelMyOrder(svcs.Orders, logg))
			})
		})

		// Back office.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.RequireRole("admin", logg))

			r.Post("/libros", controllers.CreateBook(svcs.Catalog, logg))
			r.Put("/libros/{bookID}", controllers.UpdateBook(svcs.Catalog, logg))
			r.Delete("/libros/{bookID}", controllers.DeleteBook(svcs.Catalog, logg))
			r.Get("/admin/libros", controllers.AdminListBooks(svcs.Catalog, logg))

			r.Post("/categorias", controllers.CreateCategory(svcs.Catalog, logg))
			r.Put("/categorias/{categoryID}", controllers.UpdateCategory(svcs.Catalog, logg))
			r.Delete("/categorias/{categoryID}", controllers.DeleteCategory(svcs.Catalog, logg))

			r.Post("/autores", controllers.CreateAuthor(svcs.Catalog, logg))
			r.Put("/autores/{authorID}", controllers.UpdateAuthor(svcs.Catalog, logg))
			r.Delete("/autores/{authorID}", controllers.DeleteAuthor(svcs.Catalog, logg))

			r.Post("/editoriales", controllers.CreatePublisher(svcs.Catalog, logg))
			r.Put("/editoriales/{publisherID}", controllers.UpdatePublisher(svcs.Catalog, logg))
			r.Delete("/editoriales/{publisherID}", controllers.DeletePublisher(svcs.Catalog, logg))

			r.Route("/cupones", func(r chi.Router) {
				r.Use(middleware.Idempotency(redisClient, logg))
				r.Get("/", controllers.ListCoupons(svcs.Coupons, logg))
				r.Post("/", controllers.CreateCoupon(svcs.Coupons, logg))
				r.Put("/{couponID}", controllers.UpdateCoupon(svcs.Coupons, logg))
				r.Delete("/{couponID}", controllers.DeleteCoupon(svcs.Coupons, logg))
			})

			r.Route("/admin/pedidos", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(svcs.Orders, logg))
				r.Put("/{orderID}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
			})
		})
	})

	return r
}
