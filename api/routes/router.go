package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vrukshaservices/vruksha-backend/api/controllers"
	"github.com/vrukshaservices/vruksha-backend/api/middleware"
	"github.com/vrukshaservices/vruksha-backend/internal/auth"
	"github.com/vrukshaservices/vruksha-backend/internal/bookings"
	"github.com/vrukshaservices/vruksha-backend/internal/cart"
	"github.com/vrukshaservices/vruksha-backend/internal/catalog"
	"github.com/vrukshaservices/vruksha-backend/internal/notifications"
	"github.com/vrukshaservices/vruksha-backend/internal/orders"
	"github.com/vrukshaservices/vruksha-backend/internal/payments"
	"github.com/vrukshaservices/vruksha-backend/internal/users"
	"github.com/vrukshaservices/vruksha-backend/internal/wishlist"
	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	pkgredis "github.com/vrukshaservices/vruksha-backend/pkg/redis"
)

// Services carries every constructed service the router wires handlers to.
type Services struct {
	Auth          *auth.Service
	Users         *users.Service
	Catalog       *catalog.Service
	Bookings      *bookings.Service
	Cart          *cart.Service
	Wishlist      *wishlist.Service
	Orders        *orders.Service
	Payments      *payments.Service
	Notifications *notifications.Service
}

// New assembles the HTTP router. The payment webhook stays outside the auth
// subtree: the provider authenticates with a body signature, not a bearer
// token.
func New(cfg *config.Config, svcs Services, dbClient *db.Client, rdb *pkgredis.Client, logg *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Get("/health", controllers.Health(dbClient, logg))
	r.Handle("/metrics", promhttp.Handler())

	authn := middleware.Auth(cfg.JWT, logg)
	admin := middleware.RequireAdmin(logg)
	loginLimit := middleware.AuthRateLimit(rdb, middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), logg)
	otpLimit := middleware.AuthRateLimit(rdb, middleware.OTPRateLimitPolicy(cfg.AuthRateLimit), logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/register", controllers.Register(svcs.Auth, logg))
			r.With(loginLimit).Post("/login", controllers.Login(svcs.Auth, logg))
			r.With(otpLimit).Post("/forgot-password", controllers.ForgotPassword(svcs.Auth, logg))
			r.With(otpLimit).Post("/verify-otp", controllers.VerifyOTP(svcs.Auth, logg))
			r.Post("/reset-password", controllers.ResetPassword(svcs.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", controllers.Me(svcs.Auth, logg))
				r.Put("/profile", controllers.UpdateProfile(svcs.Auth, logg))
			})
		})

		r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))
		r.Get("/products/{id}", controllers.GetProduct(svcs.Catalog, logg))
		r.Get("/products/{id}/reviews", controllers.ListReviews(svcs.Catalog, logg))
		r.Post("/products/{id}/reviews", controllers.CreateReview(svcs.Catalog, logg))

		r.Get("/services", controllers.ListServices(svcs.Bookings, logg))
		r.Post("/bookings", controllers.CreateBooking(svcs.Bookings, logg))
		r.Post("/inquiries", controllers.CreateInquiry(svcs.Bookings, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Post("/razorpay/webhook", controllers.RazorpayWebhook(svcs.Payments, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/create_qr", controllers.CreateQR(svcs.Payments, logg))
				r.Get("/verify", controllers.VerifyPayment(svcs.Payments, logg))
				r.Post("/close", controllers.ClosePayment(svcs.Payments, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Post("/orders", controllers.PlaceOrder(svcs.Orders, svcs.Auth, logg))
			r.Get("/orders/user", controllers.ListUserOrders(svcs.Orders, logg))

			r.Get("/cart", controllers.GetCart(svcs.Cart, logg))
			r.Put("/cart", controllers.PutCart(svcs.Cart, logg))
			r.Delete("/cart", controllers.ClearCart(svcs.Cart, logg))

			r.Get("/wishlist", controllers.GetWishlist(svcs.Wishlist, logg))
			r.Post("/wishlist/{productId}", controllers.AddWishlistItem(svcs.Wishlist, logg))
			r.Delete("/wishlist/{productId}", controllers.RemoveWishlistItem(svcs.Wishlist, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn, admin)

			r.Get("/users", controllers.ListUsers(svcs.Users, logg))
			r.Post("/users/{id}/promote", controllers.PromoteUser(svcs.Users, logg))
			r.Post("/users/{id}/demote", controllers.DemoteUser(svcs.Users, logg))

			r.Get("/orders", controllers.ListOrders(svcs.Orders, logg))

			r.Post("/products", controllers.CreateProduct(svcs.Catalog, logg))
			r.Put("/products/{id}", controllers.UpdateProduct(svcs.Catalog, logg))
			r.Delete("/products/{id}", controllers.DeleteProduct(svcs.Catalog, logg))
			r.Post("/products/{id}/variants", controllers.CreateVariant(svcs.Catalog, logg))

			r.Get("/notifications", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/notifications/{id}/ack", controllers.AcknowledgeNotification(svcs.Notifications, logg))
		})
	})

	return r
}
