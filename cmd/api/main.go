package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vrukshaservices/vruksha-backend/api/routes"
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
	"github.com/vrukshaservices/vruksha-backend/pkg/mailer"
	"github.com/vrukshaservices/vruksha-backend/pkg/metrics"
	"github.com/vrukshaservices/vruksha-backend/pkg/migrate"
	"github.com/vrukshaservices/vruksha-backend/pkg/razorpay"
	pkgredis "github.com/vrukshaservices/vruksha-backend/pkg/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logg := logger.New(logger.Options{
		ServiceName: "vruksha-api",
		Level:       level,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api shutting down with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Redis only backs auth rate limiting; the API starts without it.
	rdb, err := pkgredis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, rate limiting disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	mail := mailer.New(cfg.SMTP, cfg.Admin.Emails, logg)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)
	razorpayClient := razorpay.NewClient(cfg.Razorpay, logg)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	otpRepo := auth.NewOTPRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	bookingRepo := bookings.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	notificationRepo := notifications.NewRepository(conn)

	notificationSvc, err := notifications.NewService(notificationRepo, mail, logg)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(userRepo, otpRepo, mail, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return err
	}
	userSvc, err := users.NewService(userRepo, logg)
	if err != nil {
		return err
	}
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	if err != nil {
		return err
	}
	bookingSvc, err := bookings.NewService(bookingRepo, notificationSvc, logg)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartRepo)
	if err != nil {
		return err
	}
	wishlistSvc, err := wishlist.NewService(userRepo)
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(orderRepo, catalogSvc, cartSvc, notificationSvc, logg)
	if err != nil {
		return err
	}
	paymentSvc, err := payments.NewService(paymentRepo, dbClient, razorpayClient, notificationSvc, paymentMetrics, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}

	handler := routes.New(cfg, routes.Services{
		Auth:          authSvc,
		Users:         userSvc,
		Catalog:       catalogSvc,
		Bookings:      bookingSvc,
		Cart:          cartSvc,
		Wishlist:      wishlistSvc,
		Orders:        orderSvc,
		Payments:      paymentSvc,
		Notifications: notificationSvc,
	}, dbClient, rdb, logg)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
