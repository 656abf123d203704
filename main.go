// File: tahanan/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tahanan/config"
	"tahanan/cron"
	"tahanan/database"
	ledgerRepoPkg "tahanan/database/repository/ledger"
	listingRepoPkg "tahanan/database/repository/listing"
	reservationRepoPkg "tahanan/database/repository/reservation"
	subscriptionRepoPkg "tahanan/database/repository/subscription"
	"tahanan/handlers"
	"tahanan/middleware"
	"tahanan/routes"
	"tahanan/services/availability"
	"tahanan/services/booking"
	"tahanan/services/events"
	"tahanan/services/ledger"
	"tahanan/services/payment"
	"tahanan/services/refund"
	"tahanan/services/subscription"
	"tahanan/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitWalletCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	listingRepo := listingRepoPkg.NewMongoListingRepo()
	reservationRepo := reservationRepoPkg.NewMongoReservationRepo()
	ledgerRepo := ledgerRepoPkg.NewMongoLedgerRepo()
	subscriptionRepo := subscriptionRepoPkg.NewMongoSubscriptionRepo()

	// services.
	bus := events.NewBus(256, logger)
	events.LogEvents(bus, logger)

	walletCache := ledger.NewRedisWalletCache(utils.GetWalletCacheClient())
	ledgerService := &ledger.DefaultLedgerService{
		Repo:        ledgerRepo,
		Wallet:      walletCache,
		Events:      bus,
		AdminUserID: config.AppConfig.AdminUserID,
		Logger:      logger,
	}
	refundProcessor := &refund.DefaultRefundProcessor{
		Repo:   ledgerRepo,
		Wallet: walletCache,
		Events: bus,
		Logger: logger,
	}
	bookingService := booking.NewDefaultBookingService(
		listingRepo,
		reservationRepo,
		availability.NewEngine(),
		ledgerService,
		refundProcessor,
		bus,
		logger,
		config.AppConfig.RefundPercentOnGuestCancel,
	)
	subscriptionService := &subscription.DefaultSubscriptionService{
		Repo:          subscriptionRepo,
		Ledger:        ledgerService,
		Events:        bus,
		Logger:        logger,
		PlanCycleDays: config.AppConfig.PlanCycleDays,
	}
	gateway := payment.NewStripeGateway(logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Booking:      handlers.NewBookingHandler(bookingService, logger),
		Ledger:       handlers.NewLedgerHandler(ledgerService, refundProcessor, gateway, logger),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, logger),
		Listing:      handlers.NewListingHandler(listingRepo, logger),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Periodic sweeps: reservation completion and subscription expiry.
	cron.InitSweepWorker(bookingService, subscriptionService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
