package routes

import (
	"net/http"
	"time"

	"tahanan/handlers"
	"tahanan/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterLedgerRoutes(r, hb)
	RegisterSubscriptionRoutes(r, hb)
	RegisterListingRoutes(r, hb)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Tahanan"})
	})
}

// RegisterAvailabilityRoutes registers the public availability read.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/availability/:listingID", hb.Booking.CheckAvailability)
}

// RegisterBookingRoutes registers the reservation lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.AuthMiddleware())
		api.GET("", hb.Booking.ListMine)
		api.POST("", hb.Booking.RequestBooking)
		api.POST("/:id/respond", hb.Booking.HostRespond)
		api.POST("/:id/cancel", hb.Booking.Cancel)
	}
}

// RegisterLedgerRoutes registers deposit, refund and wallet endpoints.
func RegisterLedgerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(middleware.AuthMiddleware())
		api.POST("/ledger/deposit", hb.Ledger.Deposit)
		api.GET("/wallet/:userID", hb.Ledger.Wallet)
		api.GET("/wallet/:userID/entries", hb.Ledger.WalletHistory)

		// Refunds and cache rebuilds are moderation actions.
		admin := api.Group("")
		admin.Use(middleware.AdminOnly())
		admin.POST("/ledger/refund", hb.Ledger.Refund)
		admin.POST("/wallet/:userID/rebuild", hb.Ledger.RebuildWallet)
	}
}

// RegisterSubscriptionRoutes registers host paid-access endpoints.
func RegisterSubscriptionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/subscriptions")
	{
		api.Use(middleware.AuthMiddleware())
		api.GET("/:hostID", hb.Subscription.Get)
		api.POST("/activate", hb.Subscription.Activate)
	}
}

// RegisterListingRoutes registers listing calendar management endpoints.
func RegisterListingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/listings")
	{
		api.Use(middleware.AuthMiddleware())
		api.POST("", hb.Listing.Create)
		api.PUT("/:id/calendar", hb.Listing.UpdateCalendar)
	}
}
