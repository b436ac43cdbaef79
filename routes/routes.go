package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotel-booking-backend/controllers"
	"hotel-booking-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires controller instances to routes. The webhook endpoint is
// the only unauthenticated mutation: its trust comes from the HMAC signature,
// not from a bearer token.
func SetupRouter(
	ac *controllers.AuthController,
	bc *controllers.BookingController,
	cc *controllers.CancellationController,
	wc *controllers.WebhookController,
	lc *controllers.LedgerController,
	hc *controllers.CatalogController,
	jwtSecret string,
	log *logrus.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", ac.Login)
		}

		api.GET("/availability/quote", bc.QuoteAvailability)

		api.POST("/payments/webhook", wc.HandlePaymentWebhook)

		hotels := api.Group("/hotels")
		{
			hotels.GET("", hc.ListHotels)
			hotels.GET("/:id/pricing", hc.GetHotelPricing)
		}

		authed := api.Group("")
		authed.Use(middleware.RequireAuth(jwtSecret))
		{
			bookings := authed.Group("/bookings")
			{
				bookings.GET("", bc.ListBookings)
				bookings.POST("", bc.CreateBooking)
				bookings.GET("/:id", bc.GetBooking)
				bookings.POST("/:id/cancel", cc.RequestCancellation)
				bookings.POST("/:id/cancel/decision", cc.Decide)
			}

			ledger := authed.Group("/ledger")
			{
				ledger.GET("", lc.ListEntries)
				ledger.GET("/report", lc.Report)
			}
		}
	}

	return r
}
