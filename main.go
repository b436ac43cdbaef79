package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hotel-booking-backend/config"
	"hotel-booking-backend/controllers"
	"hotel-booking-backend/events"
	"hotel-booking-backend/gateway"
	"hotel-booking-backend/routes"
	"hotel-booking-backend/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config load failed: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Connect database (config.ConnectDatabase sets config.DB)
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied")

	// Event publisher: AMQP when configured, otherwise a no-op
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, pubErr := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if pubErr != nil {
			log.Fatalf("❌ AMQP connect failed: %v", pubErr)
		}
		publisher = amqpPub
		defer publisher.Close()
		log.Println("✅ AMQP publisher connected")
	}

	clk := services.SystemClock()
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, logger)

	// Initialize services
	availabilitySvc := services.NewAvailabilityService(db, clk)
	bookingCfg := services.DefaultBookingConfig()
	bookingCfg.HoldTimeout = cfg.HoldTimeout
	bookingCfg.DepositRate = cfg.DepositRate
	bookingCfg.Currency = cfg.Currency
	bookingCfg.WebhookSecret = cfg.GatewayWebhookSecret
	bookingSvc := services.NewBookingService(db, availabilitySvc, gatewayClient, publisher, clk, logger, bookingCfg)
	cancellationSvc := services.NewCancellationService(db, availabilitySvc, publisher, clk, logger)
	ledgerSvc := services.NewLedgerService(db)
	catalogSvc := services.NewCatalogService(db)

	// Initialize controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret, cfg.JWTExpire)
	bookingController := controllers.NewBookingController(bookingSvc, availabilitySvc)
	cancellationController := controllers.NewCancellationController(cancellationSvc)
	webhookController := controllers.NewWebhookController(bookingSvc)
	ledgerController := controllers.NewLedgerController(ledgerSvc)
	catalogController := controllers.NewCatalogController(catalogSvc)

	router := routes.SetupRouter(
		authController,
		bookingController,
		cancellationController,
		webhookController,
		ledgerController,
		catalogController,
		cfg.JWTSecret,
		logger,
	)

	// Background sweep: no Pending booking survives past its hold timeout
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := services.NewExpirySweeper(bookingSvc, cfg.SweepInterval, logger)
	go sweeper.Run(sweepCtx)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
