package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-booking-backend/config"
	"hotel-booking-backend/events"
	"hotel-booking-backend/gateway"
	"hotel-booking-backend/models"
	"hotel-booking-backend/services"
)

const webhookTestSecret = "webhook-test-secret"

type stubGateway struct{ orders int }

func (s *stubGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (gateway.Order, error) {
	s.orders++
	return gateway.Order{ID: "order_stub", Amount: int64(amount * 100), Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type webhookFixture struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Booking models.Booking
	OrderID string
	Due     float64
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	clk := &services.FixedClock{T: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	availability := services.NewAvailabilityService(db, clk)
	cfg := services.DefaultBookingConfig()
	cfg.WebhookSecret = webhookTestSecret
	bookings := services.NewBookingService(db, availability, &stubGateway{}, events.NoopPublisher{}, clk, log, cfg)

	guest := models.User{FullName: "Guest", Email: "guest@test.local", Role: models.RoleGuest}
	manager := models.User{FullName: "Manager", Email: "manager@test.local", Role: models.RoleManager}
	for _, u := range []*models.User{&guest, &manager} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	hotel := models.Hotel{Name: "Seaside Palms", ManagerID: manager.ID, BasePricePerNight: 5000, CommissionRate: 0.10}
	if err := db.Create(&hotel).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}

	result, err := bookings.Create(context.Background(), models.Principal{UserID: guest.ID, Role: models.RoleGuest}, services.CreateBookingInput{
		HotelID:       hotel.ID,
		CheckIn:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		PaymentOption: models.PaymentOptionFull,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	router := gin.New()
	wc := NewWebhookController(bookings)
	router.POST("/api/payments/webhook", wc.HandlePaymentWebhook)

	return &webhookFixture{
		DB:      db,
		Router:  router,
		Booking: result.Booking,
		OrderID: result.Order.ID,
		Due:     result.AmountDue,
	}
}

func (f *webhookFixture) deliver(t *testing.T, payload gateway.CallbackPayload) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

func (f *webhookFixture) reload(t *testing.T) models.Booking {
	t.Helper()
	var b models.Booking
	if err := f.DB.First(&b, f.Booking.ID).Error; err != nil {
		t.Fatalf("reload booking: %v", err)
	}
	return b
}

func TestWebhookEndpointConfirms(t *testing.T) {
	f := newWebhookFixture(t)

	payload := gateway.CallbackPayload{
		Event:            gateway.EventPaymentCaptured,
		GatewayOrderID:   f.OrderID,
		GatewayPaymentID: "pay_1",
		Amount:           f.Due,
		Signature:        gateway.Signature(f.OrderID, "pay_1", webhookTestSecret),
	}

	rec := f.deliver(t, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if b := f.reload(t); b.Status != models.BookingStatusConfirmed {
		t.Fatalf("expected Confirmed, got %s", b.Status)
	}

	// redelivery acknowledges without another transition
	rec = f.deliver(t, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay must return 200, got %d", rec.Code)
	}
}

func TestWebhookEndpointRejectsForgery(t *testing.T) {
	f := newWebhookFixture(t)

	payload := gateway.CallbackPayload{
		Event:            gateway.EventPaymentCaptured,
		GatewayOrderID:   f.OrderID,
		GatewayPaymentID: "pay_evil",
		Amount:           f.Due,
		Signature:        "not-a-real-signature",
	}

	rec := f.deliver(t, payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if b := f.reload(t); b.Status != models.BookingStatusPending {
		t.Fatalf("forged callback touched state: %s", b.Status)
	}
}

func TestWebhookEndpointUnknownOrder(t *testing.T) {
	f := newWebhookFixture(t)

	payload := gateway.CallbackPayload{
		Event:            gateway.EventPaymentCaptured,
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_1",
		Amount:           f.Due,
		Signature:        gateway.Signature("order_missing", "pay_1", webhookTestSecret),
	}

	rec := f.deliver(t, payload)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookEndpointMalformedBody(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookEndpointUnknownEventIgnored(t *testing.T) {
	f := newWebhookFixture(t)

	payload := gateway.CallbackPayload{
		Event:            "payment.authorized",
		GatewayOrderID:   f.OrderID,
		GatewayPaymentID: "pay_1",
		Amount:           f.Due,
		Signature:        gateway.Signature(f.OrderID, "pay_1", webhookTestSecret),
	}

	rec := f.deliver(t, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown events must be acknowledged, got %d", rec.Code)
	}
	if b := f.reload(t); b.Status != models.BookingStatusPending {
		t.Fatalf("unknown event must not transition, got %s", b.Status)
	}
}
