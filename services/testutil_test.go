package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-booking-backend/config"
	"hotel-booking-backend/events"
	"hotel-booking-backend/gateway"
	"hotel-booking-backend/models"
)

const testWebhookSecret = "test-webhook-secret"

// fakeGateway hands out deterministic orders and can be told to fail.
type fakeGateway struct {
	orders     int
	lastAmount float64
	failTimes  int // fail this many calls with ErrGatewayUnavailable first
	calls      int
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (gateway.Order, error) {
	f.calls++
	if f.failTimes > 0 {
		f.failTimes--
		return gateway.Order{}, fmt.Errorf("create order: %w", models.ErrGatewayUnavailable)
	}
	f.orders++
	f.lastAmount = amount
	return gateway.Order{
		ID:       fmt.Sprintf("order_%03d", f.orders),
		Amount:   int64(amount * 100),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

type testEnv struct {
	DB            *gorm.DB
	Clock         *FixedClock
	Gateway       *fakeGateway
	Availability  *AvailabilityService
	Bookings      *BookingService
	Cancellations *CancellationService
	Ledger        *LedgerService

	Guest   models.User
	Manager models.User
	Admin   models.User
	Hotel   models.Hotel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clk := &FixedClock{T: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	gw := &fakeGateway{}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	availability := NewAvailabilityService(db, clk)
	cfg := DefaultBookingConfig()
	cfg.WebhookSecret = testWebhookSecret
	cfg.GatewayRetryBase = time.Millisecond
	bookings := NewBookingService(db, availability, gw, events.NoopPublisher{}, clk, log, cfg)
	cancellations := NewCancellationService(db, availability, events.NoopPublisher{}, clk, log)

	env := &testEnv{
		DB:            db,
		Clock:         clk,
		Gateway:       gw,
		Availability:  availability,
		Bookings:      bookings,
		Cancellations: cancellations,
		Ledger:        NewLedgerService(db),
	}

	env.Guest = models.User{FullName: "Test Guest", Email: "guest@test.local", Role: models.RoleGuest}
	env.Manager = models.User{FullName: "Test Manager", Email: "manager@test.local", Role: models.RoleManager}
	env.Admin = models.User{FullName: "Test Admin", Email: "admin@test.local", Role: models.RoleAdmin}
	for _, u := range []*models.User{&env.Guest, &env.Manager, &env.Admin} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	env.Hotel = models.Hotel{
		Name:              "Seaside Palms",
		ManagerID:         env.Manager.ID,
		BasePricePerNight: 5000,
		CommissionRate:    0.10,
	}
	if err := db.Create(&env.Hotel).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}

	return env
}

func (e *testEnv) guestPrincipal() models.Principal {
	return models.Principal{UserID: e.Guest.ID, Role: models.RoleGuest}
}

func (e *testEnv) managerPrincipal() models.Principal {
	return models.Principal{UserID: e.Manager.ID, Role: models.RoleManager}
}

func (e *testEnv) adminPrincipal() models.Principal {
	return models.Principal{UserID: e.Admin.ID, Role: models.RoleAdmin}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createBooking runs Create for the given range and returns the result.
func (e *testEnv) createBooking(t *testing.T, checkIn, checkOut time.Time, option string) *CreateBookingResult {
	t.Helper()
	result, err := e.Bookings.Create(context.Background(), e.guestPrincipal(), CreateBookingInput{
		HotelID:       e.Hotel.ID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        2,
		PaymentOption: option,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return result
}

// payBooking delivers a signed captured-payment callback for the result's order.
func (e *testEnv) payBooking(t *testing.T, result *CreateBookingResult) *models.Booking {
	t.Helper()
	payload := signedCallback(result.Order.ID, "pay_"+result.Order.ID, result.AmountDue)
	booking, err := e.Bookings.HandleGatewayCallback(context.Background(), payload)
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	return booking
}

func signedCallback(orderID, paymentID string, amount float64) gateway.CallbackPayload {
	return gateway.CallbackPayload{
		Event:            gateway.EventPaymentCaptured,
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Amount:           amount,
		Signature:        gateway.Signature(orderID, paymentID, testWebhookSecret),
	}
}

// mustReload fetches the current booking row.
func (e *testEnv) mustReload(t *testing.T, id uint) models.Booking {
	t.Helper()
	var b models.Booking
	if err := e.DB.First(&b, id).Error; err != nil {
		t.Fatalf("reload booking %d: %v", id, err)
	}
	return b
}

// assertMoneyInvariant checks amountPaid + remainingAmount == totalPrice.
func assertMoneyInvariant(t *testing.T, b models.Booking) {
	t.Helper()
	if got := models.Round2(b.AmountPaid + b.RemainingAmount); got != b.TotalPrice {
		t.Fatalf("money invariant broken: paid %.2f + remaining %.2f != total %.2f",
			b.AmountPaid, b.RemainingAmount, b.TotalPrice)
	}
}

func (e *testEnv) holdCount(t *testing.T, hotelID uint) int64 {
	t.Helper()
	var n int64
	if err := e.DB.Model(&models.AvailabilityHold{}).Where("hotel_id = ?", hotelID).Count(&n).Error; err != nil {
		t.Fatalf("count holds: %v", err)
	}
	return n
}

func (e *testEnv) ledgerEntries(t *testing.T, bookingID uint) []models.LedgerEntry {
	t.Helper()
	var entries []models.LedgerEntry
	if err := e.DB.Where("booking_id = ?", bookingID).Order("id").Find(&entries).Error; err != nil {
		t.Fatalf("load ledger entries: %v", err)
	}
	return entries
}
