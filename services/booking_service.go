package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hotel-booking-backend/events"
	"hotel-booking-backend/gateway"
	"hotel-booking-backend/models"
	"hotel-booking-backend/utils"
)

// BookingConfig holds orchestrator tunables.
type BookingConfig struct {
	HoldTimeout      time.Duration // how long a Pending booking blocks inventory
	DepositRate      float64       // due-now share for Partial bookings
	Currency         string
	WebhookSecret    string
	GatewayRetries   int           // bounded retries on ErrGatewayUnavailable
	GatewayRetryBase time.Duration // backoff base, doubled per attempt
}

func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		HoldTimeout:      15 * time.Minute,
		DepositRate:      0.20,
		Currency:         "INR",
		GatewayRetries:   3,
		GatewayRetryBase: 200 * time.Millisecond,
	}
}

// BookingService owns the booking state machine. It is the sole writer of
// Booking records; every transition does a compare-and-set on
// (booking_id, version) so concurrent transitions are totally ordered.
type BookingService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Gateway      gateway.PaymentGateway
	Publisher    events.Publisher
	Clock        Clock
	Log          *logrus.Logger
	Config       BookingConfig
}

func NewBookingService(
	db *gorm.DB,
	availability *AvailabilityService,
	gw gateway.PaymentGateway,
	pub events.Publisher,
	clk Clock,
	log *logrus.Logger,
	cfg BookingConfig,
) *BookingService {
	return &BookingService{
		DB:           db,
		Availability: availability,
		Gateway:      gw,
		Publisher:    pub,
		Clock:        clk,
		Log:          log,
		Config:       cfg,
	}
}

// casRetries bounds reload-and-retry loops on version conflicts.
const casRetries = 3

// casUpdate applies updates only if nobody else transitioned the booking
// since it was loaded.
func casUpdate(tx *gorm.DB, b *models.Booking, updates map[string]interface{}) error {
	updates["version"] = b.Version + 1
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrVersionConflict
	}
	b.Version++
	return nil
}

type CreateBookingInput struct {
	HotelID       uint      `json:"hotel_id"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	PaymentOption string    `json:"payment_option"`
}

// CreateBookingResult carries the tentative booking plus the gateway order the
// client completes payment against.
type CreateBookingResult struct {
	Booking   models.Booking `json:"booking"`
	Order     gateway.Order  `json:"order"`
	AmountDue float64        `json:"amount_due"`
}

// Create validates the quote, commits the hold, persists the Pending booking
// and requests a payment order for the due amount. The gateway round-trip runs
// outside the hotel lock so it never blocks other bookings on the same hotel.
// When the gateway stays unavailable after bounded retries the Pending booking
// is left to expire via the sweep rather than being force-failed.
func (s *BookingService) Create(ctx context.Context, p models.Principal, in CreateBookingInput) (*CreateBookingResult, error) {
	if !p.IsGuest() {
		return nil, fmt.Errorf("only guests can create bookings: %w", models.ErrForbidden)
	}
	if in.Guests < 1 {
		return nil, models.ValidationErrorf("guests must be at least 1")
	}
	if !in.CheckIn.Before(in.CheckOut) {
		return nil, models.ValidationErrorf("check_in must be before check_out")
	}
	if in.PaymentOption != models.PaymentOptionFull && in.PaymentOption != models.PaymentOptionPartial {
		return nil, models.ValidationErrorf("payment_option must be Full or Partial")
	}

	checkIn := midnightUTC(in.CheckIn)
	checkOut := midnightUTC(in.CheckOut)

	var hotel models.Hotel
	if err := s.DB.First(&hotel, in.HotelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hotel %d: %w", in.HotelID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load hotel: %w", err)
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	totalPrice := models.Round2(float64(nights) * hotel.BasePricePerNight)
	if totalPrice <= 0 {
		return nil, models.ValidationErrorf("total price must be positive")
	}

	now := s.Clock.Now()
	expiresAt := now.Add(s.Config.HoldTimeout)

	booking := models.Booking{
		ReferenceCode:   utils.GenerateReferenceCode(),
		HotelID:         hotel.ID,
		GuestID:         p.UserID,
		ManagerID:       hotel.ManagerID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          in.Guests,
		TotalPrice:      totalPrice,
		PaymentOption:   in.PaymentOption,
		AmountPaid:      0,
		RemainingAmount: totalPrice,
		Status:          models.BookingStatusPending,
		Version:         1,
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		if _, err := s.Availability.Commit(tx, hotel.ID, checkIn, checkOut, booking.ID, expiresAt); err != nil {
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	_ = s.Publisher.Publish(ctx, events.KeyBookingCreated, booking.Summary())

	amountDue := booking.AmountDue(s.Config.DepositRate)
	order, err := s.createOrderWithRetry(ctx, amountDue, booking.ReferenceCode)
	if err != nil {
		s.Log.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"reference":  booking.ReferenceCode,
		}).WithError(err).Warn("payment order creation failed; booking left to expire")
		return nil, err
	}

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		return casUpdate(tx, &booking, map[string]interface{}{
			"gateway_order_id": order.ID,
		})
	}); err != nil {
		return nil, fmt.Errorf("attach gateway order: %w", err)
	}
	booking.GatewayOrderID = &order.ID

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"hotel_id":   hotel.ID,
		"order_id":   order.ID,
		"amount_due": amountDue,
	}).Info("booking created")

	return &CreateBookingResult{Booking: booking, Order: order, AmountDue: amountDue}, nil
}

func (s *BookingService) createOrderWithRetry(ctx context.Context, amount float64, receipt string) (gateway.Order, error) {
	var lastErr error
	delay := s.Config.GatewayRetryBase
	for attempt := 0; attempt <= s.Config.GatewayRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return gateway.Order{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		order, err := s.Gateway.CreateOrder(ctx, amount, s.Config.Currency, receipt)
		if err == nil {
			return order, nil
		}
		lastErr = err
		if !errors.Is(err, models.ErrGatewayUnavailable) {
			return gateway.Order{}, err
		}
	}
	return gateway.Order{}, lastErr
}

// HandleGatewayCallback verifies the callback and applies the consequence.
// The adapter only proves authenticity; the decision happens here. Safe to
// invoke multiple times for the same delivery.
func (s *BookingService) HandleGatewayCallback(ctx context.Context, payload gateway.CallbackPayload) (*models.Booking, error) {
	if err := gateway.VerifyCallback(payload, s.Config.WebhookSecret); err != nil {
		// Forged or corrupted: logged for operators, never surfaced to users.
		s.Log.WithFields(logrus.Fields{
			"order_id":   payload.GatewayOrderID,
			"payment_id": payload.GatewayPaymentID,
		}).Warn("webhook signature rejected")
		return nil, err
	}

	switch payload.Event {
	case gateway.EventPaymentFailed:
		return s.rejectOnGatewayFailure(ctx, payload)
	case gateway.EventPaymentCaptured, "":
		return s.confirmOnPayment(ctx, payload)
	default:
		s.Log.WithField("event", payload.Event).Info("ignoring unknown gateway event")
		return nil, nil
	}
}

// confirmOnPayment transitions Pending -> Confirmed and emits the ledger
// entry, exactly once per gatewayOrderId no matter how often the gateway
// retries delivery.
func (s *BookingService) confirmOnPayment(ctx context.Context, payload gateway.CallbackPayload) (*models.Booking, error) {
	var booking models.Booking

	for attempt := 0; attempt < casRetries; attempt++ {
		if err := s.DB.Where("gateway_order_id = ?", payload.GatewayOrderID).First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("unknown gateway order %s: %w", payload.GatewayOrderID, models.ErrNotFound)
			}
			return nil, fmt.Errorf("load booking: %w", err)
		}

		// Replay of an already-processed delivery: acknowledge, change nothing.
		if booking.Status == models.BookingStatusConfirmed &&
			booking.GatewayPaymentID != nil && *booking.GatewayPaymentID == payload.GatewayPaymentID {
			return &booking, nil
		}
		if booking.Status != models.BookingStatusPending {
			return nil, models.StateErrorf("cannot confirm booking %d in status %s", booking.ID, booking.Status)
		}

		amountDue := booking.AmountDue(s.Config.DepositRate)
		if models.Round2(payload.Amount) != amountDue {
			return nil, models.ValidationErrorf("callback amount %.2f does not match due %.2f", payload.Amount, amountDue)
		}

		var hotel models.Hotel
		if err := s.DB.First(&hotel, booking.HotelID).Error; err != nil {
			return nil, fmt.Errorf("load hotel: %w", err)
		}

		now := s.Clock.Now()
		rawPayload, _ := json.Marshal(payload)

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, &booking, map[string]interface{}{
				"status":             models.BookingStatusConfirmed,
				"amount_paid":        amountDue,
				"remaining_amount":   models.Round2(booking.TotalPrice - amountDue),
				"gateway_payment_id": payload.GatewayPaymentID,
				"gateway_payload":    datatypes.JSON(rawPayload),
				"confirmed_at":       now,
			}); err != nil {
				return err
			}
			if err := s.Availability.Pin(tx, booking.ID); err != nil {
				return err
			}
			return recordConfirmation(tx, &booking, &hotel, now)
		})
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				continue // somebody raced us; reload and re-check state
			}
			return nil, err
		}

		booking.Status = models.BookingStatusConfirmed
		booking.AmountPaid = amountDue
		booking.RemainingAmount = models.Round2(booking.TotalPrice - amountDue)
		booking.GatewayPaymentID = &payload.GatewayPaymentID
		booking.ConfirmedAt = &now

		_ = s.Publisher.Publish(ctx, events.KeyBookingConfirmed, booking.Summary())

		s.Log.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"order_id":   payload.GatewayOrderID,
			"amount":     amountDue,
		}).Info("booking confirmed")
		return &booking, nil
	}

	return nil, fmt.Errorf("confirm booking: %w", models.ErrVersionConflict)
}

// rejectOnGatewayFailure transitions Pending -> RejectedByGateway and frees
// the held range.
func (s *BookingService) rejectOnGatewayFailure(ctx context.Context, payload gateway.CallbackPayload) (*models.Booking, error) {
	var booking models.Booking

	for attempt := 0; attempt < casRetries; attempt++ {
		if err := s.DB.Where("gateway_order_id = ?", payload.GatewayOrderID).First(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("unknown gateway order %s: %w", payload.GatewayOrderID, models.ErrNotFound)
			}
			return nil, fmt.Errorf("load booking: %w", err)
		}

		if booking.Status == models.BookingStatusRejectedByGateway {
			return &booking, nil
		}
		if booking.Status != models.BookingStatusPending {
			return nil, models.StateErrorf("cannot reject booking %d in status %s", booking.ID, booking.Status)
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, &booking, map[string]interface{}{
				"status":             models.BookingStatusRejectedByGateway,
				"gateway_payment_id": payload.GatewayPaymentID,
			}); err != nil {
				return err
			}
			return s.Availability.Release(tx, booking.ID)
		})
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		booking.Status = models.BookingStatusRejectedByGateway
		_ = s.Publisher.Publish(ctx, events.KeyBookingRejected, booking.Summary())
		s.Log.WithField("booking_id", booking.ID).Info("booking rejected by gateway")
		return &booking, nil
	}

	return nil, fmt.Errorf("reject booking: %w", models.ErrVersionConflict)
}

// ExpireUnpaid releases every Pending booking whose hold expiry has passed
// without a confirmation. Idempotent: expiring an already-resolved booking is
// a no-op. Returns the number of bookings expired.
func (s *BookingService) ExpireUnpaid(ctx context.Context) (int, error) {
	now := s.Clock.Now()

	var holds []models.AvailabilityHold
	if err := s.DB.
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Find(&holds).Error; err != nil {
		return 0, fmt.Errorf("list expired holds: %w", err)
	}

	expired := 0
	for _, hold := range holds {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var booking models.Booking
			if err := forUpdate(tx).First(&booking, hold.BookingID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// orphan hold; just drop it
					return s.Availability.Release(tx, hold.BookingID)
				}
				return err
			}
			if booking.Status != models.BookingStatusPending {
				// resolved in the meantime; the hold row is stale
				return s.Availability.Release(tx, hold.BookingID)
			}
			if err := casUpdate(tx, &booking, map[string]interface{}{
				"status": models.BookingStatusExpired,
			}); err != nil {
				return err
			}
			if err := s.Availability.Release(tx, booking.ID); err != nil {
				return err
			}
			expired++
			_ = s.Publisher.Publish(ctx, events.KeyBookingExpired, booking.Summary())
			return nil
		})
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				continue // a webhook won the race for this booking
			}
			s.Log.WithError(err).WithField("booking_id", hold.BookingID).Warn("expire sweep failed for booking")
		}
	}

	if expired > 0 {
		s.Log.WithField("count", expired).Info("expired unpaid bookings")
	}
	return expired, nil
}

// GetBooking returns a booking visible to the principal: guests see their own,
// managers see their hotels', admins see all.
func (s *BookingService) GetBooking(p models.Principal, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.Preload("Hotel").Preload("Guest").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", bookingID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !canSeeBooking(p, &booking) {
		return nil, fmt.Errorf("booking %d: %w", bookingID, models.ErrForbidden)
	}
	return &booking, nil
}

// ListSummaries returns role-scoped read-only booking summaries for UI.
func (s *BookingService) ListSummaries(p models.Principal) ([]models.BookingSummary, error) {
	q := s.DB.Preload("Hotel").Preload("Guest").Order("created_at DESC")
	switch p.Role {
	case models.RoleGuest:
		q = q.Where("guest_id = ?", p.UserID)
	case models.RoleManager:
		q = q.Where("manager_id = ?", p.UserID)
	case models.RoleAdmin:
		// unrestricted
	default:
		return nil, fmt.Errorf("role %q: %w", p.Role, models.ErrForbidden)
	}

	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	summaries := make([]models.BookingSummary, 0, len(bookings))
	for i := range bookings {
		summaries = append(summaries, bookings[i].Summary())
	}
	return summaries, nil
}

func canSeeBooking(p models.Principal, b *models.Booking) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return b.ManagerID == p.UserID
	case models.RoleGuest:
		return b.GuestID == p.UserID
	}
	return false
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
