package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hotel-booking-backend/events"
	"hotel-booking-backend/models"
)

// CancellationService manages guest cancellation requests and the manager
// decision on top of the orchestrator's state machine.
type CancellationService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Publisher    events.Publisher
	Clock        Clock
	Log          *logrus.Logger
}

func NewCancellationService(
	db *gorm.DB,
	availability *AvailabilityService,
	pub events.Publisher,
	clk Clock,
	log *logrus.Logger,
) *CancellationService {
	return &CancellationService{
		DB:           db,
		Availability: availability,
		Publisher:    pub,
		Clock:        clk,
		Log:          log,
	}
}

// RequestCancellation moves a Confirmed booking to CancellationPending with an
// open request. Only the booking's guest may request, and only while no other
// request is open.
func (s *CancellationService) RequestCancellation(ctx context.Context, p models.Principal, bookingID uint, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ValidationErrorf("cancellation reason is required")
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var booking models.Booking
		if err := s.DB.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("booking %d: %w", bookingID, models.ErrNotFound)
			}
			return nil, fmt.Errorf("load booking: %w", err)
		}

		if !p.IsGuest() || booking.GuestID != p.UserID {
			return nil, fmt.Errorf("only the booking guest may request cancellation: %w", models.ErrForbidden)
		}
		if booking.Status != models.BookingStatusConfirmed {
			return nil, models.StateErrorf("cannot request cancellation in status %s", booking.Status)
		}
		if booking.HasOpenCancellation() {
			return nil, models.StateErrorf("booking %d already has an open cancellation request", booking.ID)
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			return casUpdate(tx, &booking, map[string]interface{}{
				"status":              models.BookingStatusCancellationPending,
				"cancellation_reason": reason,
				"cancellation_status": models.CancellationPending,
			})
		})
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		booking.Status = models.BookingStatusCancellationPending
		booking.CancellationReason = &reason
		pending := models.CancellationPending
		booking.CancellationStatus = &pending

		_ = s.Publisher.Publish(ctx, events.KeyCancelRequested, booking.Summary())
		s.Log.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"guest_id":   p.UserID,
		}).Info("cancellation requested")
		return &booking, nil
	}

	return nil, fmt.Errorf("request cancellation: %w", models.ErrVersionConflict)
}

// Decide resolves an open cancellation request. Approval cancels the booking,
// refunds everything collected and frees the held range; rejection returns the
// booking to Confirmed and leaves the hold in place. Only the booking's
// manager or an admin may decide.
func (s *CancellationService) Decide(ctx context.Context, p models.Principal, bookingID uint, approve bool) (*models.Booking, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var booking models.Booking
		if err := s.DB.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("booking %d: %w", bookingID, models.ErrNotFound)
			}
			return nil, fmt.Errorf("load booking: %w", err)
		}

		if !p.IsAdmin() && !(p.IsManager() && booking.ManagerID == p.UserID) {
			return nil, fmt.Errorf("only the booking's manager or an admin may decide: %w", models.ErrForbidden)
		}
		if booking.Status != models.BookingStatusCancellationPending {
			return nil, models.StateErrorf("cannot decide cancellation in status %s", booking.Status)
		}

		now := s.Clock.Now()
		var err error
		if approve {
			err = s.approve(ctx, &booking, now)
		} else {
			err = s.reject(&booking)
		}
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				continue
			}
			return nil, err
		}

		key := events.KeyCancelRejected
		if approve {
			key = events.KeyBookingCancelled
		}
		_ = s.Publisher.Publish(ctx, key, booking.Summary())
		return &booking, nil
	}

	return nil, fmt.Errorf("decide cancellation: %w", models.ErrVersionConflict)
}

func (s *CancellationService) approve(ctx context.Context, booking *models.Booking, now time.Time) error {
	// The source platform refunds the full amount paid regardless of how close
	// to check-in the approval lands, despite the displayed 48h policy text.
	// Preserved as observed; flagged here for operators instead of fixed.
	if booking.CheckIn.Sub(now) < 48*time.Hour {
		s.Log.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"check_in":   booking.CheckIn,
		}).Warn("full refund approved inside the 48h window")
	}

	refund := booking.AmountPaid

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := casUpdate(tx, booking, map[string]interface{}{
			"status":              models.BookingStatusCancelled,
			"cancellation_status": models.CancellationApproved,
		}); err != nil {
			return err
		}
		if err := s.Availability.Release(tx, booking.ID); err != nil {
			return err
		}
		return recordRefund(tx, booking, refund, now)
	})
	if err != nil {
		return err
	}

	booking.Status = models.BookingStatusCancelled
	approved := models.CancellationApproved
	booking.CancellationStatus = &approved

	s.Log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund":     refund,
	}).Info("cancellation approved")
	return nil
}

func (s *CancellationService) reject(booking *models.Booking) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return casUpdate(tx, booking, map[string]interface{}{
			"status":              models.BookingStatusConfirmed,
			"cancellation_status": models.CancellationRejected,
		})
	})
	if err != nil {
		return err
	}

	booking.Status = models.BookingStatusConfirmed
	rejected := models.CancellationRejected
	booking.CancellationStatus = &rejected

	s.Log.WithField("booking_id", booking.ID).Info("cancellation rejected")
	return nil
}
