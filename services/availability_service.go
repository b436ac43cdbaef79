package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-booking-backend/models"
)

// AvailabilityService is the authoritative source of whether a date range is
// free for a hotel. Quote is an advisory unlocked read; Commit locks the hotel
// row and re-checks overlap before inserting the hold, because time elapses
// between quote and commit.
type AvailabilityService struct {
	DB    *gorm.DB
	Clock Clock
}

func NewAvailabilityService(db *gorm.DB, clk Clock) *AvailabilityService {
	return &AvailabilityService{DB: db, Clock: clk}
}

// forUpdate applies a row lock where the dialect supports it. sqlite (the
// test harness) serializes writers on its own and rejects FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// activeOverlapQuery matches holds that still block [checkIn, checkOut):
// ranges conflict iff a1 < b2 AND b1 < a2; expired holds are excluded
// (they are lazily reaped, not actively deleted).
func activeOverlapQuery(tx *gorm.DB, hotelID uint, checkIn, checkOut, now time.Time) *gorm.DB {
	return tx.Model(&models.AvailabilityHold{}).
		Where("hotel_id = ?", hotelID).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

// Quote reports whether the range is currently free. Advisory only: the answer
// may be stale by the time the caller commits.
func (s *AvailabilityService) Quote(hotelID uint, checkIn, checkOut time.Time) (bool, error) {
	if !checkIn.Before(checkOut) {
		return false, models.ValidationErrorf("check_in must be before check_out")
	}

	var hotel models.Hotel
	if err := s.DB.First(&hotel, hotelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("hotel %d: %w", hotelID, models.ErrNotFound)
		}
		return false, fmt.Errorf("load hotel: %w", err)
	}

	var n int64
	if err := activeOverlapQuery(s.DB, hotelID, checkIn, checkOut, s.Clock.Now()).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count holds: %w", err)
	}
	return n == 0, nil
}

// Commit inserts a hold for the booking, or fails with ErrConflict when the
// range is no longer free. Must run inside the caller's transaction: it takes
// the per-hotel serialization lock (hotel row FOR UPDATE) so that two commits
// for the same hotel are serialized at the conflict check only.
func (s *AvailabilityService) Commit(tx *gorm.DB, hotelID uint, checkIn, checkOut time.Time, bookingID uint, expiresAt time.Time) (*models.AvailabilityHold, error) {
	var hotel models.Hotel
	if err := forUpdate(tx).First(&hotel, hotelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hotel %d: %w", hotelID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("lock hotel: %w", err)
	}

	var n int64
	if err := activeOverlapQuery(tx, hotelID, checkIn, checkOut, s.Clock.Now()).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count holds: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("hotel %d %s..%s: %w",
			hotelID, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"), models.ErrConflict)
	}

	hold := models.AvailabilityHold{
		HotelID:   hotelID,
		BookingID: bookingID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		ExpiresAt: &expiresAt,
	}
	if err := tx.Create(&hold).Error; err != nil {
		return nil, fmt.Errorf("create hold: %w", err)
	}
	return &hold, nil
}

// Release drops the hold for a booking. No-op when it is already gone.
func (s *AvailabilityService) Release(tx *gorm.DB, bookingID uint) error {
	if err := tx.Where("booking_id = ?", bookingID).Delete(&models.AvailabilityHold{}).Error; err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	return nil
}

// Pin clears the expiry on a hold once its booking is confirmed.
func (s *AvailabilityService) Pin(tx *gorm.DB, bookingID uint) error {
	if err := tx.Model(&models.AvailabilityHold{}).
		Where("booking_id = ?", bookingID).
		Update("expires_at", nil).Error; err != nil {
		return fmt.Errorf("pin hold: %w", err)
	}
	return nil
}
