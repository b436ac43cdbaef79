package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-booking-backend/models"
)

func TestQuote_FreeRange(t *testing.T) {
	env := newTestEnv(t)

	available, err := env.Availability.Quote(env.Hotel.ID, date(2025, 1, 10), date(2025, 1, 12))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !available {
		t.Fatal("expected empty hotel to be available")
	}
}

func TestQuote_InvalidRange(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Availability.Quote(env.Hotel.ID, date(2025, 1, 12), date(2025, 1, 10))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuote_UnknownHotel(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Availability.Quote(9999, date(2025, 1, 10), date(2025, 1, 12))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommit_ConflictOnOverlap(t *testing.T) {
	env := newTestEnv(t)

	// Both callers saw a free quote; the commit re-check must let exactly one in.
	env.createBooking(t, date(2025, 1, 10), date(2025, 1, 12), models.PaymentOptionFull)

	_, err := env.Bookings.Create(context.Background(), env.guestPrincipal(), CreateBookingInput{
		HotelID:       env.Hotel.ID,
		CheckIn:       date(2025, 1, 11),
		CheckOut:      date(2025, 1, 13),
		Guests:        1,
		PaymentOption: models.PaymentOptionFull,
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := env.holdCount(t, env.Hotel.ID); n != 1 {
		t.Fatalf("expected exactly one hold, got %d", n)
	}
}

func TestCommit_BackToBackRangesDoNotConflict(t *testing.T) {
	env := newTestEnv(t)

	// [10,12) and [12,14): checkout day equals next check-in, no overlap.
	env.createBooking(t, date(2025, 1, 10), date(2025, 1, 12), models.PaymentOptionFull)
	env.createBooking(t, date(2025, 1, 12), date(2025, 1, 14), models.PaymentOptionFull)

	if n := env.holdCount(t, env.Hotel.ID); n != 2 {
		t.Fatalf("expected two holds, got %d", n)
	}
}

func TestCommit_DifferentHotelsIndependent(t *testing.T) {
	env := newTestEnv(t)

	other := models.Hotel{Name: "Hilltop Retreat", ManagerID: env.Manager.ID, BasePricePerNight: 3500, CommissionRate: 0.12}
	if err := env.DB.Create(&other).Error; err != nil {
		t.Fatalf("seed hotel: %v", err)
	}

	env.createBooking(t, date(2025, 1, 10), date(2025, 1, 12), models.PaymentOptionFull)

	_, err := env.Bookings.Create(context.Background(), env.guestPrincipal(), CreateBookingInput{
		HotelID:       other.ID,
		CheckIn:       date(2025, 1, 10),
		CheckOut:      date(2025, 1, 12),
		Guests:        1,
		PaymentOption: models.PaymentOptionFull,
	})
	if err != nil {
		t.Fatalf("same range on another hotel should not conflict: %v", err)
	}
}

func TestQuote_ExpiredHoldExcluded(t *testing.T) {
	env := newTestEnv(t)

	env.createBooking(t, date(2025, 1, 10), date(2025, 1, 12), models.PaymentOptionFull)

	available, err := env.Availability.Quote(env.Hotel.ID, date(2025, 1, 10), date(2025, 1, 12))
	if err != nil || available {
		t.Fatalf("expected range blocked while hold active (available=%v err=%v)", available, err)
	}

	// Past the hold timeout the unpaid hold stops blocking, even before the
	// sweep reaps it.
	env.Clock.T = env.Clock.T.Add(16 * time.Minute)

	available, err = env.Availability.Quote(env.Hotel.ID, date(2025, 1, 10), date(2025, 1, 12))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !available {
		t.Fatal("expected expired hold to be excluded from the conflict check")
	}
}

func TestConfirmedHoldNeverExpires(t *testing.T) {
	env := newTestEnv(t)

	result := env.createBooking(t, date(2025, 1, 10), date(2025, 1, 12), models.PaymentOptionFull)
	env.payBooking(t, result)

	env.Clock.T = env.Clock.T.Add(24 * time.Hour)

	available, err := env.Availability.Quote(env.Hotel.ID, date(2025, 1, 10), date(2025, 1, 12))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if available {
		t.Fatal("confirmed booking must keep blocking its range")
	}
}
