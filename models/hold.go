package models

import "time"

// AvailabilityHold blocks a hotel's inventory for a date range while its
// booking is Pending or Confirmed. Rows are deleted when the booking leaves
// those states; Pending holds additionally carry an expiry and are excluded
// from conflict checks once it has passed (lazily reaped by the sweeper).
type AvailabilityHold struct {
	ID uint `gorm:"primaryKey" json:"id"`

	HotelID   uint `gorm:"index;column:hotel_id" json:"hotel_id"`
	BookingID uint `gorm:"uniqueIndex;column:booking_id" json:"booking_id"`

	CheckIn  time.Time `gorm:"column:check_in" json:"check_in"`
	CheckOut time.Time `gorm:"column:check_out" json:"check_out"`

	// nil once the booking is confirmed (the hold no longer expires).
	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Overlaps reports whether [CheckIn, CheckOut) intersects [from, to).
func (h *AvailabilityHold) Overlaps(from, to time.Time) bool {
	return h.CheckIn.Before(to) && from.Before(h.CheckOut)
}
