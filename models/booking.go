package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking statuses. Pending -> Confirmed -> CancellationPending -> {Cancelled, Confirmed},
// plus terminal Expired and RejectedByGateway (both only from Pending).
const (
	BookingStatusPending             = "Pending"
	BookingStatusConfirmed           = "Confirmed"
	BookingStatusCancellationPending = "CancellationPending"
	BookingStatusCancelled           = "Cancelled"
	BookingStatusExpired             = "Expired"
	BookingStatusRejectedByGateway   = "RejectedByGateway"
)

// Payment options.
const (
	PaymentOptionFull    = "Full"
	PaymentOptionPartial = "Partial"
)

// Cancellation request decision statuses.
const (
	CancellationPending  = "Pending"
	CancellationApproved = "Approved"
	CancellationRejected = "Rejected"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferenceCode string `gorm:"column:reference_code;size:64;uniqueIndex" json:"reference_code"`

	HotelID   uint `gorm:"index;column:hotel_id" json:"hotel_id"`
	GuestID   uint `gorm:"index;column:guest_id" json:"guest_id"`
	ManagerID uint `gorm:"index;column:manager_id" json:"manager_id"`

	CheckIn  time.Time `gorm:"column:check_in" json:"check_in"`
	CheckOut time.Time `gorm:"column:check_out" json:"check_out"`
	Guests   int       `gorm:"column:guests" json:"guests"`

	TotalPrice      float64 `gorm:"column:total_price" json:"total_price"`
	PaymentOption   string  `gorm:"column:payment_option;size:16" json:"payment_option"`
	AmountPaid      float64 `gorm:"column:amount_paid" json:"amount_paid"`
	RemainingAmount float64 `gorm:"column:remaining_amount" json:"remaining_amount"`

	Status string `gorm:"column:status;size:32;index" json:"status"`

	// Open cancellation request, if any. At most one Pending request exists
	// per booking at a time.
	CancellationReason *string `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
	CancellationStatus *string `gorm:"column:cancellation_status;size:16" json:"cancellation_status,omitempty"`

	// Gateway order id doubles as the webhook idempotency key.
	GatewayOrderID   *string        `gorm:"column:gateway_order_id;size:128;uniqueIndex" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string        `gorm:"column:gateway_payment_id;size:128" json:"gateway_payment_id,omitempty"`
	GatewayPayload   datatypes.JSON `gorm:"column:gateway_payload" json:"-"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`

	// Version backs the compare-and-set on every write so that concurrent
	// transitions (e.g. a late webhook vs. a cancellation approval) cannot
	// corrupt each other.
	Version int64 `gorm:"column:version;default:1" json:"-"`

	Hotel Hotel `gorm:"foreignKey:HotelID;references:ID" json:"hotel,omitempty"`
	Guest User  `gorm:"foreignKey:GuestID;references:ID" json:"guest,omitempty"`
}

// AmountDue is what the gateway order is created for: the full total, or the
// deposit share for Partial bookings.
func (b *Booking) AmountDue(depositRate float64) float64 {
	if b.PaymentOption == PaymentOptionPartial {
		return Round2(b.TotalPrice * depositRate)
	}
	return b.TotalPrice
}

// HasOpenCancellation reports whether a Pending-decision request exists.
func (b *Booking) HasOpenCancellation() bool {
	return b.CancellationStatus != nil && *b.CancellationStatus == CancellationPending
}

// BookingSummary is the read-only shape exposed to UI/dashboards.
type BookingSummary struct {
	BookingID       uint      `json:"booking_id"`
	ReferenceCode   string    `json:"reference_code"`
	HotelName       string    `json:"hotel_name"`
	GuestName       string    `json:"guest_name"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	TotalPrice      float64   `json:"total_price"`
	AmountPaid      float64   `json:"amount_paid"`
	RemainingAmount float64   `json:"remaining_amount"`
	Status          string    `json:"status"`
}

func (b *Booking) Summary() BookingSummary {
	return BookingSummary{
		BookingID:       b.ID,
		ReferenceCode:   b.ReferenceCode,
		HotelName:       b.Hotel.Name,
		GuestName:       b.Guest.FullName,
		CheckIn:         b.CheckIn,
		CheckOut:        b.CheckOut,
		TotalPrice:      b.TotalPrice,
		AmountPaid:      b.AmountPaid,
		RemainingAmount: b.RemainingAmount,
		Status:          b.Status,
	}
}

// Round2 rounds a money amount to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
