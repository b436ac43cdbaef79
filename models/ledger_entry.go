package models

import "time"

// Ledger entry types.
const (
	LedgerBookingConfirmed   = "BookingConfirmed"
	LedgerCancellationRefund = "CancellationRefund"
)

// LedgerEntry is an immutable record of a money movement. Created exactly once
// per triggering event (the unique (booking_id, type) index backs that), never
// updated or deleted. A refund never edits the confirmation entry; it nets it
// out with negative revenue columns.
type LedgerEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID uint   `gorm:"column:booking_id;index;uniqueIndex:idx_ledger_booking_type,priority:1" json:"booking_id"`
	Type      string `gorm:"column:type;size:32;uniqueIndex:idx_ledger_booking_type,priority:2" json:"type"`

	HotelID   uint `gorm:"column:hotel_id;index" json:"hotel_id"`
	ManagerID uint `gorm:"column:manager_id;index" json:"manager_id"`

	Amount         float64 `gorm:"column:amount" json:"amount"`
	AdminRevenue   float64 `gorm:"column:admin_revenue" json:"admin_revenue"`
	ManagerRevenue float64 `gorm:"column:manager_revenue" json:"manager_revenue"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// LedgerSummary is the role-scoped read shape for reporting consumers. Revenue
// carries adminRevenue for admins and managerRevenue for managers.
type LedgerSummary struct {
	BookingID    uint      `json:"booking_id"`
	HotelName    string    `json:"hotel_name"`
	GuestName    string    `json:"guest_name"`
	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	TotalPrice   float64   `json:"total_price"`
	Type         string    `json:"type"`
	Revenue      float64   `json:"revenue"`
	CreatedAt    time.Time `json:"created_at"`
}

// MonthlyRevenue is one reporting bucket keyed by "YYYY-MM" of CreatedAt.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Entries int     `json:"entries"`
}
