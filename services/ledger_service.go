package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"hotel-booking-backend/models"
)

// recordConfirmation appends the BookingConfirmed entry splitting totalPrice
// between platform and property by the hotel's commission rate. Runs in the
// confirming transaction; the unique (booking_id, type) index makes a second
// write for the same event impossible.
func recordConfirmation(tx *gorm.DB, booking *models.Booking, hotel *models.Hotel, now time.Time) error {
	adminRevenue := models.Round2(booking.TotalPrice * hotel.CommissionRate)
	entry := models.LedgerEntry{
		BookingID:      booking.ID,
		Type:           models.LedgerBookingConfirmed,
		HotelID:        booking.HotelID,
		ManagerID:      booking.ManagerID,
		Amount:         booking.TotalPrice,
		AdminRevenue:   adminRevenue,
		ManagerRevenue: models.Round2(booking.TotalPrice - adminRevenue),
		CreatedAt:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record confirmation: %w", err)
	}
	return nil
}

// recordRefund appends the CancellationRefund entry. The confirmation entry is
// never edited; this one nets it out with negative revenue columns, so sums
// over the booking come back to zero while the audit trail stays intact.
func recordRefund(tx *gorm.DB, booking *models.Booking, refund float64, now time.Time) error {
	var confirmed models.LedgerEntry
	err := tx.Where("booking_id = ? AND type = ?", booking.ID, models.LedgerBookingConfirmed).
		First(&confirmed).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load confirmation entry: %w", err)
	}

	entry := models.LedgerEntry{
		BookingID:      booking.ID,
		Type:           models.LedgerCancellationRefund,
		HotelID:        booking.HotelID,
		ManagerID:      booking.ManagerID,
		Amount:         refund,
		AdminRevenue:   -confirmed.AdminRevenue,
		ManagerRevenue: -confirmed.ManagerRevenue,
		CreatedAt:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record refund: %w", err)
	}
	return nil
}

// LedgerService is the read side of the append-only revenue ledger.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// ledgerRow joins entry + booking + names for the summary shape.
type ledgerRow struct {
	BookingID      uint
	Type           string
	ManagerID      uint
	Amount         float64
	AdminRevenue   float64
	ManagerRevenue float64
	CreatedAt      time.Time
	CheckIn        time.Time
	CheckOut       time.Time
	TotalPrice     float64
	HotelName      string
	GuestName      string
}

func (s *LedgerService) rows(p models.Principal) ([]ledgerRow, error) {
	q := s.DB.Table("ledger_entries").
		Select(`ledger_entries.booking_id AS booking_id,
			ledger_entries.type AS type,
			ledger_entries.manager_id AS manager_id,
			ledger_entries.amount AS amount,
			ledger_entries.admin_revenue AS admin_revenue,
			ledger_entries.manager_revenue AS manager_revenue,
			ledger_entries.created_at AS created_at,
			bookings.check_in AS check_in,
			bookings.check_out AS check_out,
			bookings.total_price AS total_price,
			hotels.name AS hotel_name,
			users.full_name AS guest_name`).
		Joins("JOIN bookings ON bookings.id = ledger_entries.booking_id").
		Joins("JOIN hotels ON hotels.id = ledger_entries.hotel_id").
		Joins("JOIN users ON users.id = bookings.guest_id").
		Order("ledger_entries.created_at DESC")

	switch p.Role {
	case models.RoleAdmin:
		// global view
	case models.RoleManager:
		q = q.Where("ledger_entries.manager_id = ?", p.UserID)
	default:
		return nil, fmt.Errorf("role %q: %w", p.Role, models.ErrForbidden)
	}

	var rows []ledgerRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return rows, nil
}

// ListSummaries returns role-scoped ledger summaries: managers see their
// managerRevenue, admins see adminRevenue.
func (s *LedgerService) ListSummaries(p models.Principal) ([]models.LedgerSummary, error) {
	rows, err := s.rows(p)
	if err != nil {
		return nil, err
	}

	out := make([]models.LedgerSummary, 0, len(rows))
	for _, r := range rows {
		revenue := r.AdminRevenue
		if p.IsManager() {
			revenue = r.ManagerRevenue
		}
		out = append(out, models.LedgerSummary{
			BookingID:    r.BookingID,
			HotelName:    r.HotelName,
			GuestName:    r.GuestName,
			CheckInDate:  r.CheckIn,
			CheckOutDate: r.CheckOut,
			TotalPrice:   r.TotalPrice,
			Type:         r.Type,
			Revenue:      revenue,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

// ManagerTotal sums managerRevenue for one manager; refunds net out.
func (s *LedgerService) ManagerTotal(managerID uint) (float64, error) {
	var total float64
	err := s.DB.Model(&models.LedgerEntry{}).
		Where("manager_id = ?", managerID).
		Select("COALESCE(SUM(manager_revenue), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum manager revenue: %w", err)
	}
	return models.Round2(total), nil
}

// AdminTotal sums adminRevenue globally.
func (s *LedgerService) AdminTotal() (float64, error) {
	var total float64
	err := s.DB.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(admin_revenue), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum admin revenue: %w", err)
	}
	return models.Round2(total), nil
}

// MonthlyRevenue buckets role-scoped revenue by "YYYY-MM" of CreatedAt.
// Bucketing happens in Go so the query stays portable across drivers.
func (s *LedgerService) MonthlyRevenue(p models.Principal) ([]models.MonthlyRevenue, error) {
	rows, err := s.rows(p)
	if err != nil {
		return nil, err
	}

	buckets := map[string]*models.MonthlyRevenue{}
	for _, r := range rows {
		month := r.CreatedAt.UTC().Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &models.MonthlyRevenue{Month: month}
			buckets[month] = b
		}
		if p.IsManager() {
			b.Revenue = models.Round2(b.Revenue + r.ManagerRevenue)
		} else {
			b.Revenue = models.Round2(b.Revenue + r.AdminRevenue)
		}
		b.Entries++
	}

	out := make([]models.MonthlyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}
