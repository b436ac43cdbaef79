package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/middleware"
	"hotel-booking-backend/services"
	"hotel-booking-backend/utils"
)

type BookingController struct {
	BookingSvc      *services.BookingService
	AvailabilitySvc *services.AvailabilityService
}

func NewBookingController(bookingSvc *services.BookingService, availabilitySvc *services.AvailabilityService) *BookingController {
	return &BookingController{BookingSvc: bookingSvc, AvailabilitySvc: availabilitySvc}
}

func parseDateParam(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+key+" (expected YYYY-MM-DD)")
		return time.Time{}, false
	}
	return t, true
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// QuoteAvailability is the advisory check used for instant UI feedback.
// GET /api/availability/quote?hotel_id=&check_in=&check_out=
func (ctrl *BookingController) QuoteAvailability(c *gin.Context) {
	hotelID, err := strconv.ParseUint(c.Query("hotel_id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid hotel_id")
		return
	}
	checkIn, ok := parseDateParam(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := parseDateParam(c, "check_out")
	if !ok {
		return
	}

	available, qErr := ctrl.AvailabilitySvc.Quote(uint(hotelID), checkIn, checkOut)
	if qErr != nil {
		utils.JSONDomainError(c, qErr)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"available": available})
}

type createBookingPayload struct {
	HotelID       uint   `json:"hotel_id" binding:"required"`
	CheckIn       string `json:"check_in" binding:"required"`
	CheckOut      string `json:"check_out" binding:"required"`
	Guests        int    `json:"guests" binding:"required"`
	PaymentOption string `json:"payment_option" binding:"required"`
}

// CreateBooking commits the hold, creates the Pending booking and returns the
// gateway order the client completes payment against.
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var payload createBookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	checkIn, err := time.Parse("2006-01-02", payload.CheckIn)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check_in (expected YYYY-MM-DD)")
		return
	}
	checkOut, err := time.Parse("2006-01-02", payload.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check_out (expected YYYY-MM-DD)")
		return
	}

	result, err := ctrl.BookingSvc.Create(c.Request.Context(), p, services.CreateBookingInput{
		HotelID:       payload.HotelID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        payload.Guests,
		PaymentOption: payload.PaymentOption,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, result)
}

// GetBooking returns the booking summary visible to the caller.
func (ctrl *BookingController) GetBooking(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.GetBooking(p, id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking.Summary())
}

// ListBookings returns role-scoped booking summaries.
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	summaries, err := ctrl.BookingSvc.ListSummaries(p)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, summaries)
}
