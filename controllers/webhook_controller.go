package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/gateway"
	"hotel-booking-backend/models"
	"hotel-booking-backend/services"
	"hotel-booking-backend/utils"
)

type WebhookController struct {
	BookingSvc *services.BookingService
}

func NewWebhookController(bookingSvc *services.BookingService) *WebhookController {
	return &WebhookController{BookingSvc: bookingSvc}
}

// HandlePaymentWebhook receives gateway callbacks. The response is 2xx only
// after successful idempotent processing; anything else makes the gateway
// retry. A forged signature is dropped with zero state change.
func (ctrl *WebhookController) HandlePaymentWebhook(c *gin.Context) {
	var payload gateway.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	booking, err := ctrl.BookingSvc.HandleGatewayCallback(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSignature):
			utils.JSONError(c, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, models.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "unknown order")
		case errors.Is(err, models.ErrState), errors.Is(err, models.ErrValidation):
			utils.JSONError(c, http.StatusConflict, err.Error())
		default:
			utils.JSONError(c, http.StatusInternalServerError, "processing failed")
		}
		return
	}

	if booking == nil {
		utils.JSONSuccess(c, http.StatusOK, gin.H{"ignored": true})
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"status": booking.Status})
}
