package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/middleware"
	"hotel-booking-backend/services"
	"hotel-booking-backend/utils"
)

type CancellationController struct {
	Svc *services.CancellationService
}

func NewCancellationController(svc *services.CancellationService) *CancellationController {
	return &CancellationController{Svc: svc}
}

type requestCancellationPayload struct {
	Reason string `json:"reason" binding:"required"`
}

// RequestCancellation lets the booking's guest open a cancellation request.
func (ctrl *CancellationController) RequestCancellation(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var payload requestCancellationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "reason is required")
		return
	}

	booking, err := ctrl.Svc.RequestCancellation(c.Request.Context(), p, id, payload.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking.Summary())
}

type decidePayload struct {
	Approve *bool `json:"approve" binding:"required"`
}

// Decide lets the booking's manager (or an admin) approve or reject the open
// cancellation request.
func (ctrl *CancellationController) Decide(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var payload decidePayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Approve == nil {
		utils.JSONError(c, http.StatusBadRequest, "approve is required")
		return
	}

	booking, err := ctrl.Svc.Decide(c.Request.Context(), p, id, *payload.Approve)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking.Summary())
}
