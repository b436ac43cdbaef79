package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/middleware"
	"hotel-booking-backend/models"
	"hotel-booking-backend/services"
	"hotel-booking-backend/utils"
)

type LedgerController struct {
	Svc *services.LedgerService
}

func NewLedgerController(svc *services.LedgerService) *LedgerController {
	return &LedgerController{Svc: svc}
}

// ListEntries returns role-scoped ledger summaries (managers see their
// revenue, admins see the platform's).
func (ctrl *LedgerController) ListEntries(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	summaries, err := ctrl.Svc.ListSummaries(p)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, summaries)
}

// Report returns the role-scoped total plus monthly buckets.
func (ctrl *LedgerController) Report(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var (
		total float64
		err   error
	)
	switch p.Role {
	case models.RoleAdmin:
		total, err = ctrl.Svc.AdminTotal()
	case models.RoleManager:
		total, err = ctrl.Svc.ManagerTotal(p.UserID)
	default:
		utils.JSONError(c, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}

	monthly, err := ctrl.Svc.MonthlyRevenue(p)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"total":   total,
		"monthly": monthly,
	})
}
