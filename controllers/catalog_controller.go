package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-booking-backend/services"
	"hotel-booking-backend/utils"
)

type CatalogController struct {
	Svc *services.CatalogService
}

func NewCatalogController(svc *services.CatalogService) *CatalogController {
	return &CatalogController{Svc: svc}
}

func (ctrl *CatalogController) ListHotels(c *gin.Context) {
	hotels, err := ctrl.Svc.ListHotels()
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, hotels)
}

func (ctrl *CatalogController) GetHotelPricing(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid id")
		return
	}
	pricing, pErr := ctrl.Svc.GetHotelPricing(uint(id))
	if pErr != nil {
		utils.JSONDomainError(c, pErr)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, pricing)
}
