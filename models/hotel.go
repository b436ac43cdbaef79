package models

import "gorm.io/gorm"

// Hotel is the slice of catalog data this core consumes: pricing, commission
// split and the responsible manager. Listing content (photos, amenities,
// descriptions) lives with the catalog service.
type Hotel struct {
	gorm.Model

	Name      string `gorm:"size:255" json:"name"`
	ManagerID uint   `gorm:"index;column:manager_id" json:"manager_id"`

	BasePricePerNight float64 `gorm:"column:base_price_per_night" json:"base_price_per_night"`

	// CommissionRate is the platform's fractional cut of totalPrice,
	// e.g. 0.10 for 10%.
	CommissionRate float64 `gorm:"column:commission_rate" json:"commission_rate"`

	Manager User `gorm:"foreignKey:ManagerID;references:ID" json:"-"`
}

// HotelPricing is the consumed collaborator contract GetHotelPricing.
type HotelPricing struct {
	BasePricePerNight float64 `json:"base_price_per_night"`
	CommissionRate    float64 `json:"commission_rate"`
}
