package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hotel-booking-backend/models"
)

// CatalogService is the consumed collaborator boundary: read-only hotel
// pricing data produced elsewhere (listing wizards, admin tooling).
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

func (s *CatalogService) GetHotel(hotelID uint) (*models.Hotel, error) {
	var hotel models.Hotel
	if err := s.DB.First(&hotel, hotelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("hotel %d: %w", hotelID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load hotel %d: %w", hotelID, err)
	}
	return &hotel, nil
}

func (s *CatalogService) GetHotelPricing(hotelID uint) (models.HotelPricing, error) {
	hotel, err := s.GetHotel(hotelID)
	if err != nil {
		return models.HotelPricing{}, err
	}
	return models.HotelPricing{
		BasePricePerNight: hotel.BasePricePerNight,
		CommissionRate:    hotel.CommissionRate,
	}, nil
}

func (s *CatalogService) ListHotels() ([]models.Hotel, error) {
	var hotels []models.Hotel
	if err := s.DB.Order("id").Find(&hotels).Error; err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	return hotels, nil
}
