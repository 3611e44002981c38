package dto

import (
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MileageResponse defines the data returned for a mileage record.
type MileageResponse struct {
	MileageID      string          `json:"mileageID"`
	Name           string          `json:"name"`
	UniqueImportID string          `json:"uniqueImportID"`
	State          string          `json:"state"`
	PartnerID      string          `json:"partnerID"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description,omitempty"`
	Departure      string          `json:"departure,omitempty"`
	Arrival        string          `json:"arrival,omitempty"`
	TripType       string          `json:"tripType,omitempty"`
	KM             int64           `json:"km"`
	PriceUnit      decimal.Decimal `json:"priceUnit"`
	Amount         decimal.Decimal `json:"amount"`
	CarName        string          `json:"carName,omitempty"`
	CarPlate       string          `json:"carPlate,omitempty"`
	InvoiceID      string          `json:"invoiceID,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ListMileagesResponse is a paginated mileage listing.
type ListMileagesResponse struct {
	Mileages  []MileageResponse `json:"mileages"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToMileageResponse converts a domain.Mileage to its DTO.
func ToMileageResponse(m *domain.Mileage) MileageResponse {
	return MileageResponse{
		MileageID:      m.MileageID,
		Name:           m.Name,
		UniqueImportID: m.UniqueImportID,
		State:          string(m.State()),
		PartnerID:      m.PartnerID,
		Date:           m.Date,
		Description:    m.Description,
		Departure:      m.Departure,
		Arrival:        m.Arrival,
		TripType:       string(m.TripType),
		KM:             m.KM,
		PriceUnit:      m.PriceUnit,
		Amount:         m.Amount(),
		CarName:        m.CarName,
		CarPlate:       m.CarPlate,
		InvoiceID:      m.InvoiceID,
		CreatedAt:      m.CreatedAt,
	}
}

// ToListMileagesResponse converts a page of mileage records.
func ToListMileagesResponse(mileages []domain.Mileage, nextToken *string) ListMileagesResponse {
	responses := make([]MileageResponse, len(mileages))
	for i, m := range mileages {
		responses[i] = ToMileageResponse(&m)
	}
	return ListMileagesResponse{Mileages: responses, NextToken: nextToken}
}
