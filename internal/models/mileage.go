package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mileage is the database representation of a kilometric reimbursement
// record.
type Mileage struct {
	MileageID      string `json:"mileageID"`
	Name           string `json:"name"`
	CompanyID      string `json:"companyID"`
	UniqueImportID string `json:"uniqueImportID"`

	PartnerID   string    `json:"partnerID"`
	Date        time.Time `json:"date"`
	Description *string   `json:"description"`
	Departure   *string   `json:"departure"`
	Arrival     *string   `json:"arrival"`
	TripType    *string   `json:"tripType"`

	KM        int64           `json:"km"`
	PriceUnit decimal.Decimal `json:"priceUnit"`

	CarName        *string `json:"carName"`
	CarPlate       *string `json:"carPlate"`
	CarFiscalPower *string `json:"carFiscalPower"`

	ExpenseAccountID  *string `json:"expenseAccountID"`
	AnalyticAccountID *string `json:"analyticAccountID"`

	InvoiceID *string `json:"invoiceID"`

	AuditFields
}
