package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripType of a mileage expense.
type TripType string

const (
	OneWay    TripType = "oneway"
	RoundTrip TripType = "roundtrip"
)

// Mileage is a kilometric reimbursement record. Unlike card transactions it
// has no stored state: it is done exactly when an invoice references it.
type Mileage struct {
	MileageID      string `json:"mileageID"`
	Name           string `json:"name"`
	CompanyID      string `json:"companyID"`
	UniqueImportID string `json:"uniqueImportID"`

	PartnerID   string    `json:"partnerID"` // traveling employee
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Departure   string    `json:"departure"`
	Arrival     string    `json:"arrival"`
	TripType    TripType  `json:"tripType"`

	KM        int64           `json:"km"`
	PriceUnit decimal.Decimal `json:"priceUnit"` // per-km rate, company currency

	CarName        string `json:"carName"`
	CarPlate       string `json:"carPlate"`
	CarFiscalPower string `json:"carFiscalPower"`

	ExpenseAccountID  string `json:"expenseAccountID"`
	AnalyticAccountID string `json:"analyticAccountID"`

	InvoiceID string `json:"invoiceID"`

	AuditFields
}

// Amount is the computed total: per-km rate times distance.
func (m Mileage) Amount() decimal.Decimal {
	return m.PriceUnit.Mul(decimal.NewFromInt(m.KM))
}

// State is a pure projection of the invoice link.
func (m Mileage) State() TransactionState {
	if m.InvoiceID != "" {
		return StateDone
	}
	return StateDraft
}
