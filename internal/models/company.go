package models

import "github.com/shopspring/decimal"

// Company is the database representation of a company.
type Company struct {
	CompanyID         string          `json:"companyID"`
	Name              string          `json:"name"`
	CurrencyCode      string          `json:"currencyCode"`
	CountryCode       string          `json:"countryCode"`
	TransferAccountID *string         `json:"transferAccountID"`
	DefaultVATRate    decimal.Decimal `json:"defaultVATRate"`
	APILogin          *string         `json:"apiLogin"`
	APIPassword       *string         `json:"-"`
	APICompanyUUID    *string         `json:"apiCompanyUUID"`
	AuditFields
}
