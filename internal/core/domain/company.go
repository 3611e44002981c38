package domain

import "github.com/shopspring/decimal"

// Company is the accounting entity on behalf of which transactions are
// imported. Provider API credentials are stored per company; the OAuth
// client id/secret come from server configuration.
type Company struct {
	CompanyID         string          `json:"companyID"`
	Name              string          `json:"name"`
	CurrencyCode      string          `json:"currencyCode"`
	CountryCode       string          `json:"countryCode"` // ISO alpha-2
	TransferAccountID string          `json:"transferAccountID"`
	DefaultVATRate    decimal.Decimal `json:"defaultVATRate"`
	APILogin          string          `json:"apiLogin"`
	APIPassword       string          `json:"-"`
	APICompanyUUID    string          `json:"apiCompanyUUID"`
	AuditFields
}

// HasAPICredentials reports whether the company is fully configured for
// the incremental API sync.
func (c Company) HasAPICredentials() bool {
	return c.APILogin != "" && c.APIPassword != "" && c.APICompanyUUID != ""
}
