package models

// Partner is the database representation of a partner: a vendor or an
// employee. Top-level partners have no parent.
type Partner struct {
	PartnerID        string  `json:"partnerID"`
	Name             string  `json:"name"`
	ParentID         *string `json:"parentID"`
	Email            *string `json:"email"`
	PayableAccountID *string `json:"payableAccountID"`
	IsDefault        bool    `json:"isDefault"` // the catch-all misc supplier
	AuditFields
}

// LedgerAccount is one account of the chart of accounts.
type LedgerAccount struct {
	AccountID string `json:"accountID"`
	CompanyID string `json:"companyID"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	AuditFields
}

// AnalyticAccount is one analytic axis entry.
type AnalyticAccount struct {
	AnalyticID string `json:"analyticID"`
	CompanyID  string `json:"companyID"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	AuditFields
}

// Country is one reference country row.
type Country struct {
	CountryID string `json:"countryID"`
	Code      string `json:"code"` // ISO alpha-2
	Name      string `json:"name"`
}

// Currency is one reference currency row.
type Currency struct {
	CurrencyCode string `json:"currencyCode"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Precision    int    `json:"precision"`
}
