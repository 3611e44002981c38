package domain

// Partner is a vendor or employee counterparty. Only top-level partners
// (empty ParentID) take part in vendor-name matching.
type Partner struct {
	PartnerID        string `json:"partnerID"`
	Name             string `json:"name"`
	ParentID         string `json:"parentID"`
	Email            string `json:"email"`
	PayableAccountID string `json:"payableAccountID"`
	AuditFields
}

// LedgerAccount mirrors the chart of accounts consumed from the ledger
// collaborator. Only the fields the import pipeline needs are carried.
type LedgerAccount struct {
	AccountID string `json:"accountID"`
	CompanyID string `json:"companyID"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	AuditFields
}

// AnalyticAccount is a cost-center code referenced by imported expenses.
type AnalyticAccount struct {
	AnalyticID string `json:"analyticID"`
	CompanyID  string `json:"companyID"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	AuditFields
}

// Currency as stored in the reference table.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // e.g. "EUR"
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Precision    int32  `json:"precision"`
	AuditFields
}

// Country as stored in the reference table, keyed by ISO alpha-2 code.
type Country struct {
	CountryID string `json:"countryID"`
	Code      string `json:"code"` // ISO alpha-2
	Name      string `json:"name"`
}
