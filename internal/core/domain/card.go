package domain

// Card is a physical or virtual payment instrument. The token is the
// external identifier printed on the card; it is unique per company.
type Card struct {
	CardID    string `json:"cardID"`
	Token     string `json:"token"`
	Code      string `json:"code"` // optional short name
	CompanyID string `json:"companyID"`
	UserID    string `json:"userID"` // optional linked employee, informational
	JournalID string `json:"journalID"`
	Active    bool   `json:"active"`
	AuditFields
}

// AccountMapping is a per-card override rule: when an imported expense
// resolves to ExpenseAccountID, the booking is redirected to
// ForceExpenseAccountID instead. Maintained by administrators, read-only
// during import.
type AccountMapping struct {
	MappingID             string `json:"mappingID"`
	CardID                string `json:"cardID"`
	CompanyID             string `json:"companyID"`
	ExpenseAccountID      string `json:"expenseAccountID"`
	ForceExpenseAccountID string `json:"forceExpenseAccountID"`
	AuditFields
}

// Journal is a bank-type accounting journal attached to a card. Its default
// account carries the card-side line of every bank posting.
type Journal struct {
	JournalID        string `json:"journalID"`
	CompanyID        string `json:"companyID"`
	Name             string `json:"name"`
	DefaultAccountID string `json:"defaultAccountID"`
	AuditFields
}
