package models

// Card is the database representation of a payment card.
type Card struct {
	CardID    string  `json:"cardID"`
	Token     string  `json:"token"` // unique provider token
	Code      string  `json:"code"`  // human-readable short name
	CompanyID string  `json:"companyID"`
	UserID    *string `json:"userID"`
	JournalID *string `json:"journalID"`
	Active    bool    `json:"active"`
	AuditFields
}

// AccountMapping is the per-card expense account override table.
type AccountMapping struct {
	MappingID             string `json:"mappingID"`
	CardID                string `json:"cardID"`
	CompanyID             string `json:"companyID"`
	ExpenseAccountID      string `json:"expenseAccountID"`
	ForceExpenseAccountID string `json:"forceExpenseAccountID"`
	AuditFields
}

// Journal is a bank journal holding the card prepaid account.
type Journal struct {
	JournalID        string `json:"journalID"`
	CompanyID        string `json:"companyID"`
	Name             string `json:"name"`
	DefaultAccountID string `json:"defaultAccountID"`
	AuditFields
}
