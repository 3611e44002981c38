package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardTransaction is the database representation of an imported card
// movement.
type CardTransaction struct {
	TransactionID  string `json:"transactionID"`
	Name           string `json:"name"`
	CompanyID      string `json:"companyID"`
	UniqueImportID string `json:"uniqueImportID"`

	TransactionType string `json:"transactionType"`
	State           string `json:"state"`

	Date             time.Time  `json:"date"`
	PaymentDate      *time.Time `json:"paymentDate"`
	ForceInvoiceDate *time.Time `json:"forceInvoiceDate"`

	Description     *string `json:"description"`
	Vendor          *string `json:"vendor"`
	PartnerID       *string `json:"partnerID"`
	CountryCode     *string `json:"countryCode"`
	ExpenseCategory *string `json:"expenseCategory"`

	CardID            *string `json:"cardID"`
	ExpenseAccountID  *string `json:"expenseAccountID"`
	AnalyticAccountID *string `json:"analyticAccountID"`

	VATAmount       decimal.Decimal `json:"vatAmount"`
	VATRate         decimal.Decimal `json:"vatRate"`
	Autoliquidation *string         `json:"autoliquidation"`

	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CurrencyCode  *string         `json:"currencyCode"`
	TotalCurrency decimal.Decimal `json:"totalCurrency"`

	ImageURL      *string `json:"imageURL"`
	ReceiptLost   bool    `json:"receiptLost"`
	ReceiptNumber *string `json:"receiptNumber"`
	BankMoveOnly  bool    `json:"bankMoveOnly"`

	BankCounterpartAccountID *string `json:"bankCounterpartAccountID"`
	BankEntryID              *string `json:"bankEntryID"`
	InvoiceID                *string `json:"invoiceID"`
	ReconcileID              *string `json:"reconcileID"`

	AuditFields
}
