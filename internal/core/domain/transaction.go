package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a card movement.
type TransactionType string

const (
	// Load is a transfer feeding the card's prepaid account.
	Load TransactionType = "load"
	// Expense is a settled card payment.
	Expense TransactionType = "expense"
)

// TransactionState is the processing lifecycle of an imported record.
// Done is terminal: business fields become immutable and the record can
// no longer be deleted.
type TransactionState string

const (
	StateDraft TransactionState = "draft"
	StateDone  TransactionState = "done"
)

// Autoliquidation is cross-border VAT metadata attached to a transaction
// without explicit VAT. It is consumed by downstream tax reporting, never
// used to compute tax here.
type Autoliquidation string

const (
	AutoliqNone  Autoliquidation = ""
	AutoliqIntra Autoliquidation = "intracommunity"
	AutoliqExtra Autoliquidation = "extracommunity"
)

// CardTransaction is the central entity of the import pipeline: one card
// movement imported from CSV or from the provider API, deduplicated on
// UniqueImportID and driven from draft to done by processing.
type CardTransaction struct {
	TransactionID  string `json:"transactionID"`
	Name           string `json:"name"` // human-readable sequence number
	CompanyID      string `json:"companyID"`
	UniqueImportID string `json:"uniqueImportID"` // immutable dedup key

	TransactionType TransactionType  `json:"transactionType"`
	State           TransactionState `json:"state"`

	Date             time.Time  `json:"date"` // bank transaction date
	PaymentDate      *time.Time `json:"paymentDate,omitempty"`
	ForceInvoiceDate *time.Time `json:"forceInvoiceDate,omitempty"`

	Description     string `json:"description"`
	Vendor          string `json:"vendor"` // free-text vendor name from the provider
	PartnerID       string `json:"partnerID"`
	CountryCode     string `json:"countryCode"` // ISO alpha-2, may be empty
	ExpenseCategory string `json:"expenseCategory"`

	CardID            string `json:"cardID"`
	ExpenseAccountID  string `json:"expenseAccountID"`
	AnalyticAccountID string `json:"analyticAccountID"`

	VATAmount       decimal.Decimal `json:"vatAmount"` // company currency, signed
	VATRate         decimal.Decimal `json:"vatRate"`   // percentage
	Autoliquidation Autoliquidation `json:"autoliquidation,omitempty"`

	TotalAmount   decimal.Decimal `json:"totalAmount"`  // company currency, signed
	CurrencyCode  string          `json:"currencyCode"` // original currency
	TotalCurrency decimal.Decimal `json:"totalCurrency"`

	ImageURL      string `json:"imageURL"`
	ReceiptLost   bool   `json:"receiptLost"`
	ReceiptNumber string `json:"receiptNumber"`

	BankMoveOnly bool `json:"bankMoveOnly"`

	BankCounterpartAccountID string `json:"bankCounterpartAccountID"`
	BankEntryID              string `json:"bankEntryID"`
	InvoiceID                string `json:"invoiceID"`
	ReconcileID              string `json:"reconcileID"`

	AuditFields
}

// InvoiceDate picks the date used for the synthesized vendor invoice:
// forced date first, then real payment date, then the bank date.
func (t CardTransaction) InvoiceDate() time.Time {
	if t.ForceInvoiceDate != nil {
		return *t.ForceInvoiceDate
	}
	if t.PaymentDate != nil {
		return *t.PaymentDate
	}
	return t.Date
}
