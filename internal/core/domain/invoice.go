package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes vendor invoices from vendor credit notes.
type InvoiceType string

const (
	VendorInvoice InvoiceType = "in_invoice"
	VendorRefund  InvoiceType = "in_refund"
)

// InvoicePaymentState as reported by the invoicing collaborator.
type InvoicePaymentState string

const (
	InvoiceNotPaid InvoicePaymentState = "not_paid"
	InvoicePaid    InvoicePaymentState = "paid"
)

// TaxLine is a single percentage-type tax carried on an invoice payload.
type TaxLine struct {
	Rate decimal.Decimal `json:"rate"` // percentage
}

// InvoicePayloadLine is one line of a normalized invoice payload.
type InvoicePayloadLine struct {
	Description       string          `json:"description"`
	PriceUnit         decimal.Decimal `json:"priceUnit"`
	Quantity          decimal.Decimal `json:"quantity"`
	AccountID         string          `json:"accountID"`
	AnalyticAccountID string          `json:"analyticAccountID"`
	Taxes             []TaxLine       `json:"taxes"`
	Origin            string          `json:"origin"`
}

// Attachment is a named binary attached to an invoice (receipt image).
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// InvoicePayload is the normalized payload handed to the invoicing
// collaborator to create and post a vendor invoice or credit note.
type InvoicePayload struct {
	CompanyID     string               `json:"companyID"`
	PartnerID     string               `json:"partnerID"`
	Date          time.Time            `json:"date"`
	DueDate       time.Time            `json:"dueDate"`
	CurrencyCode  string               `json:"currencyCode"`
	AmountTotal   decimal.Decimal      `json:"amountTotal"`
	AmountUntaxed decimal.Decimal      `json:"amountUntaxed"`
	InvoiceNumber string               `json:"invoiceNumber"`
	Origin        string               `json:"origin"`
	Lines         []InvoicePayloadLine `json:"lines"`
	Attachments   []Attachment         `json:"attachments"`
}

// Invoice is the collaborator's view of a created or pre-existing invoice,
// as needed for validation and reconciliation.
type Invoice struct {
	InvoiceID           string              `json:"invoiceID"`
	Number              string              `json:"number"`
	Type                InvoiceType         `json:"type"`
	PaymentState        InvoicePaymentState `json:"paymentState"`
	CommercialPartnerID string              `json:"commercialPartnerID"`
	CurrencyCode        string              `json:"currencyCode"`
	AmountTotalSigned   decimal.Decimal     `json:"amountTotalSigned"` // negative for vendor invoices
	AmountTax           decimal.Decimal     `json:"amountTax"`
	LedgerLines         []EntryLine         `json:"ledgerLines"`
	Attachments         []Attachment        `json:"attachments,omitempty"`
	AuditFields
}

// LinesOnAccount returns the invoice ledger lines booked on the account.
func (inv Invoice) LinesOnAccount(accountID string) []EntryLine {
	var out []EntryLine
	for _, l := range inv.LedgerLines {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out
}
