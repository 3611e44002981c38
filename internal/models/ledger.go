package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a posted entry header.
type LedgerEntry struct {
	EntryID   string    `json:"entryID"`
	CompanyID string    `json:"companyID"`
	JournalID string    `json:"journalID"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}

// LedgerLine is one debit/credit line. It belongs either to a posted entry
// or to an invoice, never both.
type LedgerLine struct {
	LineID      string          `json:"lineID"`
	EntryID     *string         `json:"entryID"`
	InvoiceID   *string         `json:"invoiceID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	PartnerID   *string         `json:"partnerID"`
	Label       *string         `json:"label"`
	ReconcileID *string         `json:"reconcileID"`
}

// Invoice is a posted vendor invoice or credit note.
type Invoice struct {
	InvoiceID           string          `json:"invoiceID"`
	CompanyID           string          `json:"companyID"`
	Number              string          `json:"number"`
	Type                string          `json:"type"`
	PaymentState        string          `json:"paymentState"`
	CommercialPartnerID string          `json:"commercialPartnerID"`
	CurrencyCode        string          `json:"currencyCode"`
	AmountTotalSigned   decimal.Decimal `json:"amountTotalSigned"`
	AmountTax           decimal.Decimal `json:"amountTax"`
	AuditFields
}

// InvoiceAttachment stores a receipt scan attached to an invoice.
type InvoiceAttachment struct {
	AttachmentID string `json:"attachmentID"`
	InvoiceID    string `json:"invoiceID"`
	Filename     string `json:"filename"`
	Data         []byte `json:"-"`
}
