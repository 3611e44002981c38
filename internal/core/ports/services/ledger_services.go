package services

import (
	"context"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// LedgerSvcFacade is the narrow interface to the external general-ledger
// collaborator: create and post an entry from named debit/credit lines, and
// reconcile a set of ledger lines sharing an account.
type LedgerSvcFacade interface {
	// PostEntry validates that the entry balances, persists and posts it.
	PostEntry(ctx context.Context, companyID string, entry domain.LedgerEntry) (*domain.PostedEntry, error)

	// Reconcile links the given lines, all on the same account, and returns
	// the reconciliation reference.
	Reconcile(ctx context.Context, accountID string, lineIDs []string) (string, error)
}

// InvoiceSvcFacade is the narrow interface to the invoicing collaborator.
type InvoiceSvcFacade interface {
	// CreateAndPostInvoice creates and posts a vendor invoice or credit
	// note from a normalized payload.
	CreateAndPostInvoice(ctx context.Context, payload domain.InvoicePayload, invType domain.InvoiceType) (*domain.Invoice, error)

	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

// ReceiptFetcher downloads a receipt image. Split out so processing can be
// tested without network access.
type ReceiptFetcher interface {
	// Fetch returns the image bytes and the file extension (".jpg", ".png"...)
	// derived from the URL path.
	Fetch(ctx context.Context, url string) (data []byte, ext string, err error)
}
