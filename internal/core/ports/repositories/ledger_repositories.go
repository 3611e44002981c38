package repositories

import (
	"context"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// LedgerRepositoryFacade persists posted ledger entries, invoices and
// reconciliations for the in-repo collaborator implementation.
type LedgerRepositoryFacade interface {
	// SaveEntry inserts a posted entry and its lines in one database
	// transaction.
	SaveEntry(ctx context.Context, entry domain.PostedEntry, journalID string, companyID string) error

	// SaveInvoice inserts a posted invoice and its ledger lines.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, companyID string) error

	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// SaveReconciliation links ledger lines sharing an account and returns
	// the reconciliation ID.
	SaveReconciliation(ctx context.Context, accountID string, lineIDs []string) (string, error)
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TransactionRepo TransactionRepositoryFacade
	MileageRepo     MileageRepositoryFacade
	CardRepo        CardRepositoryFacade
	ReferenceRepo   ReferenceRepositoryFacade
	CompanyRepo     CompanyRepositoryFacade
	LedgerRepo      LedgerRepositoryFacade
}
