package repositories

import (
	"context"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// ImportedState is the minimal view of an already-persisted record used by
// the dedup engine: the state and internal ID keyed by unique import ID.
type ImportedState struct {
	ID    string
	State domain.TransactionState
}

// TransactionReader defines read operations for card transactions.
type TransactionReader interface {
	// FindTransactionByID retrieves one transaction.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.CardTransaction, error)

	// FindTransactionsByIDs retrieves several transactions in input order.
	FindTransactionsByIDs(ctx context.Context, transactionIDs []string) ([]domain.CardTransaction, error)

	// ListTransactionsByCompany retrieves a paginated list for a company
	// using token-based pagination.
	ListTransactionsByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.CardTransaction, *string, error)

	// ImportedStatesByCompany returns, for every persisted transaction of
	// the company, its state and ID keyed by unique import ID. One bulk
	// read per batch, consumed by the dedup engine.
	ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]ImportedState, error)

	// DoneVendorAssignments returns (vendor, partnerID) pairs of done
	// expense transactions manually reassigned away from the default
	// partner. Feeds learned vendor fragments of the reference index.
	DoneVendorAssignments(ctx context.Context, companyID string, defaultPartnerID string) ([]domain.PartnerNameEntry, error)
}

// TransactionWriter defines write operations for card transactions.
type TransactionWriter interface {
	// CreateTransaction persists a new draft transaction, assigning its
	// sequence name. The unique import ID uniqueness constraint is the
	// last line of defense against duplicate creation.
	CreateTransaction(ctx context.Context, txn domain.CardTransaction) (*domain.CardTransaction, error)

	// UpdateDraftTransaction overwrites the mutable fields of an existing
	// draft record. Returns apperrors.ErrValidation if the record is done.
	UpdateDraftTransaction(ctx context.Context, txn domain.CardTransaction) error

	// MarkTransactionDone persists state=done together with all derived
	// references in a single write.
	MarkTransactionDone(ctx context.Context, transactionID, bankEntryID, invoiceID, reconcileID string, updatedBy string, updatedAt time.Time) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
