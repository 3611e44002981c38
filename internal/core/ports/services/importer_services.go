package services

import (
	"context"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// ImportResult reports the records created or updated by one import batch.
type ImportResult struct {
	TransactionIDs []string `json:"transactionIDs"`
	MileageIDs     []string `json:"mileageIDs"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
}

// RefIndexSvcFacade builds the per-batch reference index.
type RefIndexSvcFacade interface {
	BuildIndex(ctx context.Context, companyID string) (*domain.ReferenceIndex, error)
}

// ImporterSvcFacade drives CSV imports: schema sniffing, normalization,
// dedup/upsert.
type ImporterSvcFacade interface {
	// ImportCSV dispatches on the sniffed header between the transaction
	// schema and the mileage schema.
	ImportCSV(ctx context.Context, companyID string, data []byte, importedBy string) (*ImportResult, error)
}

// SyncSvcFacade drives the incremental provider-API sync.
type SyncSvcFacade interface {
	// SyncCompany runs one full incremental sync for a company.
	SyncCompany(ctx context.Context, companyID string) (*ImportResult, error)

	// SyncAllCompanies iterates every company with complete API
	// credentials. A credential error on one company is logged and does not
	// abort the others.
	SyncAllCompanies(ctx context.Context) error
}
