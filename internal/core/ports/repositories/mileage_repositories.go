package repositories

import (
	"context"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// MileageReader defines read operations for mileage expenses.
type MileageReader interface {
	FindMileageByID(ctx context.Context, mileageID string) (*domain.Mileage, error)
	FindMileagesByIDs(ctx context.Context, mileageIDs []string) ([]domain.Mileage, error)
	ListMileagesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Mileage, *string, error)

	// ImportedStatesByCompany mirrors the transaction dedup view: state is
	// the invoice-link projection.
	ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]ImportedState, error)
}

// MileageWriter defines write operations for mileage expenses.
type MileageWriter interface {
	CreateMileage(ctx context.Context, m domain.Mileage) (*domain.Mileage, error)
	UpdateDraftMileage(ctx context.Context, m domain.Mileage) error

	// LinkMileagesToInvoice stamps the invoice reference on every record of
	// a processed partner group in one write.
	LinkMileagesToInvoice(ctx context.Context, mileageIDs []string, invoiceID string, updatedBy string, updatedAt time.Time) error
}

// MileageRepositoryFacade combines all mileage repository interfaces.
type MileageRepositoryFacade interface {
	MileageReader
	MileageWriter
}
