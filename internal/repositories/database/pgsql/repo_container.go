package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
)

// NewRepositoryProvider creates all pgsql repositories and returns them
// wrapped in a RepositoryProvider.
func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		TransactionRepo: NewPgsqlTransactionRepository(dbPool),
		MileageRepo:     NewPgsqlMileageRepository(dbPool),
		CardRepo:        NewPgsqlCardRepository(dbPool),
		ReferenceRepo:   NewPgsqlReferenceRepository(dbPool),
		CompanyRepo:     NewPgsqlCompanyRepository(dbPool),
		LedgerRepo:      NewPgsqlLedgerRepository(dbPool),
	}
}
