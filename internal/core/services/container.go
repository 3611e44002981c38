package services

import (
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
)

// ContainerOptions carries the deployment-level settings the services need
// beyond their repositories.
type ContainerOptions struct {
	MatchMode       domain.PartnerMatchMode
	ProviderOAuthID string
	ProviderSecret  string
	NewClient       ProviderClientFactory
	Receipts        portssvc.ReceiptFetcher
}

// NewContainer creates the service container with properly initialized
// dependencies.
func NewContainer(repos *portsrepo.RepositoryProvider, opts ContainerOptions) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.RefIndex = NewRefIndexService(
		repos.ReferenceRepo,
		repos.CardRepo,
		repos.CompanyRepo,
		repos.TransactionRepo,
	)

	container.Ledger = NewLedgerService(repos.LedgerRepo)
	container.Invoice = NewInvoiceService(repos.LedgerRepo, repos.ReferenceRepo)

	container.Importer = NewImporterService(
		repos.TransactionRepo,
		repos.MileageRepo,
		container.RefIndex,
		opts.MatchMode,
	)

	container.Sync = NewSyncService(
		repos.CompanyRepo,
		repos.CardRepo,
		repos.TransactionRepo,
		repos.MileageRepo,
		container.RefIndex,
		opts.NewClient,
		opts.ProviderOAuthID,
		opts.ProviderSecret,
		opts.MatchMode,
	)

	container.Processing = NewProcessingService(
		repos.TransactionRepo,
		repos.MileageRepo,
		repos.CardRepo,
		repos.CompanyRepo,
		container.Ledger,
		container.Invoice,
		opts.Receipts,
	)

	return container
}

// Compile-time interface checks.
var (
	_ portssvc.RefIndexSvcFacade   = (*refIndexService)(nil)
	_ portssvc.ImporterSvcFacade   = (*importerService)(nil)
	_ portssvc.SyncSvcFacade       = (*syncService)(nil)
	_ portssvc.ProcessingSvcFacade = (*processingService)(nil)
	_ portssvc.LedgerSvcFacade     = (*ledgerService)(nil)
	_ portssvc.InvoiceSvcFacade    = (*invoiceService)(nil)
)
