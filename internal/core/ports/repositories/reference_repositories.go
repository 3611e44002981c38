package repositories

import (
	"context"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
)

// ReferenceRepositoryFacade exposes the bulk reads the reference index is
// built from: exactly one query per reference table, never one per row.
type ReferenceRepositoryFacade interface {
	ListLedgerAccountsByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error)
	ListAnalyticAccountsByCompany(ctx context.Context, companyID string) ([]domain.AnalyticAccount, error)
	ListCountries(ctx context.Context) ([]domain.Country, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)

	// ListTopLevelPartners returns partners without a parent, the only ones
	// eligible for vendor-name matching.
	ListTopLevelPartners(ctx context.Context) ([]domain.Partner, error)

	// ListPartnersWithEmail returns partners carrying an email address, used
	// to resolve mileage employees.
	ListPartnersWithEmail(ctx context.Context) ([]domain.Partner, error)

	FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error)

	// FindDefaultPartner returns the generic "misc suppliers" partner.
	FindDefaultPartner(ctx context.Context) (*domain.Partner, error)
}

// CompanyRepositoryFacade manages companies and their API credentials.
type CompanyRepositoryFacade interface {
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// ListCompaniesWithAPICredentials returns companies fully configured for
	// the scheduled sync.
	ListCompaniesWithAPICredentials(ctx context.Context) ([]domain.Company, error)
}
