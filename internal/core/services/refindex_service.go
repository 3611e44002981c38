package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/kardo-hq/card_accounting_app/internal/utils/textnorm"
)

// MeaningfulPartnerNameMinSize is the minimum normalized length of a partner
// name fragment eligible for vendor matching. Shorter names produce spurious
// substring hits.
const MeaningfulPartnerNameMinSize = 3

type refIndexService struct {
	refRepo     portsrepo.ReferenceRepositoryFacade
	cardRepo    portsrepo.CardRepositoryFacade
	companyRepo portsrepo.CompanyRepositoryFacade
	txnRepo     portsrepo.TransactionReader
}

// NewRefIndexService creates the reference index builder.
func NewRefIndexService(refRepo portsrepo.ReferenceRepositoryFacade, cardRepo portsrepo.CardRepositoryFacade, companyRepo portsrepo.CompanyRepositoryFacade, txnRepo portsrepo.TransactionReader) portssvc.RefIndexSvcFacade {
	return &refIndexService{
		refRepo:     refRepo,
		cardRepo:    cardRepo,
		companyRepo: companyRepo,
		txnRepo:     txnRepo,
	}
}

var _ portssvc.RefIndexSvcFacade = (*refIndexService)(nil)

// BuildIndex assembles the per-batch reference index with one bulk read per
// reference table. The result is treated as immutable for the duration of
// the batch and discarded afterwards.
func (s *refIndexService) BuildIndex(ctx context.Context, companyID string) (*domain.ReferenceIndex, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading company %s: %w", companyID, err)
	}
	if company.TransferAccountID == "" {
		return nil, apperrors.Configuration("missing 'Internal Bank Transfer Account' on company '%s'", company.Name)
	}

	defaultPartner, err := s.refRepo.FindDefaultPartner(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading default partner: %w", err)
	}
	if defaultPartner.ParentID != "" {
		return nil, apperrors.Configuration("the default partner (%s) should be a top-level partner", defaultPartner.Name)
	}

	idx := &domain.ReferenceIndex{
		CompanyID:         companyID,
		CompanyCurrency:   company.CurrencyCode,
		CompanyCountry:    company.CountryCode,
		Tokens:            map[string]string{},
		Accounts:          map[string]string{},
		Analytic:          map[string]string{},
		Countries:         map[string]string{},
		CountryIDs:        map[string]string{},
		Currencies:        map[string]string{},
		Mapping:           map[domain.CardAccountKey]string{},
		PartnerPayables:   map[string]string{},
		PartnerEmails:     map[string]string{},
		DefaultPartnerID:  defaultPartner.PartnerID,
		TransferAccountID: company.TransferAccountID,
		DefaultVATRate:    company.DefaultVATRate,
		ExpenseCategories: map[string]domain.ExpenseCategory{},
		UserEmails:        map[string]string{},
	}
	idx.PartnerPayables[defaultPartner.PartnerID] = defaultPartner.PayableAccountID

	cards, err := s.cardRepo.ListCardsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	for _, card := range cards {
		idx.Tokens[card.Token] = card.CardID
	}

	accounts, err := s.refRepo.ListLedgerAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading ledger accounts: %w", err)
	}
	for _, acc := range accounts {
		idx.Accounts[strings.TrimSpace(acc.Code)] = acc.AccountID
	}

	analytics, err := s.refRepo.ListAnalyticAccountsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading analytic accounts: %w", err)
	}
	for _, an := range analytics {
		idx.Analytic[strings.ToLower(strings.TrimSpace(an.Code))] = an.AnalyticID
	}

	countries, err := s.refRepo.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}
	for _, country := range countries {
		code := strings.TrimSpace(country.Code)
		idx.Countries[code] = country.CountryID
		idx.CountryIDs[country.CountryID] = code
	}

	currencies, err := s.refRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading currencies: %w", err)
	}
	for _, cur := range currencies {
		idx.Currencies[cur.Name] = cur.CurrencyCode
		// allow resolution by code as well, the API reports "EUR"
		idx.Currencies[cur.CurrencyCode] = cur.CurrencyCode
	}

	mappings, err := s.cardRepo.ListAccountMappingsByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("loading account mappings: %w", err)
	}
	for _, m := range mappings {
		idx.Mapping[domain.CardAccountKey{CardID: m.CardID, AccountID: m.ExpenseAccountID}] = m.ForceExpenseAccountID
	}

	// Learned vendor fragments first: associations the accountants created
	// by reassigning done expense transactions away from the default
	// partner take precedence over configured partner names.
	learned, err := s.txnRepo.DoneVendorAssignments(ctx, companyID, defaultPartner.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("loading learned vendor assignments: %w", err)
	}
	for _, entry := range learned {
		fragment := textnorm.Normalize(entry.Fragment)
		if len(fragment) >= MeaningfulPartnerNameMinSize {
			idx.Partners = append(idx.Partners, domain.PartnerNameEntry{Fragment: fragment, PartnerID: entry.PartnerID})
		}
	}

	partners, err := s.refRepo.ListTopLevelPartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading partners: %w", err)
	}
	for _, p := range partners {
		name := textnorm.Normalize(p.Name)
		if len(name) >= MeaningfulPartnerNameMinSize {
			idx.Partners = append(idx.Partners, domain.PartnerNameEntry{Fragment: name, PartnerID: p.PartnerID})
		}
		if p.PayableAccountID != "" {
			idx.PartnerPayables[p.PartnerID] = p.PayableAccountID
		}
	}

	withEmail, err := s.refRepo.ListPartnersWithEmail(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading partner emails: %w", err)
	}
	for _, p := range withEmail {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email != "" {
			idx.PartnerEmails[email] = p.PartnerID
		}
	}

	logger.Debug("Reference index built",
		"company_id", companyID,
		"tokens", len(idx.Tokens),
		"accounts", len(idx.Accounts),
		"partner_fragments", len(idx.Partners),
	)
	return idx, nil
}
