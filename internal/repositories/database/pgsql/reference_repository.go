package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	"github.com/kardo-hq/card_accounting_app/internal/models"
	"github.com/kardo-hq/card_accounting_app/internal/utils/mapping"
)

// PgsqlReferenceRepository implements the bulk reference reads backing the
// reference index. Every method is one query over one table.
type PgsqlReferenceRepository struct {
	BaseRepository
}

func NewPgsqlReferenceRepository(pool *pgxpool.Pool) portsrepo.ReferenceRepositoryFacade {
	return &PgsqlReferenceRepository{BaseRepository{Pool: pool}}
}

// ListLedgerAccountsByCompany retrieves the company chart of accounts.
func (r *PgsqlReferenceRepository) ListLedgerAccountsByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error) {
	query := `
		SELECT account_id, company_id, code, name
		FROM ledger_accounts WHERE company_id = $1 ORDER BY code`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list ledger accounts", err)
	}
	defer rows.Close()

	var accounts []domain.LedgerAccount
	for rows.Next() {
		var a domain.LedgerAccount
		if err := rows.Scan(&a.AccountID, &a.CompanyID, &a.Code, &a.Name); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate ledger accounts", err)
	}
	return accounts, nil
}

// ListAnalyticAccountsByCompany retrieves the analytic accounts.
func (r *PgsqlReferenceRepository) ListAnalyticAccountsByCompany(ctx context.Context, companyID string) ([]domain.AnalyticAccount, error) {
	query := `
		SELECT analytic_id, company_id, code, name
		FROM analytic_accounts WHERE company_id = $1 ORDER BY code`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list analytic accounts", err)
	}
	defer rows.Close()

	var accounts []domain.AnalyticAccount
	for rows.Next() {
		var a domain.AnalyticAccount
		if err := rows.Scan(&a.AnalyticID, &a.CompanyID, &a.Code, &a.Name); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan analytic account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate analytic accounts", err)
	}
	return accounts, nil
}

// ListCountries retrieves the country reference table.
func (r *PgsqlReferenceRepository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	query := `SELECT country_id, code, name FROM countries ORDER BY code`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list countries", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.CountryID, &c.Code, &c.Name); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan country", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate countries", err)
	}
	return countries, nil
}

// ListCurrencies retrieves the currency reference table.
func (r *PgsqlReferenceRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `SELECT currency_code, name, symbol, precision FROM currencies ORDER BY currency_code`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list currencies", err)
	}
	defer rows.Close()

	var currencies []domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.CurrencyCode, &c.Name, &c.Symbol, &c.Precision); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan currency", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate currencies", err)
	}
	return currencies, nil
}

const partnerColumns = `
	partner_id, name, parent_id, email, payable_account_id, is_default,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPartner(row pgx.Row) (models.Partner, error) {
	var m models.Partner
	err := row.Scan(
		&m.PartnerID, &m.Name, &m.ParentID, &m.Email, &m.PayableAccountID, &m.IsDefault,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgsqlReferenceRepository) listPartners(ctx context.Context, query string) ([]domain.Partner, error) {
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list partners", err)
	}
	defer rows.Close()

	var partners []domain.Partner
	for rows.Next() {
		m, err := scanPartner(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan partner", err)
		}
		partners = append(partners, mapping.ToDomainPartner(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate partners", err)
	}
	return partners, nil
}

// ListTopLevelPartners retrieves partners without a parent, ordered by name.
// The order is the vendor-matching scan order.
func (r *PgsqlReferenceRepository) ListTopLevelPartners(ctx context.Context) ([]domain.Partner, error) {
	return r.listPartners(ctx, `SELECT `+partnerColumns+`
		FROM partners WHERE parent_id IS NULL ORDER BY name`)
}

// ListPartnersWithEmail retrieves partners carrying an email address.
func (r *PgsqlReferenceRepository) ListPartnersWithEmail(ctx context.Context) ([]domain.Partner, error) {
	return r.listPartners(ctx, `SELECT `+partnerColumns+`
		FROM partners WHERE email IS NOT NULL ORDER BY name`)
}

// FindPartnerByID retrieves a partner by its ID.
func (r *PgsqlReferenceRepository) FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE partner_id = $1`

	m, err := scanPartner(r.Pool.QueryRow(ctx, query, partnerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find partner", err)
	}
	partner := mapping.ToDomainPartner(m)
	return &partner, nil
}

// FindDefaultPartner retrieves the generic misc-suppliers partner.
func (r *PgsqlReferenceRepository) FindDefaultPartner(ctx context.Context) (*domain.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE is_default LIMIT 1`

	m, err := scanPartner(r.Pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find default partner", err)
	}
	partner := mapping.ToDomainPartner(m)
	return &partner, nil
}
