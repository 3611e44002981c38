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

// PgsqlCompanyRepository implements the CompanyRepositoryFacade using pgx.
type PgsqlCompanyRepository struct {
	BaseRepository
}

func NewPgsqlCompanyRepository(pool *pgxpool.Pool) portsrepo.CompanyRepositoryFacade {
	return &PgsqlCompanyRepository{BaseRepository{Pool: pool}}
}

const companyColumns = `
	company_id, name, currency_code, country_code, transfer_account_id,
	default_vat_rate, api_login, api_password, api_company_uuid,
	created_at, created_by, last_updated_at, last_updated_by`

func scanCompany(row pgx.Row) (models.Company, error) {
	var m models.Company
	err := row.Scan(
		&m.CompanyID, &m.Name, &m.CurrencyCode, &m.CountryCode, &m.TransferAccountID,
		&m.DefaultVATRate, &m.APILogin, &m.APIPassword, &m.APICompanyUUID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindCompanyByID retrieves a company by its ID.
func (r *PgsqlCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE company_id = $1`

	m, err := scanCompany(r.Pool.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find company", err)
	}
	company := mapping.ToDomainCompany(m)
	return &company, nil
}

// ListCompaniesWithAPICredentials returns the companies the scheduled sync
// can act on: all three provider credentials must be present.
func (r *PgsqlCompanyRepository) ListCompaniesWithAPICredentials(ctx context.Context) ([]domain.Company, error) {
	query := `SELECT ` + companyColumns + `
		FROM companies
		WHERE api_login IS NOT NULL
		  AND api_password IS NOT NULL
		  AND api_company_uuid IS NOT NULL
		ORDER BY name`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list companies", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		m, err := scanCompany(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan company", err)
		}
		companies = append(companies, mapping.ToDomainCompany(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate companies", err)
	}
	return companies, nil
}
