package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	"github.com/kardo-hq/card_accounting_app/internal/models"
	"github.com/kardo-hq/card_accounting_app/internal/utils/mapping"
	"github.com/kardo-hq/card_accounting_app/internal/utils/pagination"
)

// PgsqlMileageRepository implements the MileageRepositoryFacade using pgx.
type PgsqlMileageRepository struct {
	BaseRepository
}

func NewPgsqlMileageRepository(pool *pgxpool.Pool) portsrepo.MileageRepositoryFacade {
	return &PgsqlMileageRepository{BaseRepository{Pool: pool}}
}

const mileageColumns = `
	mileage_id, name, company_id, unique_import_id,
	partner_id, date, description, departure, arrival, trip_type,
	km, price_unit,
	car_name, car_plate, car_fiscal_power,
	expense_account_id, analytic_account_id, invoice_id,
	created_at, created_by, last_updated_at, last_updated_by`

func scanMileage(row pgx.Row) (models.Mileage, error) {
	var m models.Mileage
	err := row.Scan(
		&m.MileageID, &m.Name, &m.CompanyID, &m.UniqueImportID,
		&m.PartnerID, &m.Date, &m.Description, &m.Departure, &m.Arrival, &m.TripType,
		&m.KM, &m.PriceUnit,
		&m.CarName, &m.CarPlate, &m.CarFiscalPower,
		&m.ExpenseAccountID, &m.AnalyticAccountID, &m.InvoiceID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindMileageByID retrieves a mileage record by its ID.
func (r *PgsqlMileageRepository) FindMileageByID(ctx context.Context, mileageID string) (*domain.Mileage, error) {
	query := `SELECT ` + mileageColumns + ` FROM mileages WHERE mileage_id = $1`

	m, err := scanMileage(r.Pool.QueryRow(ctx, query, mileageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find mileage", err)
	}
	mileage := mapping.ToDomainMileage(m)
	return &mileage, nil
}

// FindMileagesByIDs retrieves several mileage records, preserving the order
// of the input IDs.
func (r *PgsqlMileageRepository) FindMileagesByIDs(ctx context.Context, mileageIDs []string) ([]domain.Mileage, error) {
	if len(mileageIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + mileageColumns + ` FROM mileages WHERE mileage_id = ANY($1)`

	rows, err := r.Pool.Query(ctx, query, mileageIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query mileages by IDs", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Mileage, len(mileageIDs))
	for rows.Next() {
		m, err := scanMileage(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan mileage", err)
		}
		byID[m.MileageID] = mapping.ToDomainMileage(m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate mileages", err)
	}

	results := make([]domain.Mileage, 0, len(byID))
	for _, id := range mileageIDs {
		if m, ok := byID[id]; ok {
			results = append(results, m)
		}
	}
	return results, nil
}

// ListMileagesByCompany retrieves a page of mileage records using
// token-based pagination, newest first.
func (r *PgsqlMileageRepository) ListMileagesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Mileage, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + mileageColumns + ` FROM mileages`
	filterClause := `WHERE company_id = $1`
	orderByClause := `ORDER BY date DESC, created_at DESC`

	args := []any{companyID}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		filterClause += ` AND (date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query mileages for company "+companyID, err)
	}
	defer rows.Close()

	page := make([]models.Mileage, 0, fetchLimit)
	for rows.Next() {
		m, err := scanMileage(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan mileage row", err)
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to iterate mileage rows", err)
	}

	var nextTokenVal *string
	if len(page) > limit {
		last := page[limit-1]
		token := pagination.EncodeToken(last.Date, last.CreatedAt)
		nextTokenVal = &token
		page = page[:limit]
	}

	results := make([]domain.Mileage, len(page))
	for i, m := range page {
		results[i] = mapping.ToDomainMileage(m)
	}
	return results, nextTokenVal, nil
}

// ImportedStatesByCompany returns state and ID keyed by unique import ID.
// A mileage record has no state column: linked to an invoice means done.
func (r *PgsqlMileageRepository) ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]portsrepo.ImportedState, error) {
	query := `
		SELECT unique_import_id, mileage_id, invoice_id IS NOT NULL
		FROM mileages WHERE company_id = $1`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query imported mileage states", err)
	}
	defer rows.Close()

	states := make(map[string]portsrepo.ImportedState)
	for rows.Next() {
		var importID, id string
		var done bool
		if err := rows.Scan(&importID, &id, &done); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan imported mileage state", err)
		}
		state := domain.StateDraft
		if done {
			state = domain.StateDone
		}
		states[importID] = portsrepo.ImportedState{ID: id, State: state}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate imported mileage states", err)
	}
	return states, nil
}

// CreateMileage persists a new mileage record, assigning its sequence name
// inside the same database transaction.
func (r *PgsqlMileageRepository) CreateMileage(ctx context.Context, mlg domain.Mileage) (*domain.Mileage, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	name, err := nextSequenceName(ctx, tx, "KM")
	if err != nil {
		return nil, err
	}
	mlg.Name = name

	m := mapping.ToModelMileage(mlg)
	query := `
		INSERT INTO mileages (` + mileageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err = tx.Exec(ctx, query,
		m.MileageID, m.Name, m.CompanyID, m.UniqueImportID,
		m.PartnerID, m.Date, m.Description, m.Departure, m.Arrival, m.TripType,
		m.KM, m.PriceUnit,
		m.CarName, m.CarPlate, m.CarFiscalPower,
		m.ExpenseAccountID, m.AnalyticAccountID, m.InvoiceID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicate
		}
		return nil, apperrors.NewAppError(500, "failed to create mileage", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &mlg, nil
}

// UpdateDraftMileage overwrites the mutable fields of an unprocessed
// record. Records already linked to an invoice are immutable.
func (r *PgsqlMileageRepository) UpdateDraftMileage(ctx context.Context, mlg domain.Mileage) error {
	m := mapping.ToModelMileage(mlg)
	query := `
		UPDATE mileages SET
			partner_id = $2, date = $3, description = $4, departure = $5,
			arrival = $6, trip_type = $7, km = $8, price_unit = $9,
			car_name = $10, car_plate = $11, car_fiscal_power = $12,
			expense_account_id = $13, analytic_account_id = $14,
			last_updated_at = $15, last_updated_by = $16
		WHERE mileage_id = $1 AND invoice_id IS NULL`

	tag, err := r.Pool.Exec(ctx, query,
		m.MileageID,
		m.PartnerID, m.Date, m.Description, m.Departure,
		m.Arrival, m.TripType, m.KM, m.PriceUnit,
		m.CarName, m.CarPlate, m.CarFiscalPower,
		m.ExpenseAccountID, m.AnalyticAccountID,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update mileage", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Validation("mileage '%s' is already invoiced", mlg.MileageID)
	}
	return nil
}

// LinkMileagesToInvoice stamps the invoice reference on every record of a
// processed partner group in one write.
func (r *PgsqlMileageRepository) LinkMileagesToInvoice(ctx context.Context, mileageIDs []string, invoiceID string, updatedBy string, updatedAt time.Time) error {
	if len(mileageIDs) == 0 {
		return nil
	}
	query := `
		UPDATE mileages SET invoice_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE mileage_id = ANY($1)`

	tag, err := r.Pool.Exec(ctx, query, mileageIDs, invoiceID, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to link mileages to invoice", err)
	}
	if tag.RowsAffected() != int64(len(mileageIDs)) {
		return apperrors.NewAppError(500, "failed to link all mileages to invoice", nil)
	}
	return nil
}
