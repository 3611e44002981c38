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

// PgsqlCardRepository implements the CardRepositoryFacade using pgx.
type PgsqlCardRepository struct {
	BaseRepository
}

func NewPgsqlCardRepository(pool *pgxpool.Pool) portsrepo.CardRepositoryFacade {
	return &PgsqlCardRepository{BaseRepository{Pool: pool}}
}

const cardColumns = `
	card_id, token, code, company_id, user_id, journal_id, active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanCard(row pgx.Row) (models.Card, error) {
	var m models.Card
	err := row.Scan(
		&m.CardID, &m.Token, &m.Code, &m.CompanyID, &m.UserID, &m.JournalID, &m.Active,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// ListCardsByCompany retrieves all cards of a company, active ones first.
func (r *PgsqlCardRepository) ListCardsByCompany(ctx context.Context, companyID string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + `
		FROM cards WHERE company_id = $1 ORDER BY active DESC, token`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list cards", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		m, err := scanCard(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan card", err)
		}
		cards = append(cards, mapping.ToDomainCard(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate cards", err)
	}
	return cards, nil
}

// FindCardByID retrieves a card by its ID.
func (r *PgsqlCardRepository) FindCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_id = $1`

	m, err := scanCard(r.Pool.QueryRow(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find card", err)
	}
	card := mapping.ToDomainCard(m)
	return &card, nil
}

// CreateCard persists a new card. The (company_id, token) unique constraint
// rejects duplicate registrations.
func (r *PgsqlCardRepository) CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error) {
	m := mapping.ToModelCard(card)
	query := `
		INSERT INTO cards (card_id, token, code, company_id, user_id, journal_id, active,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8, NOW(), $8)
		RETURNING created_at, last_updated_at`

	createdBy := card.CreatedBy
	err := r.Pool.QueryRow(ctx, query,
		m.CardID, m.Token, m.Code, m.CompanyID, m.UserID, m.JournalID, m.Active, createdBy,
	).Scan(&m.CreatedAt, &m.LastUpdatedAt)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to create card", err)
	}
	m.CreatedBy = createdBy
	m.LastUpdatedBy = createdBy
	created := mapping.ToDomainCard(m)
	created.AuditFields = domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
	return &created, nil
}

// ListAccountMappingsByCompany retrieves the per-card account overrides.
func (r *PgsqlCardRepository) ListAccountMappingsByCompany(ctx context.Context, companyID string) ([]domain.AccountMapping, error) {
	query := `
		SELECT mapping_id, card_id, company_id, expense_account_id, force_expense_account_id
		FROM card_account_mappings WHERE company_id = $1`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list account mappings", err)
	}
	defer rows.Close()

	var mappings []domain.AccountMapping
	for rows.Next() {
		var m domain.AccountMapping
		if err := rows.Scan(&m.MappingID, &m.CardID, &m.CompanyID, &m.ExpenseAccountID, &m.ForceExpenseAccountID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account mapping", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate account mappings", err)
	}
	return mappings, nil
}

// FindJournalByID retrieves a bank journal by its ID.
func (r *PgsqlCardRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	query := `
		SELECT journal_id, company_id, name, default_account_id
		FROM journals WHERE journal_id = $1`

	var m models.Journal
	err := r.Pool.QueryRow(ctx, query, journalID).Scan(
		&m.JournalID, &m.CompanyID, &m.Name, &m.DefaultAccountID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal", err)
	}
	journal := mapping.ToDomainJournal(m)
	return &journal, nil
}
