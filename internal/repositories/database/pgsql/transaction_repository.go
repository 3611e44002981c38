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

// PgsqlTransactionRepository implements the TransactionRepositoryFacade
// using pgx.
type PgsqlTransactionRepository struct {
	BaseRepository
}

func NewPgsqlTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgsqlTransactionRepository{BaseRepository{Pool: pool}}
}

const transactionColumns = `
	transaction_id, name, company_id, unique_import_id,
	transaction_type, state,
	date, payment_date, force_invoice_date,
	description, vendor, partner_id, country_code, expense_category,
	card_id, expense_account_id, analytic_account_id,
	vat_amount, vat_rate, autoliquidation,
	total_amount, currency_code, total_currency,
	image_url, receipt_lost, receipt_number, bank_move_only,
	bank_counterpart_account_id, bank_entry_id, invoice_id, reconcile_id,
	created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (models.CardTransaction, error) {
	var m models.CardTransaction
	err := row.Scan(
		&m.TransactionID, &m.Name, &m.CompanyID, &m.UniqueImportID,
		&m.TransactionType, &m.State,
		&m.Date, &m.PaymentDate, &m.ForceInvoiceDate,
		&m.Description, &m.Vendor, &m.PartnerID, &m.CountryCode, &m.ExpenseCategory,
		&m.CardID, &m.ExpenseAccountID, &m.AnalyticAccountID,
		&m.VATAmount, &m.VATRate, &m.Autoliquidation,
		&m.TotalAmount, &m.CurrencyCode, &m.TotalCurrency,
		&m.ImageURL, &m.ReceiptLost, &m.ReceiptNumber, &m.BankMoveOnly,
		&m.BankCounterpartAccountID, &m.BankEntryID, &m.InvoiceID, &m.ReconcileID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgsqlTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.CardTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM card_transactions WHERE transaction_id = $1`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction", err)
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// FindTransactionsByIDs retrieves several transactions, preserving the
// order of the input IDs. Unknown IDs are silently absent from the result.
func (r *PgsqlTransactionRepository) FindTransactionsByIDs(ctx context.Context, transactionIDs []string) ([]domain.CardTransaction, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM card_transactions WHERE transaction_id = ANY($1)`

	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions by IDs", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.CardTransaction, len(transactionIDs))
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
		}
		byID[m.TransactionID] = mapping.ToDomainTransaction(m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate transactions", err)
	}

	results := make([]domain.CardTransaction, 0, len(byID))
	for _, id := range transactionIDs {
		if txn, ok := byID[id]; ok {
			results = append(results, txn)
		}
	}
	return results, nil
}

// ListTransactionsByCompany retrieves a page of transactions using
// token-based pagination, newest first.
func (r *PgsqlTransactionRepository) ListTransactionsByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.CardTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM card_transactions`
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
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for company "+companyID, err)
	}
	defer rows.Close()

	page := make([]models.CardTransaction, 0, fetchLimit)
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to iterate transaction rows", err)
	}

	var nextTokenVal *string
	if len(page) > limit {
		last := page[limit-1]
		token := pagination.EncodeToken(last.Date, last.CreatedAt)
		nextTokenVal = &token
		page = page[:limit]
	}

	results := make([]domain.CardTransaction, len(page))
	for i, m := range page {
		results[i] = mapping.ToDomainTransaction(m)
	}
	return results, nextTokenVal, nil
}

// ImportedStatesByCompany returns state and ID keyed by unique import ID
// for every transaction of the company. One bulk read per import batch.
func (r *PgsqlTransactionRepository) ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]portsrepo.ImportedState, error) {
	query := `
		SELECT unique_import_id, transaction_id, state
		FROM card_transactions WHERE company_id = $1`

	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query imported states", err)
	}
	defer rows.Close()

	states := make(map[string]portsrepo.ImportedState)
	for rows.Next() {
		var importID, id, state string
		if err := rows.Scan(&importID, &id, &state); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan imported state", err)
		}
		states[importID] = portsrepo.ImportedState{ID: id, State: domain.TransactionState(state)}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate imported states", err)
	}
	return states, nil
}

// DoneVendorAssignments returns the vendor strings of done expense
// transactions that were manually reassigned to a real partner. DISTINCT ON
// keeps the most recent assignment per vendor string.
func (r *PgsqlTransactionRepository) DoneVendorAssignments(ctx context.Context, companyID string, defaultPartnerID string) ([]domain.PartnerNameEntry, error) {
	query := `
		SELECT DISTINCT ON (vendor) vendor, partner_id
		FROM card_transactions
		WHERE company_id = $1
		  AND state = $2
		  AND transaction_type = $3
		  AND vendor IS NOT NULL AND vendor != ''
		  AND partner_id IS NOT NULL
		  AND partner_id != $4
		ORDER BY vendor, last_updated_at DESC`

	rows, err := r.Pool.Query(ctx, query, companyID, string(domain.StateDone), string(domain.Expense), defaultPartnerID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query vendor assignments", err)
	}
	defer rows.Close()

	var entries []domain.PartnerNameEntry
	for rows.Next() {
		var e domain.PartnerNameEntry
		if err := rows.Scan(&e.Fragment, &e.PartnerID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan vendor assignment", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate vendor assignments", err)
	}
	return entries, nil
}

// CreateTransaction persists a new draft transaction, assigning its
// sequence name inside the same database transaction. A duplicate unique
// import ID violates the table constraint and surfaces as ErrDuplicate.
func (r *PgsqlTransactionRepository) CreateTransaction(ctx context.Context, txn domain.CardTransaction) (*domain.CardTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	name, err := nextSequenceName(ctx, tx, "CTX")
	if err != nil {
		return nil, err
	}
	txn.Name = name

	m := mapping.ToModelTransaction(txn)
	query := `
		INSERT INTO card_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31,
			$32, $33, $34, $35)`

	_, err = tx.Exec(ctx, query,
		m.TransactionID, m.Name, m.CompanyID, m.UniqueImportID,
		m.TransactionType, m.State,
		m.Date, m.PaymentDate, m.ForceInvoiceDate,
		m.Description, m.Vendor, m.PartnerID, m.CountryCode, m.ExpenseCategory,
		m.CardID, m.ExpenseAccountID, m.AnalyticAccountID,
		m.VATAmount, m.VATRate, m.Autoliquidation,
		m.TotalAmount, m.CurrencyCode, m.TotalCurrency,
		m.ImageURL, m.ReceiptLost, m.ReceiptNumber, m.BankMoveOnly,
		m.BankCounterpartAccountID, m.BankEntryID, m.InvoiceID, m.ReconcileID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicate
		}
		return nil, apperrors.NewAppError(500, "failed to create transaction", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateDraftTransaction overwrites the mutable fields of a draft record.
// Done records are immutable and the attempt is a validation error.
func (r *PgsqlTransactionRepository) UpdateDraftTransaction(ctx context.Context, txn domain.CardTransaction) error {
	m := mapping.ToModelTransaction(txn)
	query := `
		UPDATE card_transactions SET
			transaction_type = $2, date = $3, payment_date = $4,
			description = $5, vendor = $6, partner_id = $7, country_code = $8,
			expense_category = $9, card_id = $10, expense_account_id = $11,
			analytic_account_id = $12, vat_amount = $13, vat_rate = $14,
			autoliquidation = $15, total_amount = $16, currency_code = $17,
			total_currency = $18, image_url = $19, receipt_lost = $20,
			receipt_number = $21, bank_counterpart_account_id = $22,
			last_updated_at = $23, last_updated_by = $24
		WHERE transaction_id = $1 AND state = $25`

	tag, err := r.Pool.Exec(ctx, query,
		m.TransactionID,
		m.TransactionType, m.Date, m.PaymentDate,
		m.Description, m.Vendor, m.PartnerID, m.CountryCode,
		m.ExpenseCategory, m.CardID, m.ExpenseAccountID,
		m.AnalyticAccountID, m.VATAmount, m.VATRate,
		m.Autoliquidation, m.TotalAmount, m.CurrencyCode,
		m.TotalCurrency, m.ImageURL, m.ReceiptLost,
		m.ReceiptNumber, m.BankCounterpartAccountID,
		m.LastUpdatedAt, m.LastUpdatedBy,
		string(domain.StateDraft),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Validation("transaction '%s' is not a draft record", txn.TransactionID)
	}
	return nil
}

// MarkTransactionDone persists state=done together with the derived
// references in a single write.
func (r *PgsqlTransactionRepository) MarkTransactionDone(ctx context.Context, transactionID, bankEntryID, invoiceID, reconcileID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE card_transactions SET
			state = $2, bank_entry_id = $3, invoice_id = $4, reconcile_id = $5,
			last_updated_at = $6, last_updated_by = $7
		WHERE transaction_id = $1`

	tag, err := r.Pool.Exec(ctx, query,
		transactionID, string(domain.StateDone),
		nullable(bankEntryID), nullable(invoiceID), nullable(reconcileID),
		updatedAt, updatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark transaction done", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
