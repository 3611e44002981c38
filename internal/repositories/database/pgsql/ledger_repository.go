package pgsql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	"github.com/kardo-hq/card_accounting_app/internal/models"
	"github.com/kardo-hq/card_accounting_app/internal/utils/mapping"
)

// PgsqlLedgerRepository implements the LedgerRepositoryFacade using pgx.
type PgsqlLedgerRepository struct {
	BaseRepository
}

func NewPgsqlLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgsqlLedgerRepository{BaseRepository{Pool: pool}}
}

const insertLineQuery = `
	INSERT INTO ledger_lines (line_id, entry_id, invoice_id, account_id,
		debit, credit, partner_id, label)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// SaveEntry inserts a posted entry and its lines in one database
// transaction. The lines go through a pgx batch.
func (r *PgsqlLedgerRepository) SaveEntry(ctx context.Context, entry domain.PostedEntry, journalID string, companyID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	entryQuery := `
		INSERT INTO ledger_entries (entry_id, company_id, journal_id, reference, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := tx.Exec(ctx, entryQuery, entry.EntryID, companyID, journalID, entry.Reference); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entry", err)
	}

	batch := &pgx.Batch{}
	for _, l := range entry.Lines {
		batch.Queue(insertLineQuery,
			l.LineID, &entry.EntryID, nil, l.AccountID,
			l.Debit, l.Credit, nullable(l.PartnerID), nullable(l.Label),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range entry.Lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return apperrors.NewAppError(500, "failed to insert ledger line", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close ledger line batch", err)
	}

	return r.Commit(ctx, tx)
}

// SaveInvoice inserts a posted invoice, its ledger lines and its
// attachments in one database transaction.
func (r *PgsqlLedgerRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, companyID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	invoiceQuery := `
		INSERT INTO invoices (invoice_id, company_id, number, type, payment_state,
			commercial_partner_id, currency_code, amount_total_signed, amount_tax,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = tx.Exec(ctx, invoiceQuery,
		invoice.InvoiceID, companyID, invoice.Number, string(invoice.Type), string(invoice.PaymentState),
		invoice.CommercialPartnerID, invoice.CurrencyCode, invoice.AmountTotalSigned, invoice.AmountTax,
		invoice.CreatedAt, invoice.CreatedBy, invoice.LastUpdatedAt, invoice.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert invoice", err)
	}

	batch := &pgx.Batch{}
	for _, l := range invoice.LedgerLines {
		batch.Queue(insertLineQuery,
			l.LineID, nil, &invoice.InvoiceID, l.AccountID,
			l.Debit, l.Credit, nullable(l.PartnerID), nullable(l.Label),
		)
	}
	for _, a := range invoice.Attachments {
		batch.Queue(`
			INSERT INTO invoice_attachments (attachment_id, invoice_id, filename, data)
			VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), invoice.InvoiceID, a.Filename, a.Data,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return apperrors.NewAppError(500, "failed to insert invoice line", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close invoice line batch", err)
	}

	return r.Commit(ctx, tx)
}

// FindInvoiceByID retrieves an invoice together with its ledger lines.
func (r *PgsqlLedgerRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoiceQuery := `
		SELECT invoice_id, company_id, number, type, payment_state,
			commercial_partner_id, currency_code, amount_total_signed, amount_tax,
			created_at, created_by, last_updated_at, last_updated_by
		FROM invoices WHERE invoice_id = $1`

	var m models.Invoice
	err := r.Pool.QueryRow(ctx, invoiceQuery, invoiceID).Scan(
		&m.InvoiceID, &m.CompanyID, &m.Number, &m.Type, &m.PaymentState,
		&m.CommercialPartnerID, &m.CurrencyCode, &m.AmountTotalSigned, &m.AmountTax,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice", err)
	}

	linesQuery := `
		SELECT line_id, entry_id, invoice_id, account_id, debit, credit,
			partner_id, label, reconcile_id
		FROM ledger_lines WHERE invoice_id = $1 ORDER BY line_id`

	rows, err := r.Pool.Query(ctx, linesQuery, invoiceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query invoice lines", err)
	}
	defer rows.Close()

	var lines []models.LedgerLine
	for rows.Next() {
		var l models.LedgerLine
		if err := rows.Scan(&l.LineID, &l.EntryID, &l.InvoiceID, &l.AccountID,
			&l.Debit, &l.Credit, &l.PartnerID, &l.Label, &l.ReconcileID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan invoice line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate invoice lines", err)
	}

	invoice := mapping.ToDomainInvoice(m, lines)
	return &invoice, nil
}

// SaveReconciliation stamps a fresh reconciliation ID on the given lines.
// All lines must be on the given account and not reconciled yet.
func (r *PgsqlLedgerRepository) SaveReconciliation(ctx context.Context, accountID string, lineIDs []string) (string, error) {
	reconcileID := uuid.New().String()
	query := `
		UPDATE ledger_lines SET reconcile_id = $1
		WHERE line_id = ANY($2) AND account_id = $3 AND reconcile_id IS NULL`

	tag, err := r.Pool.Exec(ctx, query, reconcileID, lineIDs, accountID)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to reconcile ledger lines", err)
	}
	if tag.RowsAffected() != int64(len(lineIDs)) {
		return "", apperrors.Integrity("reconciliation matched %d of %d lines on account '%s'",
			tag.RowsAffected(), len(lineIDs), accountID)
	}
	return reconcileID, nil
}
