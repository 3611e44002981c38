package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
)

// nextSequenceName reserves the next number of a named sequence and formats
// it as "CODE/00001". The upsert is atomic, so concurrent imports never
// hand out the same number.
func nextSequenceName(ctx context.Context, tx pgx.Tx, code string) (string, error) {
	query := `
		INSERT INTO sequences (code, next_number) VALUES ($1, 2)
		ON CONFLICT (code) DO UPDATE SET next_number = sequences.next_number + 1
		RETURNING next_number - 1`
	var number int64
	if err := tx.QueryRow(ctx, query, code).Scan(&number); err != nil {
		return "", apperrors.NewAppError(500, "failed to reserve sequence number", err)
	}
	return fmt.Sprintf("%s/%05d", code, number), nil
}
