package accounting

import (
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BuildBankEntry builds the two balanced lines of a card bank posting.
// A positive net amount debits the card-side account and credits the
// counterpart; a negative amount mirrors the placement. The two lines are
// exact mirrors, so the entry balances to the cent by construction.
func BuildBankEntry(journalID string, date time.Time, reference string, amount decimal.Decimal, bankAccountID, counterpartAccountID, partnerID string) domain.LedgerEntry {
	var debit, credit decimal.Decimal
	if amount.IsPositive() {
		debit = amount
		credit = decimal.Zero
	} else {
		debit = decimal.Zero
		credit = amount.Neg()
	}
	return domain.LedgerEntry{
		JournalID: journalID,
		Date:      date,
		Reference: reference,
		Lines: []domain.EntryLine{
			{AccountID: bankAccountID, Debit: debit, Credit: credit, PartnerID: partnerID, Label: reference},
			{AccountID: counterpartAccountID, Debit: credit, Credit: debit, PartnerID: partnerID, Label: reference},
		},
	}
}

// SameAmount compares two amounts within the rounding tolerance of the
// given decimal precision (2 for cent-precision currencies).
func SameAmount(a, b decimal.Decimal, precision int32) bool {
	return a.Round(precision).Equal(b.Round(precision))
}
