package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryLine is one debit/credit line of a ledger entry. Exactly one of
// Debit/Credit is non-zero.
type EntryLine struct {
	LineID    string          `json:"lineID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	PartnerID string          `json:"partnerID"`
	Label     string          `json:"label"`
}

// LedgerEntry is the payload handed to the ledger collaborator: a set of
// named debit/credit lines that must balance to the cent.
type LedgerEntry struct {
	JournalID string      `json:"journalID"`
	Date      time.Time   `json:"date"`
	Reference string      `json:"reference"`
	Lines     []EntryLine `json:"lines"`
}

// Balanced reports whether debits equal credits across all lines.
func (e LedgerEntry) Balanced() bool {
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits.Equal(credits)
}

// PostedEntry is the collaborator's answer to PostEntry: the persisted,
// posted entry with line identifiers usable for reconciliation.
type PostedEntry struct {
	EntryID   string      `json:"entryID"`
	Reference string      `json:"reference"`
	Lines     []EntryLine `json:"lines"`
}

// LinesOnAccount returns the posted lines booked on the given account.
func (e PostedEntry) LinesOnAccount(accountID string) []EntryLine {
	var out []EntryLine
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out
}
