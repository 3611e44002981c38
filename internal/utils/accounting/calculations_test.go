package accounting_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardo-hq/card_accounting_app/internal/utils/accounting"
)

func TestBuildBankEntry_PositiveAmountDebitsTheBank(t *testing.T) {
	date := time.Date(2019, 10, 3, 0, 0, 0, 0, time.UTC)

	entry := accounting.BuildBankEntry("jrnl-1", date, "Monthly load (Load)",
		decimal.NewFromFloat(100.00), "acc-bank", "acc-transfer", "")

	require.Len(t, entry.Lines, 2)
	assert.Equal(t, "jrnl-1", entry.JournalID)
	assert.Equal(t, date, entry.Date)

	bank, counterpart := entry.Lines[0], entry.Lines[1]
	assert.Equal(t, "acc-bank", bank.AccountID)
	assert.True(t, bank.Debit.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, bank.Credit.IsZero())
	assert.Equal(t, "acc-transfer", counterpart.AccountID)
	assert.True(t, counterpart.Credit.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, counterpart.Debit.IsZero())
	assert.Equal(t, "Monthly load (Load)", bank.Label)
}

func TestBuildBankEntry_NegativeAmountCreditsTheBank(t *testing.T) {
	date := time.Date(2019, 10, 3, 0, 0, 0, 0, time.UTC)

	entry := accounting.BuildBankEntry("jrnl-1", date, "Uber ride (Expense)",
		decimal.NewFromFloat(-59.90), "acc-bank", "acc-payable-uber", "p-uber")

	require.Len(t, entry.Lines, 2)
	bank, counterpart := entry.Lines[0], entry.Lines[1]
	assert.True(t, bank.Credit.Equal(decimal.NewFromFloat(59.90)))
	assert.True(t, bank.Debit.IsZero())
	assert.True(t, counterpart.Debit.Equal(decimal.NewFromFloat(59.90)))
	assert.Equal(t, "p-uber", counterpart.PartnerID)

	// The two lines mirror each other, so the entry always balances.
	totalDebit := bank.Debit.Add(counterpart.Debit)
	totalCredit := bank.Credit.Add(counterpart.Credit)
	assert.True(t, totalDebit.Equal(totalCredit))
}

func TestSameAmount(t *testing.T) {
	a, err := decimal.NewFromString("-59.904")
	require.NoError(t, err)
	b, err := decimal.NewFromString("-59.897")
	require.NoError(t, err)

	assert.True(t, accounting.SameAmount(a, b, 2), "both round to -59.90 at cent precision")
	assert.False(t, accounting.SameAmount(a, b, 3))
	assert.False(t, accounting.SameAmount(a, a.Neg(), 2))
}
