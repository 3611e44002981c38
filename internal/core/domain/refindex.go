package domain

import "github.com/shopspring/decimal"

// PartnerMatchMode selects how vendor-name fragments are compared during
// fuzzy partner matching.
type PartnerMatchMode string

const (
	// MatchContain matches when the fragment is a substring of the vendor
	// string or vice-versa.
	MatchContain PartnerMatchMode = "contain"
	// MatchEqual requires exact equality of the normalized strings.
	MatchEqual PartnerMatchMode = "equal"
)

// PartnerNameEntry is one (normalized fragment, partner) pair of the ordered
// vendor-matching list. Order is significant: first match wins.
type PartnerNameEntry struct {
	Fragment  string
	PartnerID string
}

// CardAccountKey keys the per-card account override table.
type CardAccountKey struct {
	CardID    string
	AccountID string
}

// ExpenseCategory is a provider expense category resolved via the API.
type ExpenseCategory struct {
	Code string // external ledger-account code
	Name string
}

// ReferenceIndex is the "speed dictionary": per-batch, read-only lookup
// tables resolving external codes to internal identifiers in O(1) per field,
// built with one bulk read per reference table instead of per-row queries.
// It is rebuilt for every import batch and must not be shared across
// concurrent batches.
type ReferenceIndex struct {
	CompanyID       string
	CompanyCurrency string
	CompanyCountry  string // ISO alpha-2

	Tokens     map[string]string         // card token -> card ID
	Accounts   map[string]string         // account code -> ledger account ID
	Analytic   map[string]string         // analytic code (lower) -> analytic ID
	Countries  map[string]string         // ISO alpha-2 -> country ID
	CountryIDs map[string]string         // country ID -> ISO alpha-2
	Currencies map[string]string         // currency name -> currency code
	Mapping    map[CardAccountKey]string // (card, account) -> forced account ID

	Partners        []PartnerNameEntry // ordered, first match wins
	PartnerPayables map[string]string  // partner ID -> payable account ID
	PartnerEmails   map[string]string  // lower-cased email -> partner ID

	DefaultPartnerID  string
	TransferAccountID string
	DefaultVATRate    decimal.Decimal

	// Filled by the API sync driver while walking provider collections.
	ExpenseCategories map[string]ExpenseCategory // provider category UUID
	UserEmails        map[string]string          // provider user-profile UUID -> email
}

// PayableAccountFor returns the payable account of a partner, falling back
// to the default partner's payable account.
func (idx *ReferenceIndex) PayableAccountFor(partnerID string) string {
	if acc, ok := idx.PartnerPayables[partnerID]; ok && acc != "" {
		return acc
	}
	return idx.PartnerPayables[idx.DefaultPartnerID]
}
