package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/kardo-hq/card_accounting_app/internal/utils/textnorm"
	"github.com/shopspring/decimal"
)

// RawRecord is one raw external record: a CSV row or a flattened API JSON
// object. Values are strings; the empty string means absent, regardless of
// source format.
type RawRecord map[string]string

// Get returns the trimmed value of a key, "" when absent.
func (r RawRecord) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Has reports whether the key carries a non-empty value.
func (r RawRecord) Has(key string) bool {
	return r.Get(key) != ""
}

// NormalizeMode restricts the produced field set.
type NormalizeMode string

const (
	// ModeCreate produces the full field set.
	ModeCreate NormalizeMode = "create"
	// ModeUpdate produces only the fields safe to overwrite on an existing
	// draft record (non-identity fields).
	ModeUpdate NormalizeMode = "update"
)

// RecordSource tells the normalizer where the record came from. CSV imports
// require pre-registered cards; API imports may auto-create them.
type RecordSource string

const (
	SourceCSV RecordSource = "csv"
	SourceAPI RecordSource = "api"
)

// NormalizeOptions parameterize one normalization call.
type NormalizeOptions struct {
	Mode      NormalizeMode
	Source    RecordSource
	MatchMode domain.PartnerMatchMode
}

// TransactionValues is the normalized output for a card transaction. Fields
// below the identity marker are only populated in create mode.
type TransactionValues struct {
	TransactionType          domain.TransactionType
	Description              string
	ExpenseCategory          string
	ExpenseAccountID         string
	AnalyticAccountID        string
	VATAmount                decimal.Decimal
	VATRate                  decimal.Decimal
	Autoliquidation          domain.Autoliquidation
	ImageURL                 string
	ReceiptNumber            string
	PartnerID                string
	BankCounterpartAccountID string

	// Identity fields, create mode only.
	UniqueImportID string
	Date           time.Time
	PaymentDate    *time.Time
	CardID         string
	CountryCode    string
	Vendor         string
	TotalAmount    decimal.Decimal
	TotalCurrency  decimal.Decimal
	CurrencyCode   string

	// NewCardToken is set when the record references a card token unknown
	// to the index and the source allows auto-creation (API only). The
	// importer registers the card and fills CardID.
	NewCardToken string
}

// vatBucket is one fixed per-rate VAT column of the provider feed, in
// declaration order. The declaration order breaks ties during rate
// resolution.
type vatBucket struct {
	field string
	rate  decimal.Decimal
}

var vatBuckets = []vatBucket{
	{"vat_20_id", decimal.NewFromFloat(20.0)},
	{"vat_10_id", decimal.NewFromFloat(10.0)},
	{"vat_55_id", decimal.NewFromFloat(5.5)},
	{"vat_21_id", decimal.NewFromFloat(2.1)},
}

var transactionFloatFields = []string{
	"vat_eur", "amount_eur", "amount_currency",
	"vat_20_id", "vat_10_id", "vat_55_id", "vat_21_id",
}

// euCountries are the EU member states, used for the autoliquidation flag.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// NormalizeTransaction converts one raw card-movement record into normalized
// transaction values using the reference index. It is pure: all lookups go
// through the index, never through storage.
func NormalizeTransaction(raw RawRecord, idx *domain.ReferenceIndex, opts NormalizeOptions) (*TransactionValues, error) {
	amounts, err := coerceFloats(raw, transactionFloatFields)
	if err != nil {
		return nil, err
	}

	vals := &TransactionValues{}

	// Transaction type: fixed two-symbol code. Anything else means a
	// malformed file ('A' authorization records are not actionable and are
	// not accepted here).
	switch raw.Get("transaction_type") {
	case "P":
		vals.TransactionType = domain.Expense
	case "L":
		vals.TransactionType = domain.Load
	default:
		return nil, apperrors.MalformedInput("wrong transaction type '%s': the only possible values are 'P' (expense) or 'L' (load)", raw.Get("transaction_type"))
	}

	// Card resolution. CSV mode requires pre-registration; API mode
	// surfaces first-seen tokens for auto-creation.
	if token := raw.Get("card_token"); token != "" {
		cardID, known := idx.Tokens[token]
		switch {
		case known:
			vals.CardID = cardID
		case opts.Source == SourceCSV:
			return nil, apperrors.MalformedInput("the file contains the payment card '%s' which is not registered", token)
		default:
			vals.NewCardToken = token
		}
	}

	// Expense account, per-card override and analytic account.
	if vals.TransactionType == domain.Expense {
		if code := raw.Get("charge_account"); code != "" {
			accountID, ok := idx.Accounts[code]
			if !ok {
				return nil, apperrors.MalformedInput("unknown expense account code '%s'", code)
			}
			vals.ExpenseAccountID = accountID
		}
		if vals.CardID != "" && vals.ExpenseAccountID != "" {
			key := domain.CardAccountKey{CardID: vals.CardID, AccountID: vals.ExpenseAccountID}
			if forced, ok := idx.Mapping[key]; ok {
				vals.ExpenseAccountID = forced
			}
		}
		if code := raw.Get("analytic_code_1"); code != "" {
			vals.AnalyticAccountID = idx.Analytic[strings.ToLower(code)]
		}
	}

	// Partner and bank counterpart.
	switch vals.TransactionType {
	case domain.Load:
		vals.BankCounterpartAccountID = idx.TransferAccountID
	case domain.Expense:
		vals.PartnerID = MatchPartner(raw.Get("supplier"), idx, opts.MatchMode)
		vals.BankCounterpartAccountID = idx.PayableAccountFor(vals.PartnerID)
	}

	// VAT rate: pick the configured bucket with the largest magnitude.
	// Ties, including the all-zero-bucket case, resolve to the lowest
	// configured rate.
	vals.VATAmount = amounts["vat_eur"]
	if !vals.VATAmount.IsZero() {
		vals.VATRate = resolveVATRate(amounts)
	} else if opts.Mode == ModeCreate {
		vals.Autoliquidation = resolveAutoliquidation(raw.Get("country_code"), idx)
	}

	vals.Description = raw.Get("title")
	vals.ExpenseCategory = raw.Get("expense_category_name")
	vals.ImageURL = raw.Get("attachment")
	vals.ReceiptNumber = raw.Get("receipt_code")

	if opts.Mode == ModeUpdate {
		return vals, nil
	}

	// Identity fields below are only produced on create.
	vals.UniqueImportID = raw.Get("id")
	vals.Vendor = raw.Get("supplier")
	vals.TotalAmount = amounts["amount_eur"]
	vals.TotalCurrency = amounts["amount_currency"]
	vals.CountryCode = resolveCountry(raw.Get("country_code"), raw.Get("country_name"), idx)
	vals.CurrencyCode = idx.Currencies[raw.Get("original_currency")]

	if raw.Has("date_transaction") {
		date, err := ParseProviderDateTime(raw.Get("date_transaction"))
		if err != nil {
			return nil, apperrors.MalformedInput("cannot parse bank transaction date '%s': %v", raw.Get("date_transaction"), err)
		}
		vals.Date = date.Truncate(24 * time.Hour)
	}
	if vals.TransactionType == domain.Expense && raw.Has("date_authorization") {
		paymentDate, err := ParseProviderDateTime(raw.Get("date_authorization"))
		if err != nil {
			return nil, apperrors.MalformedInput("cannot parse payment date '%s': %v", raw.Get("date_authorization"), err)
		}
		vals.PaymentDate = &paymentDate
	}

	return vals, nil
}

// coerceFloats converts the declared numeric fields of a record to decimals.
// Absence defaults to zero; malformed values fail naming the field.
func coerceFloats(raw RawRecord, fields []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(fields))
	for _, field := range fields {
		v := raw.Get(field)
		if v == "" {
			out[field] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, apperrors.MalformedInput("cannot convert numeric field '%s' with value '%s'", field, v)
		}
		out[field] = d
	}
	return out, nil
}

func resolveVATRate(amounts map[string]decimal.Decimal) decimal.Decimal {
	best := decimal.NewFromInt(-1)
	rate := decimal.Zero
	for _, bucket := range vatBuckets {
		magnitude := amounts[bucket.field].Abs()
		if magnitude.GreaterThanOrEqual(best) {
			best = magnitude
			rate = bucket.rate
		}
	}
	return rate
}

// resolveAutoliquidation infers the cross-border VAT flag for a transaction
// without explicit VAT. Informational metadata for the downstream tax
// engine, never computed tax.
func resolveAutoliquidation(alpha3 string, idx *domain.ReferenceIndex) domain.Autoliquidation {
	code := alpha3ToAlpha2(alpha3)
	if code == "" || code == idx.CompanyCountry {
		return domain.AutoliqNone
	}
	if _, eu := euCountries[code]; eu {
		return domain.AutoliqIntra
	}
	return domain.AutoliqExtra
}

// resolveCountry maps the provider's 3-letter code to an ISO alpha-2 code
// known to the reference tables, falling back to a localized country-name
// match. The provider is known to sometimes omit codes: this never fails,
// an unresolvable country is simply left unset.
func resolveCountry(alpha3, name string, idx *domain.ReferenceIndex) string {
	if code := alpha3ToAlpha2(alpha3); code != "" {
		if _, ok := idx.Countries[code]; ok {
			return code
		}
	}
	if name != "" {
		if c := countries.ByName(name); c != countries.Unknown {
			code := c.Alpha2()
			if _, ok := idx.Countries[code]; ok {
				return code
			}
		}
	}
	return ""
}

func alpha3ToAlpha2(alpha3 string) string {
	if len(alpha3) != 3 {
		return ""
	}
	c := countries.ByName(alpha3)
	if c == countries.Unknown {
		return ""
	}
	return c.Alpha2()
}

// MatchPartner resolves a free-text vendor name to a partner through the
// ordered fragment list of the index. First match wins; no match falls back
// to the default partner. The linear scan is intentional: the list is built
// once per batch and administrator-entered partners must be tried in a
// deterministic order.
func MatchPartner(vendor string, idx *domain.ReferenceIndex, mode domain.PartnerMatchMode) string {
	candidate := textnorm.Normalize(vendor)
	if len(candidate) < MeaningfulPartnerNameMinSize {
		return idx.DefaultPartnerID
	}
	for _, entry := range idx.Partners {
		if fragmentMatches(entry.Fragment, candidate, mode) {
			return entry.PartnerID
		}
	}
	return idx.DefaultPartnerID
}

func fragmentMatches(fragment, candidate string, mode domain.PartnerMatchMode) bool {
	if mode == domain.MatchEqual {
		return fragment == candidate
	}
	return strings.Contains(candidate, fragment) || strings.Contains(fragment, candidate)
}

// ParseProviderDateTime normalizes the provider's datetime formats to UTC:
// ISO form "2019-10-07T07:56:52.000Z", "2019-10-08 13:06:10 UTC" and the
// numeric-offset form "2019-10-08 13:06:10 +0200".
func ParseProviderDateTime(value string) (time.Time, error) {
	if len(value) > 10 && value[10] == 'T' {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	if len(value) >= 25 && (value[20] == '+' || value[20] == '-') {
		t, err := time.Parse("2006-01-02 15:04:05 -0700", value)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05 MST", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value[:min(10, len(value))])
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// MileageValues is the normalized output for a mileage record.
type MileageValues struct {
	Description       string
	Departure         string
	Arrival           string
	TripType          domain.TripType
	KM                int64
	PriceUnit         decimal.Decimal
	CarName           string
	CarPlate          string
	CarFiscalPower    string
	ExpenseAccountID  string
	AnalyticAccountID string

	// Identity fields, create mode only.
	UniqueImportID string
	Date           time.Time
	PartnerID      string
}

// French CSV column names of the mileage schema, fixed by the provider.
const (
	mileageColID       = "Identifiant unique"
	mileageColEmail    = "Email"
	mileageColDate     = "Date"
	mileageColDesc     = "Description"
	mileageColFrom     = "Départ"
	mileageColTo       = "Arrivée"
	mileageColTrip     = "Type de trajet"
	mileageColKM       = "Distance (km)"
	mileageColRate     = "Barême kilométrique"
	mileageColCar      = "Véhicule"
	mileageColPlate    = "Immatriculation"
	mileageColPower    = "Puissance fiscale"
	mileageColAnalytic = "Codes analytiques"
	mileageColAccount  = "Compte de charge"
)

var csvTripTypes = map[string]domain.TripType{
	"Aller Simple":    domain.OneWay,
	"Aller / Retour":  domain.RoundTrip,
	"Aller / retour":  domain.RoundTrip,
}

// NormalizeMileageCSV converts one row of the semicolon-delimited mileage
// schema into normalized mileage values.
func NormalizeMileageCSV(raw RawRecord, idx *domain.ReferenceIndex, opts NormalizeOptions) (*MileageValues, error) {
	vals := &MileageValues{}

	rate := raw.Get(mileageColRate)
	if rate != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(rate, ",", "."))
		if err != nil {
			return nil, apperrors.MalformedInput("cannot convert numeric field '%s' with value '%s'", mileageColRate, rate)
		}
		vals.PriceUnit = d
	}
	if km := raw.Get(mileageColKM); km != "" {
		n, err := strconv.ParseInt(km, 10, 64)
		if err != nil {
			return nil, apperrors.MalformedInput("cannot convert numeric field '%s' with value '%s'", mileageColKM, km)
		}
		vals.KM = n
	}

	if code := raw.Get(mileageColAnalytic); code != "" {
		vals.AnalyticAccountID = idx.Analytic[strings.ToLower(code)]
	}
	if code := raw.Get(mileageColAccount); code != "" {
		accountID, ok := idx.Accounts[code]
		if !ok {
			return nil, apperrors.MalformedInput("unknown expense account code '%s'", code)
		}
		vals.ExpenseAccountID = accountID
	}
	if trip, ok := csvTripTypes[raw.Get(mileageColTrip)]; ok {
		vals.TripType = trip
	}

	vals.Description = raw.Get(mileageColDesc)
	vals.Departure = raw.Get(mileageColFrom)
	vals.Arrival = raw.Get(mileageColTo)
	vals.CarName = raw.Get(mileageColCar)
	vals.CarPlate = raw.Get(mileageColPlate)
	vals.CarFiscalPower = raw.Get(mileageColPower)

	if opts.Mode == ModeUpdate {
		return vals, nil
	}

	email := raw.Get(mileageColEmail)
	if email == "" {
		return nil, apperrors.MalformedInput("missing email on mileage record")
	}
	partnerID, ok := idx.PartnerEmails[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.MalformedInput("no partner with email '%s' found", email)
	}
	vals.PartnerID = partnerID
	vals.UniqueImportID = raw.Get(mileageColID)

	if raw.Has(mileageColDate) {
		date, err := ParseProviderDateTime(raw.Get(mileageColDate))
		if err != nil {
			return nil, apperrors.MalformedInput("cannot parse mileage date '%s': %v", raw.Get(mileageColDate), err)
		}
		vals.Date = date
	}
	return vals, nil
}

var apiTripTypes = map[string]domain.TripType{
	"single": domain.OneWay,
	"return": domain.RoundTrip,
}

// NormalizeMileageAPI converts one provider API expense of source type
// KmExpense into normalized mileage values. The employee is resolved by
// exact email match through the user-profile index; an unresolvable email
// is fatal since a mileage expense without a payee cannot be posted.
func NormalizeMileageAPI(raw RawRecord, idx *domain.ReferenceIndex, opts NormalizeOptions) (*MileageValues, error) {
	if cur := raw.Get("currency"); cur != "" && cur != idx.CompanyCurrency {
		return nil, apperrors.MalformedInput("the currency of the mileage is %s whereas the company currency is %s", cur, idx.CompanyCurrency)
	}

	vals := &MileageValues{}

	if categID := raw.Get("expense_category_id"); categID != "" {
		categ, ok := idx.ExpenseCategories[categID]
		if !ok {
			return nil, apperrors.Integrity("the expense category UUID %s is unknown", categID)
		}
		accountID, ok := idx.Accounts[categ.Code]
		if !ok {
			return nil, apperrors.MalformedInput("unknown expense account code '%s' for category '%s'", categ.Code, categ.Name)
		}
		vals.ExpenseAccountID = accountID
	}

	trip, ok := apiTripTypes[raw.Get("distance_type")]
	if !ok {
		return nil, apperrors.Integrity("wrong value '%s' for distance type", raw.Get("distance_type"))
	}
	vals.TripType = trip

	if km := raw.Get("distance"); km != "" {
		n, err := strconv.ParseInt(km, 10, 64)
		if err != nil {
			return nil, apperrors.MalformedInput("cannot convert numeric field 'distance' with value '%s'", km)
		}
		vals.KM = n
	}
	if amount := raw.Get("amount"); amount != "" && vals.KM > 0 {
		total, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, apperrors.MalformedInput("cannot convert numeric field 'amount' with value '%s'", amount)
		}
		vals.PriceUnit = total.Div(decimal.NewFromInt(vals.KM)).Round(4)
	}

	vals.Description = raw.Get("title")
	vals.Departure = raw.Get("start_point")
	vals.Arrival = raw.Get("end_point")

	if opts.Mode == ModeUpdate {
		return vals, nil
	}

	profileID := raw.Get("user_profile_id")
	email, ok := idx.UserEmails[profileID]
	if !ok {
		return nil, apperrors.Integrity("the user profile UUID %s is unknown", profileID)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.MalformedInput("missing email on user profile %s", profileID)
	}
	partnerID, ok := idx.PartnerEmails[email]
	if !ok {
		return nil, apperrors.MalformedInput("no partner with email '%s' found", email)
	}
	vals.PartnerID = partnerID
	vals.UniqueImportID = raw.Get("id")

	if raw.Has("at") {
		date, err := ParseProviderDateTime(raw.Get("at"))
		if err != nil {
			return nil, apperrors.MalformedInput("cannot parse mileage date '%s': %v", raw.Get("at"), err)
		}
		vals.Date = date
	}
	return vals, nil
}
