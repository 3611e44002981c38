package provider

import (
	"bytes"
	"encoding/json"
)

// Wire types of the card provider's REST API (v3). Numeric scalars arrive as
// JSON strings in some payloads and as numbers in others, hence FlexString
// for every amount and token field.

// FlexString decodes a JSON string or number into its textual form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Account is one provider "bank" account holding the card balances.
type Account struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
}

// AccountMovement is one settled movement on the provider account: an
// expense settlement ('P') or a card load ('L'). Expense movements carry a
// TransactionLink correlating them with the matching Expense record.
type AccountMovement struct {
	ID              string      `json:"id"`
	TransactionType string      `json:"transaction_type"`
	Token           FlexString  `json:"token"`
	ChangeReal      FlexString  `json:"change_real"`
	TransactionDate string      `json:"transaction_date"`
	TransactionLink string      `json:"transaction_link"`
}

// ExpenseVAT is one per-country VAT line of an expense.
type ExpenseVAT struct {
	Country string      `json:"country"`
	Rate    string      `json:"rate"`
	Amount  FlexString  `json:"amount"`
}

// ExpenseSource discriminates the expense origin: card expenses carry the
// movement correlation link, mileage expenses carry the trip geometry.
type ExpenseSource struct {
	TransactionLink string      `json:"transaction_link"`
	DistanceType    string      `json:"distance_type"`
	Distance        FlexString  `json:"distance"`
	StartPoint      string      `json:"start_point"`
	EndPoint        string      `json:"end_point"`
}

// Expense is one declared expense, card or mileage.
type Expense struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	At                string         `json:"at"`
	Amount            FlexString     `json:"amount"`
	AmountCurrency    FlexString     `json:"amount_currency"`
	Currency          string         `json:"currency"`
	InvoiceCountry    string         `json:"invoice_country"`
	ExpenseCategoryID string         `json:"expense_category_id"`
	UserProfileID     string         `json:"user_profile_id"`
	ReceiptID         string         `json:"receipt_id"`
	ReceiptCode       string         `json:"receipt_code"`
	SupplierID        string         `json:"supplier_id"`
	Attendees         []string       `json:"attendees"`
	VATs              []ExpenseVAT   `json:"vats"`
	Source            *ExpenseSource `json:"source"`
}

// ExpenseCategory maps a provider category to an external ledger-account
// code.
type ExpenseCategory struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ChargeAccount string `json:"charge_account"`
}

// Receipt is the stored scan of an expense receipt.
type Receipt struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Supplier is a provider-side vendor record.
type Supplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserProfile is a provider-side employee record.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
