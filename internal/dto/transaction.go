package dto

import (
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionResponse defines the data returned for a card transaction.
type TransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	Name            string          `json:"name"`
	UniqueImportID  string          `json:"uniqueImportID"`
	TransactionType string          `json:"transactionType"`
	State           string          `json:"state"`
	Date            time.Time       `json:"date"`
	PaymentDate     *time.Time      `json:"paymentDate,omitempty"`
	Description     string          `json:"description,omitempty"`
	Vendor          string          `json:"vendor,omitempty"`
	PartnerID       string          `json:"partnerID,omitempty"`
	CountryCode     string          `json:"countryCode,omitempty"`
	CardID          string          `json:"cardID,omitempty"`
	VATAmount       decimal.Decimal `json:"vatAmount"`
	VATRate         decimal.Decimal `json:"vatRate"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CurrencyCode    string          `json:"currencyCode,omitempty"`
	TotalCurrency   decimal.Decimal `json:"totalCurrency"`
	ReceiptLost     bool            `json:"receiptLost"`
	BankEntryID     string          `json:"bankEntryID,omitempty"`
	InvoiceID       string          `json:"invoiceID,omitempty"`
	ReconcileID     string          `json:"reconcileID,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// UpdateTransactionRequest carries the draft-editable fields. Pointer fields
// distinguish "leave unchanged" from an explicit new value.
type UpdateTransactionRequest struct {
	Description              *string          `json:"description,omitempty"`
	PartnerID                *string          `json:"partnerID,omitempty"`
	ExpenseAccountID         *string          `json:"expenseAccountID,omitempty"`
	AnalyticAccountID        *string          `json:"analyticAccountID,omitempty"`
	BankCounterpartAccountID *string          `json:"bankCounterpartAccountID,omitempty"`
	VATAmount                *decimal.Decimal `json:"vatAmount,omitempty"`
	VATRate                  *decimal.Decimal `json:"vatRate,omitempty"`
	ReceiptLost              *bool            `json:"receiptLost,omitempty"`
	BankMoveOnly             *bool            `json:"bankMoveOnly,omitempty"`
	ForceInvoiceDate         *time.Time       `json:"forceInvoiceDate,omitempty"`
	InvoiceID                *string          `json:"invoiceID,omitempty"`
}

// ApplyTo writes the requested changes onto a draft transaction.
func (r UpdateTransactionRequest) ApplyTo(txn *domain.CardTransaction) {
	if r.Description != nil {
		txn.Description = *r.Description
	}
	if r.PartnerID != nil {
		txn.PartnerID = *r.PartnerID
	}
	if r.ExpenseAccountID != nil {
		txn.ExpenseAccountID = *r.ExpenseAccountID
	}
	if r.AnalyticAccountID != nil {
		txn.AnalyticAccountID = *r.AnalyticAccountID
	}
	if r.BankCounterpartAccountID != nil {
		txn.BankCounterpartAccountID = *r.BankCounterpartAccountID
	}
	if r.VATAmount != nil {
		txn.VATAmount = *r.VATAmount
	}
	if r.VATRate != nil {
		txn.VATRate = *r.VATRate
	}
	if r.ReceiptLost != nil {
		txn.ReceiptLost = *r.ReceiptLost
	}
	if r.BankMoveOnly != nil {
		txn.BankMoveOnly = *r.BankMoveOnly
	}
	if r.ForceInvoiceDate != nil {
		txn.ForceInvoiceDate = r.ForceInvoiceDate
	}
	if r.InvoiceID != nil {
		txn.InvoiceID = *r.InvoiceID
	}
}

// ListTransactionsResponse is a paginated transaction listing.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.CardTransaction to its DTO.
func ToTransactionResponse(t *domain.CardTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		Name:            t.Name,
		UniqueImportID:  t.UniqueImportID,
		TransactionType: string(t.TransactionType),
		State:           string(t.State),
		Date:            t.Date,
		PaymentDate:     t.PaymentDate,
		Description:     t.Description,
		Vendor:          t.Vendor,
		PartnerID:       t.PartnerID,
		CountryCode:     t.CountryCode,
		CardID:          t.CardID,
		VATAmount:       t.VATAmount,
		VATRate:         t.VATRate,
		TotalAmount:     t.TotalAmount,
		CurrencyCode:    t.CurrencyCode,
		TotalCurrency:   t.TotalCurrency,
		ReceiptLost:     t.ReceiptLost,
		BankEntryID:     t.BankEntryID,
		InvoiceID:       t.InvoiceID,
		ReconcileID:     t.ReconcileID,
		CreatedAt:       t.CreatedAt,
	}
}

// ToListTransactionsResponse converts a page of transactions.
func ToListTransactionsResponse(txns []domain.CardTransaction, nextToken *string) ListTransactionsResponse {
	responses := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		responses[i] = ToTransactionResponse(&t)
	}
	return ListTransactionsResponse{Transactions: responses, NextToken: nextToken}
}
