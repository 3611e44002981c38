package services

import "context"

// ProcessOutcome reports a user-triggered processing batch. Skipped records
// (already done) do not fail the batch.
type ProcessOutcome struct {
	ProcessedIDs []string `json:"processedIDs"`
	SkippedIDs   []string `json:"skippedIDs"`
	InvoiceIDs   []string `json:"invoiceIDs"`
}

// ProcessingSvcFacade drives draft records to done: bank postings, vendor
// invoices and reconciliation.
type ProcessingSvcFacade interface {
	// ProcessTransactions processes a user-selected set of draft card
	// transactions. Non-draft records are skipped; any other failure aborts
	// the batch.
	ProcessTransactions(ctx context.Context, transactionIDs []string, requestedBy string) (*ProcessOutcome, error)

	// ProcessMileages groups draft mileage records by partner and creates
	// one aggregated invoice per partner.
	ProcessMileages(ctx context.Context, mileageIDs []string, requestedBy string) (*ProcessOutcome, error)
}
