package dto

import portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"

// ImportResponse defines the data returned after a CSV import or an API
// sync run.
type ImportResponse struct {
	TransactionIDs []string `json:"transactionIDs"`
	MileageIDs     []string `json:"mileageIDs"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
}

// ToImportResponse converts a service ImportResult to its DTO.
func ToImportResponse(r *portssvc.ImportResult) ImportResponse {
	return ImportResponse{
		TransactionIDs: r.TransactionIDs,
		MileageIDs:     r.MileageIDs,
		Created:        r.Created,
		Updated:        r.Updated,
		Skipped:        r.Skipped,
	}
}

// ProcessRequest selects the draft records to process.
type ProcessRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ProcessResponse reports the outcome of a processing batch.
type ProcessResponse struct {
	ProcessedIDs []string `json:"processedIDs"`
	SkippedIDs   []string `json:"skippedIDs"`
	InvoiceIDs   []string `json:"invoiceIDs"`
}

// ToProcessResponse converts a service ProcessOutcome to its DTO.
func ToProcessResponse(o *portssvc.ProcessOutcome) ProcessResponse {
	return ProcessResponse{
		ProcessedIDs: o.ProcessedIDs,
		SkippedIDs:   o.SkippedIDs,
		InvoiceIDs:   o.InvoiceIDs,
	}
}
