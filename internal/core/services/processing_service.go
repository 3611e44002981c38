package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/kardo-hq/card_accounting_app/internal/utils/accounting"
	"github.com/kardo-hq/card_accounting_app/internal/utils/receiptimg"
	"github.com/shopspring/decimal"
)

// amountPrecision is the cent precision used for every amount comparison
// during processing.
const amountPrecision = 2

type processingService struct {
	txnRepo     portsrepo.TransactionRepositoryFacade
	mileageRepo portsrepo.MileageRepositoryFacade
	cardRepo    portsrepo.CardRepositoryFacade
	companyRepo portsrepo.CompanyRepositoryFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	invoiceSvc  portssvc.InvoiceSvcFacade
	receipts    portssvc.ReceiptFetcher
}

// NewProcessingService creates the service driving draft records to done.
func NewProcessingService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	mileageRepo portsrepo.MileageRepositoryFacade,
	cardRepo portsrepo.CardRepositoryFacade,
	companyRepo portsrepo.CompanyRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	invoiceSvc portssvc.InvoiceSvcFacade,
	receipts portssvc.ReceiptFetcher,
) portssvc.ProcessingSvcFacade {
	return &processingService{
		txnRepo:     txnRepo,
		mileageRepo: mileageRepo,
		cardRepo:    cardRepo,
		companyRepo: companyRepo,
		ledgerSvc:   ledgerSvc,
		invoiceSvc:  invoiceSvc,
		receipts:    receipts,
	}
}

// ProcessTransactions drives each selected draft transaction through its
// full posting sequence. Records already done are skipped with a warning;
// any other failure aborts the batch so nothing is half-posted silently.
func (s *processingService) ProcessTransactions(ctx context.Context, transactionIDs []string, requestedBy string) (*portssvc.ProcessOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txns, err := s.txnRepo.FindTransactionsByIDs(ctx, transactionIDs)
	if err != nil {
		return nil, err
	}

	outcome := &portssvc.ProcessOutcome{}
	for i := range txns {
		txn := &txns[i]
		if err := s.processTransaction(ctx, txn, requestedBy, outcome); err != nil {
			if apperrors.IsFatal(err) {
				return nil, err
			}
			logger.Warn("skipping transaction",
				"transaction_id", txn.TransactionID, "name", txn.Name, "reason", err.Error())
			outcome.SkippedIDs = append(outcome.SkippedIDs, txn.TransactionID)
		}
	}
	return outcome, nil
}

// processTransaction drives one transaction to done. A non-fatal error means
// the record is skipped and the batch continues.
func (s *processingService) processTransaction(ctx context.Context, txn *domain.CardTransaction, requestedBy string, outcome *portssvc.ProcessOutcome) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if txn.State != domain.StateDraft {
		return apperrors.Skip("the transaction is in state '%s', only draft records can be processed", txn.State)
	}

	company, err := s.companyRepo.FindCompanyByID(ctx, txn.CompanyID)
	if err != nil {
		return err
	}

	bankEntry, err := s.postBankEntry(ctx, txn)
	if err != nil {
		return err
	}

	var invoiceID, reconcileID string
	if txn.TransactionType == domain.Expense && !txn.BankMoveOnly {
		var invoice *domain.Invoice
		if txn.InvoiceID != "" {
			invoice, err = s.checkExistingInvoice(ctx, txn, company)
		} else {
			invoice, err = s.generateInvoice(ctx, txn, company)
		}
		if err != nil {
			return err
		}
		invoiceID = invoice.InvoiceID
		if invoiceID != txn.InvoiceID {
			outcome.InvoiceIDs = append(outcome.InvoiceIDs, invoiceID)
		}

		reconcileID, err = s.reconcile(ctx, txn, bankEntry, invoice)
		if err != nil {
			return err
		}
	}

	err = s.txnRepo.MarkTransactionDone(
		ctx, txn.TransactionID, bankEntry.EntryID, invoiceID, reconcileID,
		requestedBy, time.Now().UTC())
	if err != nil {
		return err
	}
	outcome.ProcessedIDs = append(outcome.ProcessedIDs, txn.TransactionID)
	logger.Info("transaction processed",
		"transaction_id", txn.TransactionID, "name", txn.Name,
		"bank_entry_id", bankEntry.EntryID, "invoice_id", invoiceID)
	return nil
}

// postBankEntry posts the balanced two-line bank move of a transaction on
// the card's bank journal. Loads carry no partner on their lines.
func (s *processingService) postBankEntry(ctx context.Context, txn *domain.CardTransaction) (*domain.PostedEntry, error) {
	if txn.CardID == "" {
		return nil, apperrors.Validation("no card on transaction %s", txn.Name)
	}
	card, err := s.cardRepo.FindCardByID(ctx, txn.CardID)
	if err != nil {
		return nil, err
	}
	if card.JournalID == "" {
		return nil, apperrors.Configuration("bank journal not configured on payment card '%s'", card.Code)
	}
	journal, err := s.cardRepo.FindJournalByID(ctx, card.JournalID)
	if err != nil {
		return nil, err
	}
	if txn.BankCounterpartAccountID == "" {
		return nil, apperrors.Configuration("counterpart of bank move is empty on transaction %s", txn.Name)
	}

	partnerID := ""
	typeLabel := "Load"
	if txn.TransactionType == domain.Expense {
		partnerID = txn.PartnerID
		typeLabel = "Expense"
	}
	ref := fmt.Sprintf("%s (%s)", txn.Name, typeLabel)

	entry := accounting.BuildBankEntry(
		journal.JournalID, txn.Date, ref, txn.TotalAmount,
		journal.DefaultAccountID, txn.BankCounterpartAccountID, partnerID)
	return s.ledgerSvc.PostEntry(ctx, txn.CompanyID, entry)
}

// generateInvoice synthesizes, posts and sanity-checks the vendor invoice
// (or credit note, when the card was credited) of an expense transaction.
func (s *processingService) generateInvoice(ctx context.Context, txn *domain.CardTransaction, company *domain.Company) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if txn.ExpenseAccountID == "" {
		return nil, apperrors.Configuration("missing expense account on transaction %s", txn.Name)
	}
	if txn.Description == "" {
		return nil, apperrors.Validation("description is missing on transaction %s", txn.Name)
	}

	var taxes []domain.TaxLine
	if !txn.VATAmount.IsZero() {
		// VAT can only be deducted domestically. A foreign VAT amount
		// means the accountant must zero it before processing.
		if txn.CountryCode != "" && company.CountryCode != "" && txn.CountryCode != company.CountryCode {
			return nil, apperrors.Validation(
				"the transaction '%s' is associated with country '%s': VAT from this country cannot be refunded, its VAT amount should be updated to 0",
				txn.Name, txn.CountryCode)
		}
		if txn.VATAmount.Sign() != txn.TotalAmount.Sign() {
			return nil, apperrors.Validation(
				"the sign of the VAT amount (%s) should be the same as the sign of the total amount (%s)",
				txn.VATAmount.String(), txn.TotalAmount.String())
		}
		taxes = append(taxes, domain.TaxLine{Rate: txn.VATRate})
	}

	origin := txn.Name
	if txn.ReceiptNumber != "" {
		origin = fmt.Sprintf("%s (%s)", origin, txn.ReceiptNumber)
	}

	// Card debits arrive negative. The invoice side is flipped: a -59.90
	// debit with -9.98 VAT becomes an invoice of 59.90 with 49.92 untaxed.
	amountUntaxed := txn.TotalAmount.Neg().Sub(txn.VATAmount.Neg())
	priceUnit := amountUntaxed
	qty := decimal.NewFromInt(1)
	invType := domain.VendorInvoice
	if txn.TotalAmount.IsPositive() { // card was credited: vendor refund
		qty = qty.Neg()
		priceUnit = priceUnit.Neg()
		invType = domain.VendorRefund
	}

	payload := domain.InvoicePayload{
		CompanyID:     txn.CompanyID,
		PartnerID:     txn.PartnerID,
		Date:          txn.InvoiceDate(),
		DueDate:       txn.InvoiceDate(),
		CurrencyCode:  company.CurrencyCode,
		AmountTotal:   txn.TotalAmount.Neg(),
		AmountUntaxed: amountUntaxed,
		InvoiceNumber: txn.Name,
		Origin:        origin,
		Lines: []domain.InvoicePayloadLine{{
			Description:       txn.Description,
			PriceUnit:         priceUnit,
			Quantity:          qty,
			AccountID:         txn.ExpenseAccountID,
			AnalyticAccountID: txn.AnalyticAccountID,
			Taxes:             taxes,
			Origin:            origin,
		}},
	}

	attachment, err := s.fetchReceipt(ctx, txn)
	if err != nil {
		return nil, err
	}
	if attachment != nil {
		payload.Attachments = append(payload.Attachments, *attachment)
	}

	invoice, err := s.invoiceSvc.CreateAndPostInvoice(ctx, payload, invType)
	if err != nil {
		return nil, err
	}
	if !accounting.SameAmount(invoice.AmountTax, txn.VATAmount.Abs(), amountPrecision) {
		return nil, apperrors.Integrity(
			"posted invoice %s carries a tax amount of %s whereas the transaction VAT is %s",
			invoice.Number, invoice.AmountTax.String(), txn.VATAmount.Abs().String())
	}
	logger.Info("invoice created from card transaction",
		"transaction_id", txn.TransactionID, "invoice_id", invoice.InvoiceID, "type", string(invType))
	return invoice, nil
}

// fetchReceipt downloads and normalizes the receipt image. A transaction
// without image must be explicitly waived with the receipt-lost flag.
// Rotation failures are logged and ignored: a sideways receipt is still a
// receipt.
func (s *processingService) fetchReceipt(ctx context.Context, txn *domain.CardTransaction) (*domain.Attachment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if txn.ImageURL == "" {
		if txn.ReceiptLost {
			return nil, nil
		}
		return nil, apperrors.Validation(
			"missing image URL on transaction %s; if you lost that receipt, you can mark the transaction as 'Receipt Lost'",
			txn.Name)
	}

	data, ext, err := s.receipts.Fetch(ctx, txn.ImageURL)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		rotated, rerr := receiptimg.UprightJPEG(data)
		if rerr != nil {
			logger.Info("failed to rotate the receipt image", "transaction_id", txn.TransactionID, "error", rerr)
		} else {
			data = rotated
		}
	}
	return &domain.Attachment{
		Filename: fmt.Sprintf("Receipt-%s%s", txn.Name, ext),
		Data:     data,
	}, nil
}

// checkExistingInvoice validates a manually linked invoice before it is
// reconciled instead of generating a fresh one.
func (s *processingService) checkExistingInvoice(ctx context.Context, txn *domain.CardTransaction, company *domain.Company) (*domain.Invoice, error) {
	invoice, err := s.invoiceSvc.FindInvoiceByID(ctx, txn.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CurrencyCode != company.CurrencyCode {
		return nil, apperrors.Validation("linking to an invoice in another currency than the company currency is not supported")
	}
	if invoice.PaymentState != domain.InvoiceNotPaid {
		return nil, apperrors.Validation(
			"the transaction %s is linked to invoice %s which is not in unpaid state",
			txn.Name, invoice.Number)
	}
	if invoice.Type != domain.VendorInvoice && invoice.Type != domain.VendorRefund {
		return nil, apperrors.Validation(
			"the transaction %s is linked to invoice %s which is not a vendor invoice or refund",
			txn.Name, invoice.Number)
	}
	if invoice.CommercialPartnerID != txn.PartnerID {
		return nil, apperrors.Validation(
			"the transaction %s is linked to partner '%s' whereas the related invoice %s is linked to partner '%s'",
			txn.Name, txn.PartnerID, invoice.Number, invoice.CommercialPartnerID)
	}
	if !accounting.SameAmount(invoice.AmountTotalSigned, txn.TotalAmount, amountPrecision) {
		return nil, apperrors.Validation(
			"the transaction %s is linked to the invoice/refund %s whose total amount is %s, but the amount of the transaction is %s",
			txn.Name, invoice.Number, invoice.AmountTotalSigned.Neg().String(), txn.TotalAmount.String())
	}
	return invoice, nil
}

// reconcile links the counterpart line of the bank entry with the matching
// invoice lines on the same payable account.
func (s *processingService) reconcile(ctx context.Context, txn *domain.CardTransaction, bankEntry *domain.PostedEntry, invoice *domain.Invoice) (string, error) {
	bankLines := bankEntry.LinesOnAccount(txn.BankCounterpartAccountID)
	if len(bankLines) == 0 {
		return "", apperrors.Integrity(
			"bank entry %s has no line on the counterpart account of transaction %s",
			bankEntry.EntryID, txn.Name)
	}

	lineIDs := []string{bankLines[0].LineID}
	for _, line := range invoice.LinesOnAccount(txn.BankCounterpartAccountID) {
		lineIDs = append(lineIDs, line.LineID)
	}
	return s.ledgerSvc.Reconcile(ctx, txn.BankCounterpartAccountID, lineIDs)
}

// ProcessMileages groups the selected draft mileage records by employee and
// creates one aggregated vendor invoice per employee, dated at the latest
// trip of the group.
func (s *processingService) ProcessMileages(ctx context.Context, mileageIDs []string, requestedBy string) (*portssvc.ProcessOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	mileages, err := s.mileageRepo.FindMileagesByIDs(ctx, mileageIDs)
	if err != nil {
		return nil, err
	}

	outcome := &portssvc.ProcessOutcome{}
	groups := make(map[string][]domain.Mileage)
	var partnerOrder []string
	for _, m := range mileages {
		if err := mileageProcessable(m); err != nil {
			if apperrors.IsFatal(err) {
				return nil, err
			}
			logger.Warn("skipping mileage",
				"mileage_id", m.MileageID, "name", m.Name, "reason", err.Error())
			outcome.SkippedIDs = append(outcome.SkippedIDs, m.MileageID)
			continue
		}
		if _, seen := groups[m.PartnerID]; !seen {
			partnerOrder = append(partnerOrder, m.PartnerID)
		}
		groups[m.PartnerID] = append(groups[m.PartnerID], m)
	}

	now := time.Now().UTC()
	for _, partnerID := range partnerOrder {
		group := groups[partnerID]
		invoice, err := s.generateMileageInvoice(ctx, partnerID, group)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(group))
		for _, m := range group {
			ids = append(ids, m.MileageID)
		}
		if err := s.mileageRepo.LinkMileagesToInvoice(ctx, ids, invoice.InvoiceID, requestedBy, now); err != nil {
			return nil, err
		}
		outcome.ProcessedIDs = append(outcome.ProcessedIDs, ids...)
		outcome.InvoiceIDs = append(outcome.InvoiceIDs, invoice.InvoiceID)
		logger.Info("mileage invoice created",
			"partner_id", partnerID, "invoice_id", invoice.InvoiceID, "mileages", len(ids))
	}
	return outcome, nil
}

// mileageProcessable rejects with a recoverable skip any mileage record the
// batch must leave untouched.
func mileageProcessable(m domain.Mileage) error {
	if m.State() != domain.StateDraft {
		return apperrors.Skip("the mileage is already invoiced")
	}
	return nil
}

func (s *processingService) generateMileageInvoice(ctx context.Context, partnerID string, group []domain.Mileage) (*domain.Invoice, error) {
	company, err := s.companyRepo.FindCompanyByID(ctx, group[0].CompanyID)
	if err != nil {
		return nil, err
	}

	var invoiceDate time.Time
	total := decimal.Zero
	lines := make([]domain.InvoicePayloadLine, 0, len(group))
	for _, m := range group {
		if m.ExpenseAccountID == "" {
			return nil, apperrors.Configuration("missing expense account on mileage %s", m.Name)
		}
		if m.Date.After(invoiceDate) {
			invoiceDate = m.Date
		}
		amount := m.Amount()
		total = total.Add(amount)
		lines = append(lines, domain.InvoicePayloadLine{
			Description:       mileageLineDescription(m),
			PriceUnit:         amount,
			Quantity:          decimal.NewFromInt(1),
			AccountID:         m.ExpenseAccountID,
			AnalyticAccountID: m.AnalyticAccountID,
			Origin:            m.Name,
		})
	}

	payload := domain.InvoicePayload{
		CompanyID:     group[0].CompanyID,
		PartnerID:     partnerID,
		Date:          invoiceDate,
		DueDate:       invoiceDate,
		CurrencyCode:  company.CurrencyCode,
		AmountTotal:   total,
		AmountUntaxed: total,
		Origin:        "Mileage expenses",
		Lines:         lines,
	}
	return s.invoiceSvc.CreateAndPostInvoice(ctx, payload, domain.VendorInvoice)
}

// mileageLineDescription renders one invoice line label, e.g.
// "2019-10-08 Client visit: round trip Lyon <-> Paris 930 km (Clio AB-123-CD, 4 CV, 0.58/km)".
func mileageLineDescription(m domain.Mileage) string {
	arrow := "->"
	tripLabel := "one way"
	if m.TripType == domain.RoundTrip {
		arrow = "<->"
		tripLabel = "round trip"
	}
	return fmt.Sprintf("%s %s: %s %s %s %s %d km (%s %s, %s CV, %s/km)",
		m.Date.Format("2006-01-02"), m.Description,
		tripLabel, m.Departure, arrow, m.Arrival, m.KM,
		m.CarName, m.CarPlate, m.CarFiscalPower, m.PriceUnit.String())
}
