package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/shopspring/decimal"
)

type invoiceService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	refRepo    portsrepo.ReferenceRepositoryFacade
}

// NewInvoiceService creates the invoicing collaborator backed by local
// storage.
func NewInvoiceService(ledgerRepo portsrepo.LedgerRepositoryFacade, refRepo portsrepo.ReferenceRepositoryFacade) portssvc.InvoiceSvcFacade {
	return &invoiceService{ledgerRepo: ledgerRepo, refRepo: refRepo}
}

// CreateAndPostInvoice builds the ledger view of a vendor invoice or credit
// note from a normalized payload, posts it and persists it. The tax amount
// is derived from the percentage tax lines, so a payload whose explicit
// amounts disagree with its tax rates fails the caller's cross-check rather
// than being silently absorbed.
func (s *invoiceService) CreateAndPostInvoice(ctx context.Context, payload domain.InvoicePayload, invType domain.InvoiceType) (*domain.Invoice, error) {
	if len(payload.Lines) == 0 {
		return nil, apperrors.Validation("an invoice needs at least one line")
	}
	if payload.PartnerID == "" {
		return nil, apperrors.Validation("an invoice needs a partner")
	}

	partner, err := s.refRepo.FindPartnerByID(ctx, payload.PartnerID)
	if err != nil {
		return nil, err
	}
	payableAccountID := partner.PayableAccountID
	if payableAccountID == "" {
		defaultPartner, err := s.refRepo.FindDefaultPartner(ctx)
		if err != nil {
			return nil, err
		}
		payableAccountID = defaultPartner.PayableAccountID
	}
	if payableAccountID == "" {
		return nil, apperrors.Configuration("no payable account found for partner '%s'", partner.Name)
	}

	amountTax := decimal.Zero
	var lines []domain.EntryLine
	for _, pl := range payload.Lines {
		amount := pl.PriceUnit.Mul(pl.Quantity)
		lines = append(lines, signedLine(pl.AccountID, payload.PartnerID, pl.Description, amount))
		for _, tax := range pl.Taxes {
			taxAmount := amount.Mul(tax.Rate).Div(decimal.NewFromInt(100)).Round(2)
			amountTax = amountTax.Add(taxAmount)
			lines = append(lines, signedLine(
				pl.AccountID, payload.PartnerID,
				fmt.Sprintf("VAT %s%%", tax.Rate.String()), taxAmount))
		}
	}

	// The payable counterpart mirrors the sum of the expense and tax lines.
	amountTotalSigned := payload.AmountTotal.Neg()
	lines = append(lines, signedLine(
		payableAccountID, payload.PartnerID, invoiceLabel(payload, invType), amountTotalSigned))

	invoice := domain.Invoice{
		InvoiceID:           uuid.New().String(),
		Number:              invoiceNumber(payload),
		Type:                invType,
		PaymentState:        domain.InvoiceNotPaid,
		CommercialPartnerID: payload.PartnerID,
		CurrencyCode:        payload.CurrencyCode,
		AmountTotalSigned:   amountTotalSigned,
		AmountTax:           amountTax.Abs(),
		LedgerLines:         lines,
		Attachments:         payload.Attachments,
	}
	for i := range invoice.LedgerLines {
		invoice.LedgerLines[i].LineID = uuid.New().String()
	}
	invoice.CreatedAt = time.Now().UTC()
	invoice.LastUpdatedAt = invoice.CreatedAt

	if err := s.ledgerRepo.SaveInvoice(ctx, invoice, payload.CompanyID); err != nil {
		return nil, err
	}
	middleware.GetLoggerFromCtx(ctx).Debug("invoice posted",
		"invoice_id", invoice.InvoiceID, "number", invoice.Number,
		"type", string(invType), "total_signed", amountTotalSigned.String())
	return &invoice, nil
}

func (s *invoiceService) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.ledgerRepo.FindInvoiceByID(ctx, invoiceID)
}

// signedLine places a signed amount on the debit or credit side.
func signedLine(accountID, partnerID, label string, amount decimal.Decimal) domain.EntryLine {
	line := domain.EntryLine{
		AccountID: accountID,
		PartnerID: partnerID,
		Label:     label,
	}
	if amount.IsNegative() {
		line.Credit = amount.Neg()
	} else {
		line.Debit = amount
	}
	return line
}

func invoiceLabel(payload domain.InvoicePayload, invType domain.InvoiceType) string {
	if invType == domain.VendorRefund {
		return fmt.Sprintf("Vendor refund %s", payload.Origin)
	}
	return fmt.Sprintf("Vendor invoice %s", payload.Origin)
}

// invoiceNumber derives the stored reference: the external number when the
// payload carries one, otherwise a generated one.
func invoiceNumber(payload domain.InvoicePayload) string {
	if payload.InvoiceNumber != "" {
		return payload.InvoiceNumber
	}
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}
