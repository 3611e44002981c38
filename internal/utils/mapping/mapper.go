// Package mapping converts between domain entities and database models.
// Domain types use the empty string for absent values; models use pointers
// so the database keeps real NULLs.
package mapping

import (
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	"github.com/kardo-hq/card_accounting_app/internal/models"
)

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ToDomainCompany(m models.Company) domain.Company {
	return domain.Company{
		CompanyID:         m.CompanyID,
		Name:              m.Name,
		CurrencyCode:      m.CurrencyCode,
		CountryCode:       m.CountryCode,
		TransferAccountID: deref(m.TransferAccountID),
		DefaultVATRate:    m.DefaultVATRate,
		APILogin:          deref(m.APILogin),
		APIPassword:       deref(m.APIPassword),
		APICompanyUUID:    deref(m.APICompanyUUID),
		AuditFields:       toDomainAudit(m.AuditFields),
	}
}

func ToDomainCard(m models.Card) domain.Card {
	return domain.Card{
		CardID:    m.CardID,
		Token:     m.Token,
		Code:      m.Code,
		CompanyID: m.CompanyID,
		UserID:    deref(m.UserID),
		JournalID: deref(m.JournalID),
		Active:    m.Active,
	}
}

func ToModelCard(d domain.Card) models.Card {
	return models.Card{
		CardID:    d.CardID,
		Token:     d.Token,
		Code:      d.Code,
		CompanyID: d.CompanyID,
		UserID:    ptr(d.UserID),
		JournalID: ptr(d.JournalID),
		Active:    d.Active,
	}
}

func ToDomainJournal(m models.Journal) domain.Journal {
	return domain.Journal{
		JournalID:        m.JournalID,
		CompanyID:        m.CompanyID,
		Name:             m.Name,
		DefaultAccountID: m.DefaultAccountID,
	}
}

func ToDomainPartner(m models.Partner) domain.Partner {
	return domain.Partner{
		PartnerID:        m.PartnerID,
		Name:             m.Name,
		ParentID:         deref(m.ParentID),
		Email:            deref(m.Email),
		PayableAccountID: deref(m.PayableAccountID),
	}
}

func ToDomainTransaction(m models.CardTransaction) domain.CardTransaction {
	return domain.CardTransaction{
		TransactionID:  m.TransactionID,
		Name:           m.Name,
		CompanyID:      m.CompanyID,
		UniqueImportID: m.UniqueImportID,

		TransactionType: domain.TransactionType(m.TransactionType),
		State:           domain.TransactionState(m.State),

		Date:             m.Date,
		PaymentDate:      m.PaymentDate,
		ForceInvoiceDate: m.ForceInvoiceDate,

		Description:     deref(m.Description),
		Vendor:          deref(m.Vendor),
		PartnerID:       deref(m.PartnerID),
		CountryCode:     deref(m.CountryCode),
		ExpenseCategory: deref(m.ExpenseCategory),

		CardID:            deref(m.CardID),
		ExpenseAccountID:  deref(m.ExpenseAccountID),
		AnalyticAccountID: deref(m.AnalyticAccountID),

		VATAmount:       m.VATAmount,
		VATRate:         m.VATRate,
		Autoliquidation: domain.Autoliquidation(deref(m.Autoliquidation)),

		TotalAmount:   m.TotalAmount,
		CurrencyCode:  deref(m.CurrencyCode),
		TotalCurrency: m.TotalCurrency,

		ImageURL:      deref(m.ImageURL),
		ReceiptLost:   m.ReceiptLost,
		ReceiptNumber: deref(m.ReceiptNumber),
		BankMoveOnly:  m.BankMoveOnly,

		BankCounterpartAccountID: deref(m.BankCounterpartAccountID),
		BankEntryID:              deref(m.BankEntryID),
		InvoiceID:                deref(m.InvoiceID),
		ReconcileID:              deref(m.ReconcileID),

		AuditFields: toDomainAudit(m.AuditFields),
	}
}

func ToModelTransaction(d domain.CardTransaction) models.CardTransaction {
	return models.CardTransaction{
		TransactionID:  d.TransactionID,
		Name:           d.Name,
		CompanyID:      d.CompanyID,
		UniqueImportID: d.UniqueImportID,

		TransactionType: string(d.TransactionType),
		State:           string(d.State),

		Date:             d.Date,
		PaymentDate:      d.PaymentDate,
		ForceInvoiceDate: d.ForceInvoiceDate,

		Description:     ptr(d.Description),
		Vendor:          ptr(d.Vendor),
		PartnerID:       ptr(d.PartnerID),
		CountryCode:     ptr(d.CountryCode),
		ExpenseCategory: ptr(d.ExpenseCategory),

		CardID:            ptr(d.CardID),
		ExpenseAccountID:  ptr(d.ExpenseAccountID),
		AnalyticAccountID: ptr(d.AnalyticAccountID),

		VATAmount:       d.VATAmount,
		VATRate:         d.VATRate,
		Autoliquidation: ptr(string(d.Autoliquidation)),

		TotalAmount:   d.TotalAmount,
		CurrencyCode:  ptr(d.CurrencyCode),
		TotalCurrency: d.TotalCurrency,

		ImageURL:      ptr(d.ImageURL),
		ReceiptLost:   d.ReceiptLost,
		ReceiptNumber: ptr(d.ReceiptNumber),
		BankMoveOnly:  d.BankMoveOnly,

		BankCounterpartAccountID: ptr(d.BankCounterpartAccountID),
		BankEntryID:              ptr(d.BankEntryID),
		InvoiceID:                ptr(d.InvoiceID),
		ReconcileID:              ptr(d.ReconcileID),

		AuditFields: toModelAudit(d.AuditFields),
	}
}

func ToDomainMileage(m models.Mileage) domain.Mileage {
	return domain.Mileage{
		MileageID:      m.MileageID,
		Name:           m.Name,
		CompanyID:      m.CompanyID,
		UniqueImportID: m.UniqueImportID,

		PartnerID:   m.PartnerID,
		Date:        m.Date,
		Description: deref(m.Description),
		Departure:   deref(m.Departure),
		Arrival:     deref(m.Arrival),
		TripType:    domain.TripType(deref(m.TripType)),

		KM:        m.KM,
		PriceUnit: m.PriceUnit,

		CarName:        deref(m.CarName),
		CarPlate:       deref(m.CarPlate),
		CarFiscalPower: deref(m.CarFiscalPower),

		ExpenseAccountID:  deref(m.ExpenseAccountID),
		AnalyticAccountID: deref(m.AnalyticAccountID),

		InvoiceID: deref(m.InvoiceID),

		AuditFields: toDomainAudit(m.AuditFields),
	}
}

func ToModelMileage(d domain.Mileage) models.Mileage {
	return models.Mileage{
		MileageID:      d.MileageID,
		Name:           d.Name,
		CompanyID:      d.CompanyID,
		UniqueImportID: d.UniqueImportID,

		PartnerID:   d.PartnerID,
		Date:        d.Date,
		Description: ptr(d.Description),
		Departure:   ptr(d.Departure),
		Arrival:     ptr(d.Arrival),
		TripType:    ptr(string(d.TripType)),

		KM:        d.KM,
		PriceUnit: d.PriceUnit,

		CarName:        ptr(d.CarName),
		CarPlate:       ptr(d.CarPlate),
		CarFiscalPower: ptr(d.CarFiscalPower),

		ExpenseAccountID:  ptr(d.ExpenseAccountID),
		AnalyticAccountID: ptr(d.AnalyticAccountID),

		InvoiceID: ptr(d.InvoiceID),

		AuditFields: toModelAudit(d.AuditFields),
	}
}

func ToDomainInvoice(m models.Invoice, lines []models.LedgerLine) domain.Invoice {
	inv := domain.Invoice{
		InvoiceID:           m.InvoiceID,
		Number:              m.Number,
		Type:                domain.InvoiceType(m.Type),
		PaymentState:        domain.InvoicePaymentState(m.PaymentState),
		CommercialPartnerID: m.CommercialPartnerID,
		CurrencyCode:        m.CurrencyCode,
		AmountTotalSigned:   m.AmountTotalSigned,
		AmountTax:           m.AmountTax,
		AuditFields:         toDomainAudit(m.AuditFields),
	}
	for _, l := range lines {
		inv.LedgerLines = append(inv.LedgerLines, ToDomainEntryLine(l))
	}
	return inv
}

func ToDomainEntryLine(m models.LedgerLine) domain.EntryLine {
	return domain.EntryLine{
		LineID:    m.LineID,
		AccountID: m.AccountID,
		Debit:     m.Debit,
		Credit:    m.Credit,
		PartnerID: deref(m.PartnerID),
		Label:     deref(m.Label),
	}
}

func toDomainAudit(a models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}

func toModelAudit(a domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     a.CreatedAt,
		CreatedBy:     a.CreatedBy,
		LastUpdatedAt: a.LastUpdatedAt,
		LastUpdatedBy: a.LastUpdatedBy,
	}
}
