package services

import (
	"context"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/adapters/provider"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"github.com/kardo-hq/card_accounting_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// syncActor is the audit identity stamped on records written by the
// incremental API sync.
const syncActor = "provider-sync"

// amountComparePrecision is the decimal precision used when cross-checking
// the movement amount against the correlated expense amount.
const amountComparePrecision = 2

// ProviderAPI is the surface of the provider REST client consumed by the
// sync driver.
type ProviderAPI interface {
	ListExpenseCategories(ctx context.Context, page int) ([]provider.ExpenseCategory, error)
	ListAccounts(ctx context.Context) ([]provider.Account, error)
	ListAccountMovements(ctx context.Context, accountID string, page int) ([]provider.AccountMovement, error)
	ListExpenses(ctx context.Context, sourceType string, page int) ([]provider.Expense, error)
	GetReceipt(ctx context.Context, receiptID string) (*provider.Receipt, error)
	GetSupplier(ctx context.Context, supplierID string) (*provider.Supplier, error)
	ListUserProfiles(ctx context.Context, page int) ([]provider.UserProfile, error)
}

// ProviderClientFactory builds an authenticated client from per-company
// credentials.
type ProviderClientFactory func(creds provider.Credentials) ProviderAPI

type syncService struct {
	companyRepo portsrepo.CompanyRepositoryFacade
	cardRepo    portsrepo.CardRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	mileageRepo portsrepo.MileageRepositoryFacade
	refIndexSvc portssvc.RefIndexSvcFacade
	newClient   ProviderClientFactory

	oauthID     string
	oauthSecret string
	matchMode   domain.PartnerMatchMode
}

// NewSyncService creates the incremental provider-API sync driver. The OAuth
// application identifiers are deployment-level configuration shared by all
// companies; the per-company login, password and UUID come from storage.
func NewSyncService(
	companyRepo portsrepo.CompanyRepositoryFacade,
	cardRepo portsrepo.CardRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	mileageRepo portsrepo.MileageRepositoryFacade,
	refIndexSvc portssvc.RefIndexSvcFacade,
	newClient ProviderClientFactory,
	oauthID, oauthSecret string,
	matchMode domain.PartnerMatchMode,
) portssvc.SyncSvcFacade {
	return &syncService{
		companyRepo: companyRepo,
		cardRepo:    cardRepo,
		txnRepo:     txnRepo,
		mileageRepo: mileageRepo,
		refIndexSvc: refIndexSvc,
		newClient:   newClient,
		oauthID:     oauthID,
		oauthSecret: oauthSecret,
		matchMode:   matchMode,
	}
}

func (s *syncService) SyncCompany(ctx context.Context, companyID string) (*portssvc.ImportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if s.oauthID == "" || s.oauthSecret == "" {
		return nil, apperrors.Configuration("missing provider OAuth application identifiers in the server configuration")
	}
	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.HasAPICredentials() {
		return nil, apperrors.Configuration("missing provider API parameters on company %s", company.Name)
	}

	idx, err := s.refIndexSvc.BuildIndex(ctx, companyID)
	if err != nil {
		return nil, err
	}

	client := s.newClient(provider.Credentials{
		OAuthID:     s.oauthID,
		OAuthSecret: s.oauthSecret,
		Login:       company.APILogin,
		Password:    company.APIPassword,
		CompanyUUID: company.APICompanyUUID,
	})

	logger.Info("starting provider API sync", "company_id", companyID)

	if err := s.loadExpenseCategories(ctx, client, idx); err != nil {
		return nil, err
	}

	result := &portssvc.ImportResult{}
	if err := s.syncTransactions(ctx, client, idx, result); err != nil {
		return nil, err
	}
	if err := s.syncMileages(ctx, client, idx, result); err != nil {
		return nil, err
	}

	logger.Info("provider API sync finished",
		"company_id", companyID,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// SyncAllCompanies runs the sync for every company with complete API
// credentials. One company failing never blocks the others: the scheduler
// must make progress on healthy companies even when one has stale
// credentials or bad data.
func (s *syncService) SyncAllCompanies(ctx context.Context) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	companies, err := s.companyRepo.ListCompaniesWithAPICredentials(ctx)
	if err != nil {
		return err
	}
	logger.Info("starting provider API sync for all companies", "companies", len(companies))
	for _, company := range companies {
		if _, err := s.SyncCompany(ctx, company.CompanyID); err != nil {
			logger.Error("provider API sync failed for company",
				"company_id", company.CompanyID, "company", company.Name, "error", err)
		}
	}
	return nil
}

// loadExpenseCategories walks the category collection and indexes every
// category carrying an external account code.
func (s *syncService) loadExpenseCategories(ctx context.Context, client ProviderAPI, idx *domain.ReferenceIndex) error {
	idx.ExpenseCategories = make(map[string]domain.ExpenseCategory)
	page := 1
	for ; page < provider.MaxPage; page++ {
		categories, err := client.ListExpenseCategories(ctx, page)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return nil
		}
		for _, categ := range categories {
			if categ.ChargeAccount != "" {
				idx.ExpenseCategories[categ.ID] = domain.ExpenseCategory{
					Code: categ.ChargeAccount,
					Name: categ.Name,
				}
			}
		}
	}
	return apperrors.Integrity("expense category pagination never terminated after %d pages", page)
}

// pendingMovement is an expense-settlement movement awaiting its expense
// details, keyed by correlation link.
type pendingMovement struct {
	record     RawRecord
	existingID string
}

func (s *syncService) syncTransactions(ctx context.Context, client ProviderAPI, idx *domain.ReferenceIndex, result *portssvc.ImportResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) != 1 {
		return apperrors.Integrity("the provider reported %d accounts, exactly one is supported", len(accounts))
	}
	account := accounts[0]
	if account.Currency != idx.CompanyCurrency {
		return apperrors.Integrity(
			"the currency of the provider account is %s whereas the company currency is %s",
			account.Currency, idx.CompanyCurrency)
	}

	existing, err := s.txnRepo.ImportedStatesByCompany(ctx, idx.CompanyID)
	if err != nil {
		return err
	}

	expenseNeeded := make(map[string]pendingMovement)
	page := 1
	for ; page < provider.MaxPage; page++ {
		movements, err := client.ListAccountMovements(ctx, account.ID, page)
		if err != nil {
			return err
		}
		if len(movements) == 0 {
			break
		}

		doneCount := 0
		for _, movement := range movements {
			record := RawRecord{
				"id":               movement.ID,
				"transaction_type": movement.TransactionType,
				"card_token":       movement.Token.String(),
				"amount_eur":       movement.ChangeReal.String(),
				"date_transaction": movement.TransactionDate,
			}
			prior, known := existing[movement.ID]
			if known && prior.State == domain.StateDone {
				doneCount++
				result.Skipped++
				continue
			}

			switch movement.TransactionType {
			case "P":
				pending := pendingMovement{record: record}
				if known {
					pending.existingID = prior.ID
				}
				expenseNeeded[movement.TransactionLink] = pending
			case "L":
				if err := s.upsertTransaction(ctx, idx, record, priorID(known, prior), result); err != nil {
					return err
				}
			default:
				logger.Debug("skipping movement with non-actionable type",
					"movement_id", movement.ID, "transaction_type", movement.TransactionType)
			}
		}

		if doneCount == len(movements) {
			logger.Info("stopping movement walk on a page fully done locally", "page", page)
			break
		}
	}
	if page >= provider.MaxPage {
		return apperrors.Integrity("account movement pagination never terminated after %d pages", page)
	}

	if len(expenseNeeded) == 0 {
		return nil
	}

	page = 1
	for ; page < provider.MaxPage; page++ {
		expenses, err := client.ListExpenses(ctx, "CardExpense", page)
		if err != nil {
			return err
		}
		if len(expenses) == 0 {
			break
		}
		for _, expense := range expenses {
			if expense.Source == nil || expense.Source.TransactionLink == "" {
				continue
			}
			pending, ok := expenseNeeded[expense.Source.TransactionLink]
			if !ok {
				continue
			}
			delete(expenseNeeded, expense.Source.TransactionLink)

			if err := s.mergeExpense(ctx, client, idx, pending.record, expense); err != nil {
				return err
			}
			if err := s.upsertTransaction(ctx, idx, pending.record, pending.existingID, result); err != nil {
				return err
			}
		}
		if len(expenseNeeded) == 0 {
			break
		}
	}
	if page >= provider.MaxPage {
		return apperrors.Integrity("expense pagination never terminated after %d pages", page)
	}
	if len(expenseNeeded) > 0 {
		logger.Warn("movements without matching expense left unimported", "count", len(expenseNeeded))
	}
	return nil
}

// mergeExpense enriches a movement record with the correlated expense
// details, cross-checking the settled amount first.
func (s *syncService) mergeExpense(ctx context.Context, client ProviderAPI, idx *domain.ReferenceIndex, record RawRecord, expense provider.Expense) error {
	expenseAmount, err := decimal.NewFromString(expense.Amount.String())
	if err != nil {
		return apperrors.MalformedInput("cannot convert numeric field 'amount' with value '%s'", expense.Amount.String())
	}
	movementAmount, err := decimal.NewFromString(record.Get("amount_eur"))
	if err != nil {
		return apperrors.MalformedInput("cannot convert numeric field 'amount_eur' with value '%s'", record.Get("amount_eur"))
	}
	if !accounting.SameAmount(expenseAmount, movementAmount, amountComparePrecision) {
		return apperrors.Integrity(
			"there is a difference between the amount of the statement line (%s) and the amount of the expense (%s)",
			movementAmount.String(), expenseAmount.String())
	}

	if expense.ExpenseCategoryID != "" {
		categ, ok := idx.ExpenseCategories[expense.ExpenseCategoryID]
		if !ok {
			return apperrors.Integrity("the expense category UUID %s is unknown", expense.ExpenseCategoryID)
		}
		record["expense_category_name"] = categ.Name
		record["charge_account"] = categ.Code
	}

	vatEUR := decimal.Zero
	bucketSums := map[string]decimal.Decimal{}
	for _, vatLine := range expense.VATs {
		if alpha3ToAlpha2(vatLine.Country) != idx.CompanyCountry {
			continue
		}
		amount, err := decimal.NewFromString(vatLine.Amount.String())
		if err != nil {
			return apperrors.MalformedInput("cannot convert numeric field 'amount' on a VAT line with value '%s'", vatLine.Amount.String())
		}
		vatEUR = vatEUR.Add(amount)
		lineRate, err := decimal.NewFromString(vatLine.Rate)
		if err != nil {
			continue
		}
		for _, bucket := range vatBuckets {
			if lineRate.Equal(bucket.rate) {
				bucketSums[bucket.field] = bucketSums[bucket.field].Add(amount)
				break
			}
		}
	}
	record["vat_eur"] = vatEUR.String()
	for _, bucket := range vatBuckets {
		record[bucket.field] = bucketSums[bucket.field].String()
	}

	if expense.ReceiptID != "" {
		receipt, err := client.GetReceipt(ctx, expense.ReceiptID)
		if err != nil {
			return err
		}
		record["attachment"] = receipt.URL
	}
	if expense.SupplierID != "" {
		supplier, err := client.GetSupplier(ctx, expense.SupplierID)
		if err != nil {
			return err
		}
		record["supplier"] = supplier.Name
	}

	record["title"] = expense.Title
	record["country_code"] = expense.InvoiceCountry
	record["date_authorization"] = expense.At
	record["receipt_code"] = expense.ReceiptCode
	record["original_currency"] = expense.Currency
	record["amount_currency"] = expense.AmountCurrency.String()
	return nil
}

// upsertTransaction normalizes and persists one movement record, creating
// unknown cards on the fly: the API feed is authoritative for the card
// fleet, unlike CSV files typed in by hand.
func (s *syncService) upsertTransaction(ctx context.Context, idx *domain.ReferenceIndex, record RawRecord, existingID string, result *portssvc.ImportResult) error {
	mode := ModeCreate
	if existingID != "" {
		mode = ModeUpdate
	}
	vals, err := NormalizeTransaction(record, idx, NormalizeOptions{
		Mode:      mode,
		Source:    SourceAPI,
		MatchMode: s.matchMode,
	})
	if err != nil {
		return err
	}
	if vals.NewCardToken != "" {
		card, err := s.cardRepo.CreateCard(ctx, domain.Card{
			Token:     vals.NewCardToken,
			CompanyID: idx.CompanyID,
			Active:    true,
		})
		if err != nil {
			return err
		}
		idx.Tokens[vals.NewCardToken] = card.CardID
		vals.CardID = card.CardID
		middleware.GetLoggerFromCtx(ctx).Info("auto-created card for first-seen token",
			"card_id", card.CardID, "token", vals.NewCardToken)
	}

	now := time.Now().UTC()
	if existingID != "" {
		txn, err := s.txnRepo.FindTransactionByID(ctx, existingID)
		if err != nil {
			return err
		}
		applyTransactionValues(txn, vals, ModeUpdate)
		txn.LastUpdatedBy = syncActor
		txn.LastUpdatedAt = now
		if err := s.txnRepo.UpdateDraftTransaction(ctx, *txn); err != nil {
			return err
		}
		result.TransactionIDs = append(result.TransactionIDs, txn.TransactionID)
		result.Updated++
		return nil
	}

	txn := &domain.CardTransaction{
		CompanyID: idx.CompanyID,
		State:     domain.StateDraft,
	}
	applyTransactionValues(txn, vals, ModeCreate)
	txn.CreatedBy = syncActor
	txn.CreatedAt = now
	txn.LastUpdatedBy = syncActor
	txn.LastUpdatedAt = now
	created, err := s.txnRepo.CreateTransaction(ctx, *txn)
	if err != nil {
		return err
	}
	result.TransactionIDs = append(result.TransactionIDs, created.TransactionID)
	result.Created++
	return nil
}

func (s *syncService) syncMileages(ctx context.Context, client ProviderAPI, idx *domain.ReferenceIndex, result *portssvc.ImportResult) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	idx.UserEmails = make(map[string]string)
	page := 1
	for ; page < provider.MaxPage; page++ {
		users, err := client.ListUserProfiles(ctx, page)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			break
		}
		for _, user := range users {
			if user.Email != "" {
				idx.UserEmails[user.ID] = user.Email
			}
		}
	}
	if page >= provider.MaxPage {
		return apperrors.Integrity("user profile pagination never terminated after %d pages", page)
	}

	existing, err := s.mileageRepo.ImportedStatesByCompany(ctx, idx.CompanyID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	page = 1
	for ; page < provider.MaxPage; page++ {
		expenses, err := client.ListExpenses(ctx, "KmExpense", page)
		if err != nil {
			return err
		}
		if len(expenses) == 0 {
			break
		}

		doneCount := 0
		for _, expense := range expenses {
			prior, known := existing[expense.ID]
			if known && prior.State == domain.StateDone {
				doneCount++
				result.Skipped++
				continue
			}
			if expense.Source == nil {
				return apperrors.Integrity("mileage expense %s has no source block", expense.ID)
			}

			record := RawRecord{
				"id":                  expense.ID,
				"title":               expense.Title,
				"at":                  expense.At,
				"amount":              expense.Amount.String(),
				"currency":            expense.Currency,
				"expense_category_id": expense.ExpenseCategoryID,
				"user_profile_id":     expense.UserProfileID,
				"distance":            expense.Source.Distance.String(),
				"distance_type":       expense.Source.DistanceType,
				"start_point":         expense.Source.StartPoint,
				"end_point":           expense.Source.EndPoint,
			}

			mode := ModeCreate
			if known {
				mode = ModeUpdate
			}
			vals, err := NormalizeMileageAPI(record, idx, NormalizeOptions{
				Mode:      mode,
				Source:    SourceAPI,
				MatchMode: s.matchMode,
			})
			if err != nil {
				return err
			}

			if known {
				m, err := s.mileageRepo.FindMileageByID(ctx, prior.ID)
				if err != nil {
					return err
				}
				applyMileageValues(m, vals, ModeUpdate)
				m.LastUpdatedBy = syncActor
				m.LastUpdatedAt = now
				if err := s.mileageRepo.UpdateDraftMileage(ctx, *m); err != nil {
					return err
				}
				result.MileageIDs = append(result.MileageIDs, m.MileageID)
				result.Updated++
				continue
			}

			m := &domain.Mileage{CompanyID: idx.CompanyID}
			applyMileageValues(m, vals, ModeCreate)
			m.CreatedBy = syncActor
			m.CreatedAt = now
			m.LastUpdatedBy = syncActor
			m.LastUpdatedAt = now
			created, err := s.mileageRepo.CreateMileage(ctx, *m)
			if err != nil {
				return err
			}
			result.MileageIDs = append(result.MileageIDs, created.MileageID)
			result.Created++
		}

		if doneCount == len(expenses) {
			logger.Info("stopping mileage walk on a page fully done locally", "page", page)
			break
		}
	}
	if page >= provider.MaxPage {
		return apperrors.Integrity("mileage expense pagination never terminated after %d pages", page)
	}
	return nil
}

func priorID(known bool, prior portsrepo.ImportedState) string {
	if known {
		return prior.ID
	}
	return ""
}
