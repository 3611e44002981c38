package services_test

import (
	"context"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/adapters/provider"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/core/services"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock implementation of TransactionRepositoryFacade.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.CardTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionsByIDs(ctx context.Context, transactionIDs []string) ([]domain.CardTransaction, error) {
	args := m.Called(ctx, transactionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CardTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.CardTransaction, *string, error) {
	args := m.Called(ctx, companyID, limit, nextToken)
	var txns []domain.CardTransaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.CardTransaction)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return txns, token, args.Error(2)
}

func (m *MockTransactionRepository) ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]portsrepo.ImportedState, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]portsrepo.ImportedState), args.Error(1)
}

func (m *MockTransactionRepository) DoneVendorAssignments(ctx context.Context, companyID string, defaultPartnerID string) ([]domain.PartnerNameEntry, error) {
	args := m.Called(ctx, companyID, defaultPartnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PartnerNameEntry), args.Error(1)
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, txn domain.CardTransaction) (*domain.CardTransaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardTransaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateDraftTransaction(ctx context.Context, txn domain.CardTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkTransactionDone(ctx context.Context, transactionID, bankEntryID, invoiceID, reconcileID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, transactionID, bankEntryID, invoiceID, reconcileID, updatedBy, updatedAt)
	return args.Error(0)
}

// MockMileageRepository is a mock implementation of MileageRepositoryFacade.
type MockMileageRepository struct {
	mock.Mock
}

func (m *MockMileageRepository) FindMileageByID(ctx context.Context, mileageID string) (*domain.Mileage, error) {
	args := m.Called(ctx, mileageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mileage), args.Error(1)
}

func (m *MockMileageRepository) FindMileagesByIDs(ctx context.Context, mileageIDs []string) ([]domain.Mileage, error) {
	args := m.Called(ctx, mileageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mileage), args.Error(1)
}

func (m *MockMileageRepository) ListMileagesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Mileage, *string, error) {
	args := m.Called(ctx, companyID, limit, nextToken)
	var mileages []domain.Mileage
	if args.Get(0) != nil {
		mileages = args.Get(0).([]domain.Mileage)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return mileages, token, args.Error(2)
}

func (m *MockMileageRepository) ImportedStatesByCompany(ctx context.Context, companyID string) (map[string]portsrepo.ImportedState, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]portsrepo.ImportedState), args.Error(1)
}

func (m *MockMileageRepository) CreateMileage(ctx context.Context, mileage domain.Mileage) (*domain.Mileage, error) {
	args := m.Called(ctx, mileage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mileage), args.Error(1)
}

func (m *MockMileageRepository) UpdateDraftMileage(ctx context.Context, mileage domain.Mileage) error {
	args := m.Called(ctx, mileage)
	return args.Error(0)
}

func (m *MockMileageRepository) LinkMileagesToInvoice(ctx context.Context, mileageIDs []string, invoiceID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, mileageIDs, invoiceID, updatedBy, updatedAt)
	return args.Error(0)
}

// MockCardRepository is a mock implementation of CardRepositoryFacade.
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) ListCardsByCompany(ctx context.Context, companyID string) ([]domain.Card, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockCardRepository) FindCardByID(ctx context.Context, cardID string) (*domain.Card, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error) {
	args := m.Called(ctx, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) ListAccountMappingsByCompany(ctx context.Context, companyID string) ([]domain.AccountMapping, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountMapping), args.Error(1)
}

func (m *MockCardRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

// MockCompanyRepository is a mock implementation of CompanyRepositoryFacade.
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyRepository) ListCompaniesWithAPICredentials(ctx context.Context) ([]domain.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Company), args.Error(1)
}

// MockReferenceRepository is a mock implementation of ReferenceRepositoryFacade.
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) ListLedgerAccountsByCompany(ctx context.Context, companyID string) ([]domain.LedgerAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAccount), args.Error(1)
}

func (m *MockReferenceRepository) ListAnalyticAccountsByCompany(ctx context.Context, companyID string) ([]domain.AnalyticAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalyticAccount), args.Error(1)
}

func (m *MockReferenceRepository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Country), args.Error(1)
}

func (m *MockReferenceRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockReferenceRepository) ListTopLevelPartners(ctx context.Context) ([]domain.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Partner), args.Error(1)
}

func (m *MockReferenceRepository) ListPartnersWithEmail(ctx context.Context) ([]domain.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Partner), args.Error(1)
}

func (m *MockReferenceRepository) FindPartnerByID(ctx context.Context, partnerID string) (*domain.Partner, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *MockReferenceRepository) FindDefaultPartner(ctx context.Context) (*domain.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepositoryFacade.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) SaveEntry(ctx context.Context, entry domain.PostedEntry, journalID string, companyID string) error {
	args := m.Called(ctx, entry, journalID, companyID)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice, companyID string) error {
	args := m.Called(ctx, invoice, companyID)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockLedgerRepository) SaveReconciliation(ctx context.Context, accountID string, lineIDs []string) (string, error) {
	args := m.Called(ctx, accountID, lineIDs)
	return args.String(0), args.Error(1)
}

// MockRefIndexService is a mock implementation of RefIndexSvcFacade.
type MockRefIndexService struct {
	mock.Mock
}

func (m *MockRefIndexService) BuildIndex(ctx context.Context, companyID string) (*domain.ReferenceIndex, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferenceIndex), args.Error(1)
}

// MockLedgerService is a mock implementation of LedgerSvcFacade.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostEntry(ctx context.Context, companyID string, entry domain.LedgerEntry) (*domain.PostedEntry, error) {
	args := m.Called(ctx, companyID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostedEntry), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, accountID string, lineIDs []string) (string, error) {
	args := m.Called(ctx, accountID, lineIDs)
	return args.String(0), args.Error(1)
}

// MockInvoiceService is a mock implementation of InvoiceSvcFacade.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateAndPostInvoice(ctx context.Context, payload domain.InvoicePayload, invType domain.InvoiceType) (*domain.Invoice, error) {
	args := m.Called(ctx, payload, invType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

// MockReceiptFetcher is a mock implementation of ReceiptFetcher.
type MockReceiptFetcher struct {
	mock.Mock
}

func (m *MockReceiptFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.String(1), args.Error(2)
}

// MockProviderAPI is a mock implementation of the provider REST client.
type MockProviderAPI struct {
	mock.Mock
}

func (m *MockProviderAPI) ListExpenseCategories(ctx context.Context, page int) ([]provider.ExpenseCategory, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ExpenseCategory), args.Error(1)
}

func (m *MockProviderAPI) ListAccounts(ctx context.Context) ([]provider.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Account), args.Error(1)
}

func (m *MockProviderAPI) ListAccountMovements(ctx context.Context, accountID string, page int) ([]provider.AccountMovement, error) {
	args := m.Called(ctx, accountID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.AccountMovement), args.Error(1)
}

func (m *MockProviderAPI) ListExpenses(ctx context.Context, sourceType string, page int) ([]provider.Expense, error) {
	args := m.Called(ctx, sourceType, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Expense), args.Error(1)
}

func (m *MockProviderAPI) GetReceipt(ctx context.Context, receiptID string) (*provider.Receipt, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Receipt), args.Error(1)
}

func (m *MockProviderAPI) GetSupplier(ctx context.Context, supplierID string) (*provider.Supplier, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Supplier), args.Error(1)
}

func (m *MockProviderAPI) ListUserProfiles(ctx context.Context, page int) ([]provider.UserProfile, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.UserProfile), args.Error(1)
}

// Ensure mocks implement the interfaces.
var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)
var _ portsrepo.MileageRepositoryFacade = (*MockMileageRepository)(nil)
var _ portsrepo.CardRepositoryFacade = (*MockCardRepository)(nil)
var _ portsrepo.CompanyRepositoryFacade = (*MockCompanyRepository)(nil)
var _ portsrepo.ReferenceRepositoryFacade = (*MockReferenceRepository)(nil)
var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)
var _ portssvc.RefIndexSvcFacade = (*MockRefIndexService)(nil)
var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)
var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)
var _ portssvc.ReceiptFetcher = (*MockReceiptFetcher)(nil)
var _ services.ProviderAPI = (*MockProviderAPI)(nil)
