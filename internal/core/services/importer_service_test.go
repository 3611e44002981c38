package services_test

import (
	"context"
	"testing"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/encoding/charmap"
)

type ImporterServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockMileageRepo *MockMileageRepository
	mockRefIndex    *MockRefIndexService
	service         portssvc.ImporterSvcFacade
	idx             *domain.ReferenceIndex
	ctx             context.Context
}

func (suite *ImporterServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockMileageRepo = new(MockMileageRepository)
	suite.mockRefIndex = new(MockRefIndexService)
	suite.service = services.NewImporterService(
		suite.mockTxnRepo, suite.mockMileageRepo, suite.mockRefIndex, domain.MatchContain)
	suite.ctx = context.Background()

	suite.idx = &domain.ReferenceIndex{
		CompanyID:       "comp-1",
		CompanyCurrency: "EUR",
		CompanyCountry:  "FR",
		Tokens:          map[string]string{"111222": "card-1"},
		Accounts:        map[string]string{"6256": "acc-travel"},
		Analytic:        map[string]string{},
		Countries:       map[string]string{"FR": "ctry-fr"},
		CountryIDs:      map[string]string{"ctry-fr": "FR"},
		Currencies:      map[string]string{"EUR": "EUR"},
		Mapping:         map[domain.CardAccountKey]string{},
		Partners: []domain.PartnerNameEntry{
			{Fragment: "UBER", PartnerID: "p-uber"},
		},
		PartnerPayables: map[string]string{
			"p-default": "acc-payable-misc",
			"p-uber":    "acc-payable-uber",
		},
		PartnerEmails:     map[string]string{"jane@acme.example": "p-jane"},
		DefaultPartnerID:  "p-default",
		TransferAccountID: "acc-transfer",
	}
}

func (suite *ImporterServiceTestSuite) TestImportCSV_EmptyFile() {
	_, err := suite.service.ImportCSV(suite.ctx, "comp-1", []byte("  \n "), "alice")

	suite.Require().ErrorIs(err, apperrors.ErrMalformedInput)
	suite.Contains(err.Error(), "the file is empty")
	suite.mockRefIndex.AssertNotCalled(suite.T(), "BuildIndex", mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImportCSV_MissingIDAbortsBeforeAnyWrite() {
	data := []byte("id,transaction_type,amount_eur\n" +
		"mv-1,L,100.00\n" +
		",L,50.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()

	_, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().ErrorIs(err, apperrors.ErrMalformedInput)
	suite.Contains(err.Error(), "line 3 of the file has no ID")
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ImportedStatesByCompany", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockRefIndex.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_CreatesDraftTransactions() {
	data := []byte("id,transaction_type,card_token,supplier,title,charge_account,amount_eur,vat_eur,vat_20_id,date_transaction\n" +
		"mv-1,P,111222,Uber BV,Taxi,6256,-59.90,-9.98,-9.98,2019-10-07T07:56:52.000Z\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{}, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", suite.ctx, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		return txn.UniqueImportID == "mv-1" &&
			txn.State == domain.StateDraft &&
			txn.TransactionType == domain.Expense &&
			txn.CardID == "card-1" &&
			txn.PartnerID == "p-uber" &&
			txn.BankCounterpartAccountID == "acc-payable-uber" &&
			txn.TotalAmount.Equal(decimal.NewFromFloat(-59.90)) &&
			txn.CreatedBy == "alice" &&
			txn.LastUpdatedBy == "alice"
	})).Return(&domain.CardTransaction{TransactionID: "txn-1"}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(1, result.Created)
	suite.Equal(0, result.Updated)
	suite.Equal(0, result.Skipped)
	suite.Equal([]string{"txn-1"}, result.TransactionIDs)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockRefIndex.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_LegacyTransactionIDColumn() {
	data := []byte("transaction_id,transaction_type,amount_eur\n" +
		"legacy-1,L,100.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{}, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", suite.ctx, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		return txn.UniqueImportID == "legacy-1" && txn.TransactionType == domain.Load
	})).Return(&domain.CardTransaction{TransactionID: "txn-legacy"}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(1, result.Created)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_LegacyKeyMatchesExistingDraft() {
	// A draft created from a legacy export is keyed by its old
	// 'transaction_id'. A newer file carrying both columns must update that
	// draft, not create a second record for the same movement.
	data := []byte("id,transaction_id,transaction_type,amount_eur\n" +
		"new-id-1,legacy-7,L,100.00\n")
	existing := &domain.CardTransaction{
		TransactionID:  "txn-7",
		CompanyID:      "comp-1",
		UniqueImportID: "legacy-7",
		State:          domain.StateDraft,
		TotalAmount:    decimal.NewFromFloat(100.00),
	}
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"legacy-7": {ID: "txn-7", State: domain.StateDraft},
		}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", suite.ctx, "txn-7").Return(existing, nil).Once()
	suite.mockTxnRepo.On("UpdateDraftTransaction", suite.ctx, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		return txn.TransactionID == "txn-7" && txn.UniqueImportID == "legacy-7"
	})).Return(nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(0, result.Created)
	suite.Equal(1, result.Updated)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_LegacyKeyMatchesDoneRecord() {
	data := []byte("id,transaction_id,transaction_type,amount_eur\n" +
		"new-id-1,legacy-7,L,100.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"legacy-7": {ID: "txn-7", State: domain.StateDone},
		}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(1, result.Skipped)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImportCSV_ReimportIsIdempotent() {
	// The same file imported twice creates on the first run and only
	// updates on the second.
	data := []byte("id,transaction_type,amount_eur\n" +
		"mv-1,L,100.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Twice()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{}, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", suite.ctx, mock.Anything).
		Return(&domain.CardTransaction{TransactionID: "txn-1"}, nil).Once()

	first, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")
	suite.Require().NoError(err)
	suite.Equal(1, first.Created)

	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"mv-1": {ID: "txn-1", State: domain.StateDraft},
		}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", suite.ctx, "txn-1").
		Return(&domain.CardTransaction{
			TransactionID:  "txn-1",
			CompanyID:      "comp-1",
			UniqueImportID: "mv-1",
			State:          domain.StateDraft,
		}, nil).Once()
	suite.mockTxnRepo.On("UpdateDraftTransaction", suite.ctx, mock.Anything).Return(nil).Once()

	second, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(0, second.Created)
	suite.Equal(1, second.Updated)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_DoneRecordsAreSkipped() {
	data := []byte("id,transaction_type,amount_eur\n" +
		"mv-1,L,100.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"mv-1": {ID: "txn-1", State: domain.StateDone},
		}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(0, result.Created)
	suite.Equal(1, result.Skipped)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateDraftTransaction", mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImportCSV_UpdatesKnownDraft() {
	data := []byte("id,transaction_type,supplier,title,amount_eur\n" +
		"mv-1,P,Uber BV,New title,-42.00\n")
	existing := &domain.CardTransaction{
		TransactionID:  "txn-1",
		CompanyID:      "comp-1",
		UniqueImportID: "mv-1",
		State:          domain.StateDraft,
		Vendor:         "Uber BV",
		TotalAmount:    decimal.NewFromFloat(-42.00),
	}
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"mv-1": {ID: "txn-1", State: domain.StateDraft},
		}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", suite.ctx, "txn-1").Return(existing, nil).Once()
	suite.mockTxnRepo.On("UpdateDraftTransaction", suite.ctx, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		// Identity fields survive the update, mutable fields are overwritten.
		return txn.TransactionID == "txn-1" &&
			txn.UniqueImportID == "mv-1" &&
			txn.Description == "New title" &&
			txn.TotalAmount.Equal(decimal.NewFromFloat(-42.00)) &&
			txn.LastUpdatedBy == "alice"
	})).Return(nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(0, result.Created)
	suite.Equal(1, result.Updated)
	suite.Equal([]string{"txn-1"}, result.TransactionIDs)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImportCSV_NormalizeErrorNamesTheLine() {
	data := []byte("id,transaction_type,amount_eur\n" +
		"mv-1,L,100.00\n" +
		"mv-2,X,50.00\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockTxnRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{}, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", suite.ctx, mock.Anything).
		Return(&domain.CardTransaction{TransactionID: "txn-1"}, nil).Once()

	_, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().ErrorIs(err, apperrors.ErrMalformedInput)
	suite.Contains(err.Error(), "line 3:")
	suite.Contains(err.Error(), "wrong transaction type 'X'")
}

// latin1 encodes a UTF-8 fixture the way the provider ships mileage files.
func latin1(s string) []byte {
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return out
}

func (suite *ImporterServiceTestSuite) TestImportCSV_MileageSchemaIsSniffedAndDecoded() {
	data := latin1("Identifiant unique;Collaborateur;Email;Date;Description;Départ;Arrivée;Type de trajet;Distance (km);Barême kilométrique;Véhicule;Immatriculation;Puissance fiscale;Codes analytiques;Compte de charge\n" +
		"km-1;Jane Doe;jane@acme.example;2019-10-08;Client visit;Lyon;Paris;Aller / Retour;930;0,58;Clio;AB-123-CD;4;;6256\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockMileageRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{}, nil).Once()
	suite.mockMileageRepo.On("CreateMileage", suite.ctx, mock.MatchedBy(func(m domain.Mileage) bool {
		return m.UniqueImportID == "km-1" &&
			m.PartnerID == "p-jane" &&
			m.TripType == domain.RoundTrip &&
			m.KM == 930 &&
			m.PriceUnit.Equal(decimal.NewFromFloat(0.58)) &&
			m.Departure == "Lyon" &&
			m.Arrival == "Paris" &&
			m.ExpenseAccountID == "acc-travel" &&
			m.CreatedBy == "alice"
	})).Return(&domain.Mileage{MileageID: "mil-1"}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(1, result.Created)
	suite.Equal([]string{"mil-1"}, result.MileageIDs)
	suite.mockMileageRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ImportedStatesByCompany", mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImportCSV_MileageAlreadyInvoicedIsSkipped() {
	data := latin1("Identifiant unique;Collaborateur;Email\n" +
		"km-1;Jane Doe;jane@acme.example\n")
	suite.mockRefIndex.On("BuildIndex", suite.ctx, "comp-1").Return(suite.idx, nil).Once()
	suite.mockMileageRepo.On("ImportedStatesByCompany", suite.ctx, "comp-1").
		Return(map[string]portsrepo.ImportedState{
			"km-1": {ID: "mil-1", State: domain.StateDone},
		}, nil).Once()

	result, err := suite.service.ImportCSV(suite.ctx, "comp-1", data, "alice")

	suite.Require().NoError(err)
	suite.Equal(1, result.Skipped)
	suite.mockMileageRepo.AssertNotCalled(suite.T(), "CreateMileage", mock.Anything, mock.Anything)
}

func TestImporterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImporterServiceTestSuite))
}
