package services_test

import (
	"context"
	"testing"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/core/services"
	"github.com/stretchr/testify/suite"
)

type RefIndexServiceTestSuite struct {
	suite.Suite
	mockRefRepo     *MockReferenceRepository
	mockCardRepo    *MockCardRepository
	mockCompanyRepo *MockCompanyRepository
	mockTxnRepo     *MockTransactionRepository
	service         portssvc.RefIndexSvcFacade
	ctx             context.Context
}

func (suite *RefIndexServiceTestSuite) SetupTest() {
	suite.mockRefRepo = new(MockReferenceRepository)
	suite.mockCardRepo = new(MockCardRepository)
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.service = services.NewRefIndexService(
		suite.mockRefRepo, suite.mockCardRepo, suite.mockCompanyRepo, suite.mockTxnRepo)
	suite.ctx = context.Background()
}

func (suite *RefIndexServiceTestSuite) company() *domain.Company {
	return &domain.Company{
		CompanyID:         "comp-1",
		Name:              "Acme",
		CurrencyCode:      "EUR",
		CountryCode:       "FR",
		TransferAccountID: "acc-transfer",
	}
}

func (suite *RefIndexServiceTestSuite) defaultPartner() *domain.Partner {
	return &domain.Partner{
		PartnerID:        "p-default",
		Name:             "Misc suppliers",
		PayableAccountID: "acc-payable-misc",
	}
}

func (suite *RefIndexServiceTestSuite) TestBuildIndex_MissingTransferAccount() {
	company := suite.company()
	company.TransferAccountID = ""
	suite.mockCompanyRepo.On("FindCompanyByID", suite.ctx, "comp-1").Return(company, nil).Once()

	_, err := suite.service.BuildIndex(suite.ctx, "comp-1")

	suite.Require().ErrorIs(err, apperrors.ErrConfiguration)
	suite.Contains(err.Error(), "missing 'Internal Bank Transfer Account' on company 'Acme'")
}

func (suite *RefIndexServiceTestSuite) TestBuildIndex_DefaultPartnerMustBeTopLevel() {
	suite.mockCompanyRepo.On("FindCompanyByID", suite.ctx, "comp-1").Return(suite.company(), nil).Once()
	child := suite.defaultPartner()
	child.ParentID = "p-parent"
	suite.mockRefRepo.On("FindDefaultPartner", suite.ctx).Return(child, nil).Once()

	_, err := suite.service.BuildIndex(suite.ctx, "comp-1")

	suite.Require().ErrorIs(err, apperrors.ErrConfiguration)
	suite.Contains(err.Error(), "should be a top-level partner")
}

func (suite *RefIndexServiceTestSuite) TestBuildIndex_AssemblesAllTables() {
	suite.mockCompanyRepo.On("FindCompanyByID", suite.ctx, "comp-1").Return(suite.company(), nil).Once()
	suite.mockRefRepo.On("FindDefaultPartner", suite.ctx).Return(suite.defaultPartner(), nil).Once()
	suite.mockCardRepo.On("ListCardsByCompany", suite.ctx, "comp-1").Return([]domain.Card{
		{CardID: "card-1", Token: "111222"},
	}, nil).Once()
	suite.mockRefRepo.On("ListLedgerAccountsByCompany", suite.ctx, "comp-1").Return([]domain.LedgerAccount{
		{AccountID: "acc-travel", Code: " 6256 "},
	}, nil).Once()
	suite.mockRefRepo.On("ListAnalyticAccountsByCompany", suite.ctx, "comp-1").Return([]domain.AnalyticAccount{
		{AnalyticID: "ana-1", Code: "Projet-X"},
	}, nil).Once()
	suite.mockRefRepo.On("ListCountries", suite.ctx).Return([]domain.Country{
		{CountryID: "ctry-fr", Code: "FR"},
	}, nil).Once()
	suite.mockRefRepo.On("ListCurrencies", suite.ctx).Return([]domain.Currency{
		{CurrencyCode: "USD", Name: "US Dollar"},
	}, nil).Once()
	suite.mockCardRepo.On("ListAccountMappingsByCompany", suite.ctx, "comp-1").Return([]domain.AccountMapping{
		{CardID: "card-1", ExpenseAccountID: "acc-travel", ForceExpenseAccountID: "acc-forced"},
	}, nil).Once()
	suite.mockTxnRepo.On("DoneVendorAssignments", suite.ctx, "comp-1", "p-default").
		Return([]domain.PartnerNameEntry{
			{Fragment: "Café de la Gare", PartnerID: "p-cafe"},
			// Too short after normalization, dropped from the match list.
			{Fragment: " AB ", PartnerID: "p-short"},
		}, nil).Once()
	suite.mockRefRepo.On("ListTopLevelPartners", suite.ctx).Return([]domain.Partner{
		{PartnerID: "p-uber", Name: "Uber", PayableAccountID: "acc-payable-uber"},
		{PartnerID: "p-xy", Name: "XY"},
	}, nil).Once()
	suite.mockRefRepo.On("ListPartnersWithEmail", suite.ctx).Return([]domain.Partner{
		{PartnerID: "p-jane", Email: " Jane@Acme.example "},
	}, nil).Once()

	idx, err := suite.service.BuildIndex(suite.ctx, "comp-1")

	suite.Require().NoError(err)
	suite.Equal("comp-1", idx.CompanyID)
	suite.Equal("EUR", idx.CompanyCurrency)
	suite.Equal("FR", idx.CompanyCountry)
	suite.Equal("card-1", idx.Tokens["111222"])
	// Account codes are stored trimmed, analytic codes lower-cased.
	suite.Equal("acc-travel", idx.Accounts["6256"])
	suite.Equal("ana-1", idx.Analytic["projet-x"])
	suite.Equal("ctry-fr", idx.Countries["FR"])
	suite.Equal("FR", idx.CountryIDs["ctry-fr"])
	// Currencies resolve by display name and by code.
	suite.Equal("USD", idx.Currencies["US Dollar"])
	suite.Equal("USD", idx.Currencies["USD"])
	suite.Equal("acc-forced", idx.Mapping[domain.CardAccountKey{CardID: "card-1", AccountID: "acc-travel"}])
	// Learned fragments come first, normalized; the too-short learned entry
	// and the too-short partner name are dropped.
	suite.Equal([]domain.PartnerNameEntry{
		{Fragment: "CAFE DE LA GARE", PartnerID: "p-cafe"},
		{Fragment: "UBER", PartnerID: "p-uber"},
	}, idx.Partners)
	suite.Equal("p-default", idx.DefaultPartnerID)
	suite.Equal("acc-transfer", idx.TransferAccountID)
	suite.Equal("acc-payable-misc", idx.PartnerPayables["p-default"])
	suite.Equal("acc-payable-uber", idx.PartnerPayables["p-uber"])
	suite.Equal("p-jane", idx.PartnerEmails["jane@acme.example"])
	suite.mockRefRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func TestRefIndexServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RefIndexServiceTestSuite))
}
