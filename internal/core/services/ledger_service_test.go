package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/core/services"
	"github.com/kardo-hq/card_accounting_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	service        portssvc.LedgerSvcFacade
	ctx            context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo)
	suite.ctx = context.Background()
}

func (suite *LedgerServiceTestSuite) TestPostEntry() {
	entry := accounting.BuildBankEntry(
		"jrnl-1", time.Date(2019, 10, 7, 0, 0, 0, 0, time.UTC), "CTX/00001 (Load)",
		decimal.NewFromFloat(100.00), "acc-bank", "acc-transfer", "")
	var saved domain.PostedEntry
	suite.mockLedgerRepo.On("SaveEntry", suite.ctx, mock.AnythingOfType("domain.PostedEntry"), "jrnl-1", "comp-1").
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.PostedEntry)
		}).Return(nil).Once()

	posted, err := suite.service.PostEntry(suite.ctx, "comp-1", entry)

	suite.Require().NoError(err)
	suite.NotEmpty(posted.EntryID)
	suite.Require().Len(posted.Lines, 2)
	for _, line := range posted.Lines {
		suite.NotEmpty(line.LineID)
	}
	suite.Equal(posted.EntryID, saved.EntryID)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostEntry_RejectsUnbalanced() {
	entry := domain.LedgerEntry{
		JournalID: "jrnl-1",
		Reference: "broken",
		Lines: []domain.EntryLine{
			{AccountID: "acc-bank", Debit: decimal.NewFromFloat(100.00)},
			{AccountID: "acc-transfer", Credit: decimal.NewFromFloat(99.00)},
		},
	}

	_, err := suite.service.PostEntry(suite.ctx, "comp-1", entry)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "does not balance")
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_RejectsEmpty() {
	_, err := suite.service.PostEntry(suite.ctx, "comp-1", domain.LedgerEntry{Reference: "empty"})

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "at least one line")
}

func (suite *LedgerServiceTestSuite) TestReconcile() {
	suite.mockLedgerRepo.On("SaveReconciliation", suite.ctx, "acc-payable", []string{"l-1", "l-2"}).
		Return("rec-1", nil).Once()

	reconcileID, err := suite.service.Reconcile(suite.ctx, "acc-payable", []string{"l-1", "l-2"})

	suite.Require().NoError(err)
	suite.Equal("rec-1", reconcileID)
}

func (suite *LedgerServiceTestSuite) TestReconcile_NeedsTwoLines() {
	_, err := suite.service.Reconcile(suite.ctx, "acc-payable", []string{"l-1"})

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "at least two ledger lines")
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "SaveReconciliation", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
