package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/handlers"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// --- Mock TransactionRepository ---
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

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

// --- Mock ProcessingService ---
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessTransactions(ctx context.Context, transactionIDs []string, requestedBy string) (*portssvc.ProcessOutcome, error) {
	args := m.Called(ctx, transactionIDs, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ProcessOutcome), args.Error(1)
}
func (m *MockProcessingService) ProcessMileages(ctx context.Context, mileageIDs []string, requestedBy string) (*portssvc.ProcessOutcome, error) {
	args := m.Called(ctx, mileageIDs, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ProcessOutcome), args.Error(1)
}

var _ portssvc.ProcessingSvcFacade = (*MockProcessingService)(nil)

// --- Test Suite ---
type TransactionHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockTxnRepo    *MockTransactionRepository
	mockProcessing *MockProcessingService
	jwtSecret      string
}

func (suite *TransactionHandlerTestSuite) generateTestToken(callerID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "caa-test",
		Subject:   callerID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockProcessing = new(MockProcessingService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterTransactionRoutes(v1, suite.mockTxnRepo, suite.mockProcessing)
}

func (suite *TransactionHandlerTestSuite) doPut(path, callerID string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)
	req, _ := http.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(callerID))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TransactionHandlerTestSuite) TestUpdateTransaction_Draft() {
	draft := &domain.CardTransaction{
		TransactionID:            "txn-1",
		Name:                     "CTX/00002",
		CompanyID:                "comp-1",
		State:                    domain.StateDraft,
		TransactionType:          domain.Expense,
		PartnerID:                "p-default",
		BankCounterpartAccountID: "acc-payable-misc",
		TotalAmount:              decimal.NewFromFloat(-59.90),
	}
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(draft, nil).Once()
	suite.mockTxnRepo.On("UpdateDraftTransaction", mock.Anything, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		return txn.TransactionID == "txn-1" &&
			txn.PartnerID == "p-uber" &&
			txn.BankCounterpartAccountID == "acc-payable-uber" &&
			txn.ReceiptLost &&
			txn.LastUpdatedBy == "alice"
	})).Return(nil).Once()

	w := suite.doPut("/api/v1/transactions/txn-1", "alice", gin.H{
		"partnerID":                "p-uber",
		"bankCounterpartAccountID": "acc-payable-uber",
		"receiptLost":              true,
	})

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("p-uber", resp["partnerID"])
	suite.Equal(true, resp["receiptLost"])
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestUpdateTransaction_DoneIsRejected() {
	done := &domain.CardTransaction{
		TransactionID: "txn-1",
		State:         domain.StateDone,
	}
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(done, nil).Once()

	w := suite.doPut("/api/v1/transactions/txn-1", "alice", gin.H{"receiptLost": true})

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateDraftTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestUpdateTransaction_OmittedFieldsAreKept() {
	draft := &domain.CardTransaction{
		TransactionID: "txn-1",
		State:         domain.StateDraft,
		Description:   "Taxi to airport",
		PartnerID:     "p-uber",
		ReceiptLost:   true,
	}
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(draft, nil).Once()
	suite.mockTxnRepo.On("UpdateDraftTransaction", mock.Anything, mock.MatchedBy(func(txn domain.CardTransaction) bool {
		// Only the description changes; untouched fields survive.
		return txn.Description == "Taxi downtown" &&
			txn.PartnerID == "p-uber" &&
			txn.ReceiptLost
	})).Return(nil).Once()

	w := suite.doPut("/api/v1/transactions/txn-1", "alice", gin.H{"description": "Taxi downtown"})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestUpdateTransaction_RequiresAuth() {
	payload, _ := json.Marshal(gin.H{"receiptLost": true})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/transactions/txn-1", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "FindTransactionByID", mock.Anything, mock.Anything)
}

func TestTransactionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
