package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/core/domain"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/dto"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// transactionHandler handles card transaction reads and processing.
type transactionHandler struct {
	txnRepo           portsrepo.TransactionRepositoryFacade
	processingService portssvc.ProcessingSvcFacade
}

func newTransactionHandler(txnRepo portsrepo.TransactionRepositoryFacade, processingService portssvc.ProcessingSvcFacade) *transactionHandler {
	return &transactionHandler{txnRepo: txnRepo, processingService: processingService}
}

// listTransactions godoc
// @Summary List card transactions of a company
// @Description Token-paginated listing, newest first
// @Tags transactions
// @Produce json
// @Param companyID path string true "Company ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Router /companies/{companyID}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	txns, newToken, err := h.txnRepo.ListTransactionsByCompany(c.Request.Context(), companyID, limit, nextToken)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination token"})
			return
		}
		logger.Error("Failed to list transactions", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, dto.ToListTransactionsResponse(txns, newToken))
}

// getTransaction godoc
// @Summary Get one card transaction
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.txnRepo.FindTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to get transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// updateTransaction godoc
// @Summary Update a draft card transaction
// @Description Edits the draft-only fields (partner, accounts, VAT, receipt-lost waiver, bank-move-only flag, forced invoice date, manual invoice link). Done records are immutable.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param body body dto.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction is not draft"
// @Router /transactions/{transactionID} [put]
func (h *transactionHandler) updateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind update request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}
	callerID, ok := middleware.GetCallerIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.txnRepo.FindTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to get transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		return
	}
	if txn.State != domain.StateDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft transactions can be updated"})
		return
	}

	req.ApplyTo(txn)
	txn.LastUpdatedBy = callerID
	txn.LastUpdatedAt = time.Now().UTC()
	if err := h.txnRepo.UpdateDraftTransaction(c.Request.Context(), *txn); err != nil {
		logger.Error("Failed to update transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
		return
	}

	logger.Info("Transaction updated", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// processTransactions godoc
// @Summary Process draft card transactions
// @Description Posts the bank entry, synthesizes or matches the vendor invoice, reconciles and marks each record done
// @Tags transactions
// @Accept json
// @Produce json
// @Param body body dto.ProcessRequest true "Transaction IDs to process"
// @Success 200 {object} dto.ProcessResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 422 {object} map[string]string "Configuration or integrity error"
// @Failure 500 {object} map[string]string "Processing failed"
// @Router /transactions/process [post]
func (h *transactionHandler) processTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.ProcessRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind process request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}
	callerID, ok := middleware.GetCallerIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	outcome, err := h.processingService.ProcessTransactions(c.Request.Context(), req.IDs, callerID)
	if err != nil {
		writeImportError(c, logger, err, "Processing failed")
		return
	}

	logger.Info("Transactions processed",
		slog.Int("processed", len(outcome.ProcessedIDs)), slog.Int("skipped", len(outcome.SkippedIDs)))
	c.JSON(http.StatusOK, dto.ToProcessResponse(outcome))
}

// RegisterTransactionRoutes registers transaction routes.
func RegisterTransactionRoutes(group *gin.RouterGroup, txnRepo portsrepo.TransactionRepositoryFacade, processingService portssvc.ProcessingSvcFacade) {
	handler := newTransactionHandler(txnRepo, processingService)
	group.GET("/companies/:companyID/transactions", handler.listTransactions)
	group.GET("/transactions/:transactionID", handler.getTransaction)
	group.PUT("/transactions/:transactionID", handler.updateTransaction)
	group.POST("/transactions/process", handler.processTransactions)
}
