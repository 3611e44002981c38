package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/dto"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// mileageHandler handles mileage record reads and processing.
type mileageHandler struct {
	mileageRepo       portsrepo.MileageRepositoryFacade
	processingService portssvc.ProcessingSvcFacade
}

func newMileageHandler(mileageRepo portsrepo.MileageRepositoryFacade, processingService portssvc.ProcessingSvcFacade) *mileageHandler {
	return &mileageHandler{mileageRepo: mileageRepo, processingService: processingService}
}

// listMileages godoc
// @Summary List mileage records of a company
// @Description Token-paginated listing, newest first
// @Tags mileages
// @Produce json
// @Param companyID path string true "Company ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListMileagesResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Router /companies/{companyID}/mileages [get]
func (h *mileageHandler) listMileages(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	mileages, newToken, err := h.mileageRepo.ListMileagesByCompany(c.Request.Context(), companyID, limit, nextToken)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination token"})
			return
		}
		logger.Error("Failed to list mileages", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list mileages"})
		return
	}
	c.JSON(http.StatusOK, dto.ToListMileagesResponse(mileages, newToken))
}

// processMileages godoc
// @Summary Process draft mileage records
// @Description Groups the records by employee and creates one aggregated invoice per employee
// @Tags mileages
// @Accept json
// @Produce json
// @Param body body dto.ProcessRequest true "Mileage IDs to process"
// @Success 200 {object} dto.ProcessResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 422 {object} map[string]string "Configuration or integrity error"
// @Failure 500 {object} map[string]string "Processing failed"
// @Router /mileages/process [post]
func (h *mileageHandler) processMileages(c *gin.Context) {
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

	outcome, err := h.processingService.ProcessMileages(c.Request.Context(), req.IDs, callerID)
	if err != nil {
		writeImportError(c, logger, err, "Processing failed")
		return
	}

	logger.Info("Mileages processed",
		slog.Int("processed", len(outcome.ProcessedIDs)), slog.Int("invoices", len(outcome.InvoiceIDs)))
	c.JSON(http.StatusOK, dto.ToProcessResponse(outcome))
}

// registerMileageRoutes registers mileage routes.
func registerMileageRoutes(group *gin.RouterGroup, mileageRepo portsrepo.MileageRepositoryFacade, processingService portssvc.ProcessingSvcFacade) {
	handler := newMileageHandler(mileageRepo, processingService)
	group.GET("/companies/:companyID/mileages", handler.listMileages)
	group.POST("/mileages/process", handler.processMileages)
}
