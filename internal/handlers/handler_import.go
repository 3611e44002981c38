package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/dto"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// importHandler handles CSV file imports.
type importHandler struct {
	importerService portssvc.ImporterSvcFacade
}

func newImportHandler(importerService portssvc.ImporterSvcFacade) *importHandler {
	return &importHandler{importerService: importerService}
}

// importCSV godoc
// @Summary Import a CSV file of card transactions or mileage expenses
// @Description Sniffs the schema from the header, normalizes and upserts every row. The whole file is validated before anything is written.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param companyID path string true "Company ID"
// @Param file formData file true "CSV file"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} map[string]string "Malformed file"
// @Failure 422 {object} map[string]string "Unresolvable reference data"
// @Failure 500 {object} map[string]string "Import failed"
// @Router /companies/{companyID}/imports [post]
func (h *importHandler) importCSV(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Import request without file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'file' form field is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	callerID, ok := middleware.GetCallerIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.importerService.ImportCSV(c.Request.Context(), companyID, data, callerID)
	if err != nil {
		writeImportError(c, logger, err, "Import failed")
		return
	}

	logger.Info("CSV import finished",
		slog.String("company_id", companyID), slog.String("file", fileHeader.Filename),
		slog.Int("created", result.Created), slog.Int("updated", result.Updated), slog.Int("skipped", result.Skipped))
	c.JSON(http.StatusOK, dto.ToImportResponse(result))
}

// bindingErrorMessage turns a gin binding failure into a field-level message
// instead of the raw validator dump.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request format"
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return "Invalid request fields: " + strings.Join(fields, ", ")
}

// writeImportError maps the import error taxonomy onto HTTP statuses.
func writeImportError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrMalformedInput) || errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Import rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrIntegrity) || errors.Is(err, apperrors.ErrConfiguration):
		logger.Warn("Import blocked", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// registerImportRoutes registers CSV import routes.
func registerImportRoutes(group *gin.RouterGroup, importerService portssvc.ImporterSvcFacade, rateLimit gin.HandlerFunc) {
	handler := newImportHandler(importerService)
	group.POST("/companies/:companyID/imports", rateLimit, handler.importCSV)
}
