package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kardo-hq/card_accounting_app/internal/core/ports/services"
	"github.com/kardo-hq/card_accounting_app/internal/dto"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// syncHandler triggers incremental provider-API syncs.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

func newSyncHandler(syncService portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{syncService: syncService}
}

// syncCompany godoc
// @Summary Run an incremental API sync for one company
// @Description Pulls account movements, expenses and mileage expenses from the provider API and upserts them
// @Tags sync
// @Produce json
// @Param companyID path string true "Company ID"
// @Success 200 {object} dto.ImportResponse
// @Failure 422 {object} map[string]string "Missing credentials or provider inconsistency"
// @Failure 500 {object} map[string]string "Sync failed"
// @Router /companies/{companyID}/sync [post]
func (h *syncHandler) syncCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	result, err := h.syncService.SyncCompany(c.Request.Context(), companyID)
	if err != nil {
		writeImportError(c, logger, err, "Sync failed")
		return
	}

	logger.Info("API sync finished", slog.String("company_id", companyID),
		slog.Int("created", result.Created), slog.Int("updated", result.Updated), slog.Int("skipped", result.Skipped))
	c.JSON(http.StatusOK, dto.ToImportResponse(result))
}

// syncAll godoc
// @Summary Run an incremental API sync for every configured company
// @Description Iterates all companies with complete API credentials; per-company failures are logged and skipped
// @Tags sync
// @Produce json
// @Success 202 {object} map[string]string
// @Failure 500 {object} map[string]string "Sync failed"
// @Router /sync [post]
func (h *syncHandler) syncAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.syncService.SyncAllCompanies(c.Request.Context()); err != nil {
		logger.Error("Sync-all failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sync completed"})
}

// registerSyncRoutes registers sync trigger routes.
func registerSyncRoutes(group *gin.RouterGroup, syncService portssvc.SyncSvcFacade, rateLimit gin.HandlerFunc) {
	handler := newSyncHandler(syncService)
	group.POST("/companies/:companyID/sync", rateLimit, handler.syncCompany)
	group.POST("/sync", rateLimit, handler.syncAll)
}
