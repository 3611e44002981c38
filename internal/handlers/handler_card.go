package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portsrepo "github.com/kardo-hq/card_accounting_app/internal/core/ports/repositories"
	"github.com/kardo-hq/card_accounting_app/internal/dto"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
)

// cardHandler handles payment card reads.
type cardHandler struct {
	cardRepo portsrepo.CardRepositoryFacade
}

func newCardHandler(cardRepo portsrepo.CardRepositoryFacade) *cardHandler {
	return &cardHandler{cardRepo: cardRepo}
}

// listCards godoc
// @Summary List payment cards of a company
// @Tags cards
// @Produce json
// @Param companyID path string true "Company ID"
// @Success 200 {object} dto.ListCardsResponse
// @Failure 500 {object} map[string]string "Failed to list cards"
// @Router /companies/{companyID}/cards [get]
func (h *cardHandler) listCards(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	cards, err := h.cardRepo.ListCardsByCompany(c.Request.Context(), companyID)
	if err != nil {
		logger.Error("Failed to list cards", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cards"})
		return
	}
	c.JSON(http.StatusOK, dto.ToListCardsResponse(cards))
}

// registerCardRoutes registers card routes.
func registerCardRoutes(group *gin.RouterGroup, cardRepo portsrepo.CardRepositoryFacade) {
	handler := newCardHandler(cardRepo)
	group.GET("/companies/:companyID/cards", handler.listCards)
}
