package dto

import "github.com/kardo-hq/card_accounting_app/internal/core/domain"

// CardResponse defines the data returned for a payment card.
type CardResponse struct {
	CardID    string `json:"cardID"`
	Token     string `json:"token"`
	Code      string `json:"code,omitempty"`
	JournalID string `json:"journalID,omitempty"`
	Active    bool   `json:"active"`
}

// ListCardsResponse lists the cards of a company.
type ListCardsResponse struct {
	Cards []CardResponse `json:"cards"`
}

// ToCardResponse converts a domain.Card to its DTO.
func ToCardResponse(c *domain.Card) CardResponse {
	return CardResponse{
		CardID:    c.CardID,
		Token:     c.Token,
		Code:      c.Code,
		JournalID: c.JournalID,
		Active:    c.Active,
	}
}

// ToListCardsResponse converts a card slice.
func ToListCardsResponse(cards []domain.Card) ListCardsResponse {
	responses := make([]CardResponse, len(cards))
	for i, c := range cards {
		responses[i] = ToCardResponse(&c)
	}
	return ListCardsResponse{Cards: responses}
}
